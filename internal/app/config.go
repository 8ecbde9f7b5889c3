package app

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Config holds everything the bot needs, resolved once at startup and passed
// explicitly to the components that use it.
type Config struct {
	BotToken        string `validate:"required"`
	WebhookSecret   string `validate:"required"`
	ListenAddr      string `validate:"required"`
	SpreadsheetID   string `validate:"required"`
	SheetName       string `validate:"required"`
	CredentialsFile string `validate:"required"`
}

// LoadConfig builds a Config from the environment and validates it.
func LoadConfig() (Config, error) {
	cfg := Config{
		BotToken:        os.Getenv("BOT_TOKEN"),
		WebhookSecret:   os.Getenv("WEBHOOK_SECRET"),
		ListenAddr:      getEnvWithDefault("LISTEN_ADDR", ":8080"),
		SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		SheetName:       getEnvWithDefault("SHEET_NAME", "Sheet1"),
		CredentialsFile: getEnvWithDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getEnvWithDefault fetches an environment variable with a default fallback.
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
