package config

import (
	"time"

	"sheet_entry_bot/internal/retry"
)

// ResilienceConfig groups the per-operation retry/timeout tuning for the
// remote calls a single message handling makes.
type ResilienceConfig struct {
	HeaderFetch retry.Config
	ColumnScan  retry.Config
	CellWrite   retry.Config
	ReplySend   retry.Config
}

// DefaultResilienceConfig keeps every failure terminal for its message:
// no retries anywhere, just per-call timeouts. Handlers report the failure
// to the chat instead of retrying behind the user's back.
var DefaultResilienceConfig = ResilienceConfig{
	HeaderFetch: retry.Config{
		MaxRetries: 0,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    15 * time.Second,
	},
	ColumnScan: retry.Config{
		MaxRetries: 0,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    15 * time.Second,
	},
	CellWrite: retry.Config{
		MaxRetries: 0,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    15 * time.Second,
	},
	ReplySend: retry.Config{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    10 * time.Second,
	},
}
