package processing

import (
	"regexp"
	"strings"
)

// Command is a parsed NAME/VALUE entry. Name is trimmed and upper-cased for
// header matching; Value keeps the digit string exactly as typed.
type Command struct {
	Name  string
	Value string
}

// The whole message must be a name, a final slash, and trailing digits.
// The greedy group keeps any earlier slashes inside the name.
var commandPattern = regexp.MustCompile(`^(.+)/([0-9]+)$`)

// ParseCommand extracts a Command from raw message text, or returns nil when
// the text does not have the required shape. Pure; no partial matches.
func ParseCommand(text string) *Command {
	match := commandPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	name := strings.ToUpper(strings.TrimSpace(match[1]))
	if name == "" {
		return nil
	}

	return &Command{
		Name:  name,
		Value: match[2],
	}
}
