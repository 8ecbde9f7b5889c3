package processing

import (
	"strings"

	"github.com/rs/zerolog/log"
)

const headerRowIndex = 1

// ResolveColumn maps a normalized command name to the zero-based index of the
// first header cell that matches it, case-insensitively. Returns -1 when no
// header matches. Duplicated headers resolve to their first occurrence.
func ResolveColumn(name string, headers []string) int {
	for i, header := range headers {
		if strings.ToUpper(header) == name {
			log.Debug().
				Str("name", name).
				Int("column", i).
				Msg("Resolved column")
			return i
		}
	}

	log.Debug().
		Str("name", name).
		Int("headers", len(headers)).
		Msg("No header matches name")
	return -1
}
