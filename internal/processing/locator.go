package processing

import (
	"github.com/rs/zerolog/log"
)

// firstDataRow is the row right below the header row.
const firstDataRow = headerRowIndex + 1

// LocateRow picks the 1-based row number for the next write, given the
// formatted values of the target column from row 2 down to the last populated
// row. The first empty cell wins; a fully populated column appends one row
// past the end. Only the target column is inspected, so rows that other
// columns have already filled still count as writable here.
func LocateRow(columnValues []string) int {
	for i, value := range columnValues {
		if value == "" {
			row := firstDataRow + i
			log.Debug().
				Int("row", row).
				Int("scanned", len(columnValues)).
				Msg("Found gap in column")
			return row
		}
	}

	row := firstDataRow + len(columnValues)
	log.Debug().
		Int("row", row).
		Int("scanned", len(columnValues)).
		Msg("Column full, appending")
	return row
}
