package sheets

import (
	"fmt"
	"strings"
)

// ColumnLabel converts a zero-based column index to its A1 letter label
// (0 -> A, 25 -> Z, 26 -> AA, ...). Panics on negative indexes; column
// indexes come from header positions and are never negative.
func ColumnLabel(index int) string {
	if index < 0 {
		panic(fmt.Sprintf("sheets: negative column index %d", index))
	}

	var label []byte
	for index >= 0 {
		label = append([]byte{byte('A' + index%26)}, label...)
		index = index/26 - 1
	}
	return string(label)
}

// ColumnIndex is the inverse of ColumnLabel. Returns -1 for anything that is
// not a non-empty string of A-Z letters.
func ColumnIndex(label string) int {
	label = strings.ToUpper(label)
	if label == "" {
		return -1
	}

	index := 0
	for i := 0; i < len(label); i++ {
		ch := label[i]
		if ch < 'A' || ch > 'Z' {
			return -1
		}
		index = index*26 + int(ch-'A') + 1
	}
	return index - 1
}
