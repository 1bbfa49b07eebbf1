package password

import "strings"

// sequences are the runs checked by HasSequentialChars: the Latin alphabet,
// the digits, and the qwerty letter rows. The shifted symbol row is
// deliberately absent so strings like "!@#" never count as a run.
var sequences = []string{
	LowercaseChars,
	NumberChars,
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
}

// HasSequentialChars reports whether any 3-character contiguous substring of
// s, compared case-insensitively, is a forward or reverse run in the
// alphabet, the digits, or a keyboard row. Every anchor position is checked,
// not just the start of the string.
func HasSequentialChars(s string) bool {
	if len(s) < 3 {
		return false
	}

	lower := strings.ToLower(s)
	for i := 0; i+3 <= len(lower); i++ {
		window := lower[i : i+3]
		reversed := string([]byte{window[2], window[1], window[0]})
		for _, seq := range sequences {
			if strings.Contains(seq, window) || strings.Contains(seq, reversed) {
				return true
			}
		}
	}

	return false
}
