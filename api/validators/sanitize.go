package validators

import "strings"

// SanitizeString trims input and cuts it to maxLen runes when maxLen > 0.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 {
		if r := []rune(trimmed); len(r) > maxLen {
			return string(r[:maxLen])
		}
	}
	return trimmed
}
