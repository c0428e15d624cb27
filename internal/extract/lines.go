package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// LineToken is one trimmed, non-empty line of recognized text.
// Extractors operate over an ordered sequence of LineTokens.
type LineToken string

// SplitLines turns raw recognized text into ordered LineTokens, dropping
// empty lines and trimming whitespace
func SplitLines(text string) []LineToken {
	raw := strings.Split(text, "\n")
	lines := make([]LineToken, 0, len(raw))
	for _, l := range raw {
		trimmed := strings.TrimSpace(l)
		if trimmed != "" {
			lines = append(lines, LineToken(trimmed))
		}
	}
	return lines
}

// dosageUnitPattern matches dosage or unit indicators that mark a line as a
// likely pharmaceutical product
var dosageUnitPattern = regexp.MustCompile(`(?i)\b\d+\s*(mg|mcg|ml|gm|g|iu|%)\b|\b(tab|tabs|tablet|tablets|cap|caps|capsule|capsules|syp|syrup|inj|injection|oint|ointment|cream|gel|drops|susp|suspension)\b`)

// camelCasePattern matches brand names with an internal capital, a shape
// ordinary header words never have (e.g. "CrociCalm")
var camelCasePattern = regexp.MustCompile(`\b[A-Z][a-z]+[A-Z][a-z]*\b`)

// dosageSuffixWordPattern matches brand-line suffix words that follow a
// base name on Indian pharma labels
var dosageSuffixWordPattern = regexp.MustCompile(`(?i)\b(forte|plus|dsr|ds|sr|xr|xl|cv|mf|kid|junior|od|cd)\b`)

// LooksLikeMedicine is the medicine-likelihood check: a line only counts as
// a medicine entry if it carries a dosage/unit indicator or matches a known
// brand-name shape (CamelCase or a dosage suffix word). Plain header or
// address lines fail all three tests.
func LooksLikeMedicine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if dosageUnitPattern.MatchString(trimmed) {
		return true
	}
	return camelCasePattern.MatchString(trimmed) || dosageSuffixWordPattern.MatchString(trimmed)
}

// parseFloat parses a numeric token, tolerating thousands separators
func parseFloat(tok string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(tok), ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseInt parses an integer token
func parseInt(tok string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(tok))
	if err != nil {
		return 0, false
	}
	return v, true
}

// numberPattern matches a numeric token with optional decimals and
// thousands separators
var numberPattern = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// lastNumber extracts the final numeric token on a line, which is where
// printed bills put the amount
func lastNumber(line string) (float64, bool) {
	matches := numberPattern.FindAllString(line, -1)
	if len(matches) == 0 {
		return 0, false
	}
	return parseFloat(matches[len(matches)-1])
}

// largestNumber extracts the largest numeric token on a line
func largestNumber(line string) (float64, bool) {
	matches := numberPattern.FindAllString(line, -1)
	var best float64
	found := false
	for _, m := range matches {
		if v, ok := parseFloat(m); ok {
			if !found || v > best {
				best = v
				found = true
			}
		}
	}
	return best, found
}
