package cv

import (
	"regexp"
	"strings"
)

var (
	labeledAddressRe = regexp.MustCompile(`(?im)^(?:address|indirizzo)\s*[:\-]\s*(.+)$`)
	postalCodeRe     = regexp.MustCompile(`\b\d{5}\b[ \t]+[A-Za-zÀ-ÿ' \t]+`)
)

// Address returns the first address found by, in order: a labeled
// "Address:"/"Indirizzo:" line, a line starting with one of keywords, a
// five digit postal code followed by a place name. Empty when none match.
func Address(text string, keywords []string) string {
	if m := labeledAddressRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(line)
		lower := strings.ToLower(clean)
		for _, kw := range keywords {
			kw = strings.ToLower(kw)
			if kw != "" && strings.HasPrefix(lower, kw) {
				return clean
			}
		}
	}

	if m := postalCodeRe.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}

	return ""
}
