package cv

import (
	"regexp"
	"strings"

	"github.com/spigell/talent-suite/internal/locale"
)

var (
	emailRe       = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	phoneRe       = regexp.MustCompile(`\+?\d[\d\s]{8,}\d`)
	schemeSiteRe  = regexp.MustCompile(`\b(?:https?://|www\.)[A-Za-z0-9.-]+\.[A-Za-z]{2,}(?:/[^\s]*)?`)
	bareSiteRe    = regexp.MustCompile(`\b[A-Za-z0-9.-]+\.[A-Za-z]{2,}(?:/[^\s]*)?`)
	labeledNameRe = regexp.MustCompile(`(?i)\b(?:name|nome)\s*[:\-]\s*([A-Z][a-z]+)`)
	labeledSurnRe = regexp.MustCompile(`(?i)\b(?:surname|cognome)\s*[:\-]\s*([A-Z][a-z]+)`)
	namePairRe    = regexp.MustCompile(`\b([A-Z][a-z]+)\s+([A-Z][a-z]+)\b`)
)

// PeopleFinder returns person names found by a named-entity recognizer.
type PeopleFinder interface {
	People(text string) ([]string, error)
}

// Extractor derives personal info from normalized CV text.
type Extractor struct {
	people PeopleFinder
}

// NewExtractor returns an extractor. people may be nil, in which case the
// named-entity fallback for names is skipped.
func NewExtractor(people PeopleFinder) *Extractor {
	return &Extractor{people: people}
}

// Extract runs every field pass over text. Missing fields stay empty.
func (e *Extractor) Extract(text string, cfg *locale.Config) PersonalInfo {
	emails := Emails(text)
	info := PersonalInfo{
		Emails:       emails,
		PhoneNumbers: Phones(text),
		Websites:     Websites(text),
	}

	info.FirstName, info.LastName = e.names(text)

	if cfg != nil {
		info.Address = Address(text, cfg.AddressKeywords)
		info.LanguageSkills = LanguageSkills(text, cfg.LanguagesList)
		info.Certifications = Certifications(text, cfg.CertKeywords)
	}

	return info
}

// Emails returns the distinct email addresses in text in first-seen order.
func Emails(text string) []string {
	return unique(emailRe.FindAllString(text, -1))
}

// Phones returns the distinct phone numbers in text in first-seen order.
func Phones(text string) []string {
	return unique(phoneRe.FindAllString(text, -1))
}

// Websites returns scheme or www prefixed URLs and bare domains. Anything that
// overlaps an email address or contains '@' is skipped.
func Websites(text string) []string {
	emailSpans := emailRe.FindAllStringIndex(text, -1)
	schemeSpans := schemeSiteRe.FindAllStringIndex(text, -1)

	seen := map[string]struct{}{}
	var sites []string

	for _, span := range schemeSpans {
		site := text[span[0]:span[1]]
		if strings.Contains(site, "@") || overlaps(span, emailSpans) {
			continue
		}
		sites = dedupe(sites, seen, site)
	}

	for _, span := range bareSiteRe.FindAllStringIndex(text, -1) {
		site := text[span[0]:span[1]]
		if strings.Contains(site, "@") || overlaps(span, emailSpans) || overlaps(span, schemeSpans) {
			continue
		}
		if span[0] > 0 && text[span[0]-1] == '@' {
			continue
		}
		sites = dedupe(sites, seen, site)
	}

	return sites
}

func overlaps(span []int, others [][]int) bool {
	for _, other := range others {
		if span[0] < other[1] && other[0] < span[1] {
			return true
		}
	}
	return false
}

func (e *Extractor) names(text string) (string, string) {
	var first, last string
	if m := labeledNameRe.FindStringSubmatch(text); m != nil {
		first = m[1]
	}
	if m := labeledSurnRe.FindStringSubmatch(text); m != nil {
		last = m[1]
	}
	if first != "" && last != "" {
		return first, last
	}

	if m := namePairRe.FindStringSubmatch(text); m != nil {
		return m[1], m[2]
	}

	if e.people == nil {
		return first, last
	}
	people, err := e.people.People(text)
	if err != nil || len(people) == 0 {
		return first, last
	}

	parts := strings.Fields(people[0])
	switch len(parts) {
	case 0:
		return first, last
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[1]
	}
}

// LanguageSkills returns every configured language name that appears in text
// as a whole word, capitalized, in config order.
func LanguageSkills(text string, languages []string) []string {
	seen := map[string]struct{}{}
	var found []string
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(lang) + `\b`)
		if re.MatchString(text) {
			found = dedupe(found, seen, capitalize(lang))
		}
	}
	return found
}

// Certifications returns the trimmed lines that contain any keyword,
// compared case-insensitively.
func Certifications(text string, keywords []string) []string {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}

	seen := map[string]struct{}{}
	var certs []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, kw := range lowered {
			if strings.Contains(lower, kw) {
				certs = dedupe(certs, seen, strings.TrimSpace(line))
				break
			}
		}
	}
	return certs
}

func unique(values []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range values {
		out = dedupe(out, seen, v)
	}
	return out
}
