package cv

import (
	"regexp"
	"strings"

	"github.com/spigell/talent-suite/internal/locale"
)

// GeneralSection collects lines that appear before any recognised header.
const GeneralSection = "general"

var hyphenBreakRe = regexp.MustCompile(`([\p{L}\p{N}_]+)-\s*\n\s*([\p{L}\p{N}_]+)`)

type headerMatcher struct {
	name string
	re   *regexp.Regexp
}

// Segment splits text into sections using the locale header labels. A header
// is a whole line made of one label, optionally followed by a colon.
func Segment(text string, headers locale.HeaderKeywords) Sections {
	text = hyphenBreakRe.ReplaceAllString(text, "${1}${2}")

	matchers := make([]headerMatcher, 0, len(headers))
	for _, section := range headers {
		quoted := make([]string, 0, len(section.Labels))
		for _, label := range section.Labels {
			quoted = append(quoted, regexp.QuoteMeta(label))
		}
		if len(quoted) == 0 {
			continue
		}
		matchers = append(matchers, headerMatcher{
			name: section.Name,
			re:   regexp.MustCompile(`(?i)^(?:` + strings.Join(quoted, "|") + `)\s*:?\s*$`),
		})
	}

	order := []string{GeneralSection}
	content := map[string][]string{GeneralSection: nil}
	current := GeneralSection

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if name, ok := matchHeader(matchers, line); ok {
			current = name
			if _, exists := content[current]; !exists {
				content[current] = nil
				order = append(order, current)
			}
			continue
		}

		content[current] = append(content[current], line)
	}

	sections := make(Sections, 0, len(order))
	for _, name := range order {
		sections = append(sections, SectionText{Name: name, Content: strings.Join(content[name], " ")})
	}
	return sections
}

func matchHeader(matchers []headerMatcher, line string) (string, bool) {
	for _, m := range matchers {
		if m.re.MatchString(line) {
			return m.name, true
		}
	}
	return "", false
}
