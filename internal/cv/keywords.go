package cv

import (
	"sort"
	"strings"

	"github.com/spigell/talent-suite/internal/nlp"
)

// TopKeywords is how many keywords a profile keeps.
const TopKeywords = 20

// Keywords counts the lowercase alphabetic tokens that are not stop words and
// returns the n most frequent. Ties keep first-occurrence order.
func Keywords(tokens []string, stopWords map[string]struct{}, n int) []Keyword {
	counts := map[string]int{}
	var order []string

	for _, tok := range tokens {
		word := strings.ToLower(tok)
		if !nlp.IsAlpha(word) {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, ok := counts[word]; !ok {
			order = append(order, word)
		}
		counts[word]++
	}

	keywords := make([]Keyword, 0, len(order))
	for _, word := range order {
		keywords = append(keywords, Keyword{Word: word, Count: counts[word]})
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Count > keywords[j].Count
	})

	if n > 0 && len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}
