package nlp

import (
	"bufio"
	"bytes"
	"embed"
	"strings"
	"sync"
)

//go:embed stopwords/*.txt
var stopwordFiles embed.FS

var (
	stopwordsMu    sync.Mutex
	stopwordsCache = map[string]map[string]struct{}{}
)

// StopWords returns the lowercase stop-word set for a locale code. Unknown
// codes get an empty set.
func StopWords(code string) map[string]struct{} {
	code = strings.ToLower(strings.TrimSpace(code))

	stopwordsMu.Lock()
	defer stopwordsMu.Unlock()

	if set, ok := stopwordsCache[code]; ok {
		return set
	}

	set := map[string]struct{}{}
	data, err := stopwordFiles.ReadFile("stopwords/" + code + ".txt")
	if err == nil {
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			word := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if word != "" {
				set[word] = struct{}{}
			}
		}
	}

	stopwordsCache[code] = set
	return set
}

// IsStopWord reports whether word is a stop word for the locale.
func IsStopWord(code, word string) bool {
	_, ok := StopWords(code)[strings.ToLower(word)]
	return ok
}
