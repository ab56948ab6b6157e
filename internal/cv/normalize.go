package cv

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minSpacedLetters is the shortest letter-spaced run that gets joined.
const minSpacedLetters = 3

// Normalize joins letter-spaced runs ("R O S S I" -> "ROSSI") and then turns
// every all-caps word into its capitalized form ("ATTIVITÀ" -> "Attività").
// Word boundaries are Unicode aware, so accented capitals belong to the word.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	return capitalizeUpperWords(joinSpacedLetters(text))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// standaloneUpper reports whether runes[i] is a capital letter with no word
// rune on either side.
func standaloneUpper(runes []rune, i int) bool {
	if !unicode.IsUpper(runes[i]) {
		return false
	}
	if i > 0 && isWordRune(runes[i-1]) {
		return false
	}
	return i+1 == len(runes) || !isWordRune(runes[i+1])
}

func joinSpacedLetters(text string) string {
	runes := []rune(text)

	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(runes); {
		if !standaloneUpper(runes, i) {
			b.WriteRune(runes[i])
			i++
			continue
		}

		letters := []rune{runes[i]}
		end := i + 1
		for {
			k := end
			for k < len(runes) && unicode.IsSpace(runes[k]) {
				k++
			}
			if k == end || k == len(runes) || !standaloneUpper(runes, k) {
				break
			}
			letters = append(letters, runes[k])
			end = k + 1
		}

		if len(letters) >= minSpacedLetters {
			b.WriteString(string(letters))
		} else {
			b.WriteString(string(runes[i:end]))
		}
		i = end
	}
	return b.String()
}

func capitalizeUpperWords(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	start := -1
	flush := func(end int) {
		word := text[start:end]
		if utf8.RuneCountInString(word) >= 2 && allUpper(word) {
			word = capitalize(word)
		}
		b.WriteString(word)
		start = -1
	}

	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			flush(i)
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		flush(len(text))
	}
	return b.String()
}

func allUpper(word string) bool {
	for _, r := range word {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
