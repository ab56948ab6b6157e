package nlp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// Prose tokenizes text and finds person entities with jdkato/prose.
type Prose struct{}

// NewProse returns a prose backed analyzer.
func NewProse() *Prose {
	return &Prose{}
}

// Tokens returns the word tokens of text in document order.
func (p *Prose) Tokens(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("tokenizing text: %w", err)
	}

	tokens := doc.Tokens()
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Text)
	}
	return out, nil
}

// People returns the text of every PERSON entity in document order.
func (p *Prose) People(text string) ([]string, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("extracting entities: %w", err)
	}

	var people []string
	for _, ent := range doc.Entities() {
		if ent.Label != "PERSON" && ent.Label != "PER" {
			continue
		}
		if name := strings.TrimSpace(ent.Text); name != "" {
			people = append(people, name)
		}
	}
	return people, nil
}

// IsAlpha reports whether s is non-empty and made of letters only.
func IsAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
