package locale

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Supported locale codes.
const (
	Italian = "it"
	English = "en"

	// Default is used whenever a document language cannot be decided.
	Default = English
)

// Supported returns the closed set of locale codes with a built-in config.
func Supported() []string {
	return []string{Italian, English}
}

// IsSupported reports whether code is one of the built-in locales.
func IsSupported(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	return code == Italian || code == English
}

// Config holds the keyword lists that drive CV field extraction for a locale.
type Config struct {
	Code            string         `json:"-"`
	AddressKeywords []string       `json:"address_keywords" validate:"required,min=1,dive,required"`
	LanguagesList   []string       `json:"languages_list" validate:"required,min=1,dive,required"`
	CertKeywords    []string       `json:"cert_keywords" validate:"required,min=1,dive,required"`
	HeaderKeywords  HeaderKeywords `json:"header_keywords" validate:"required,min=1,dive"`
}

// Section maps a canonical section name to the header labels that open it.
type Section struct {
	Name   string   `validate:"required"`
	Labels []string `validate:"required,min=1,dive,required"`
}

// HeaderKeywords keeps the sections in the order they appear in the config
// file, so header matching is deterministic.
type HeaderKeywords []Section

// UnmarshalJSON decodes a JSON object into an ordered section list.
func (h *HeaderKeywords) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("header_keywords: expected object, got %v", tok)
	}

	var sections HeaderKeywords
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("header_keywords: expected key, got %v", tok)
		}

		var labels []string
		if err := dec.Decode(&labels); err != nil {
			return fmt.Errorf("header_keywords.%s: %w", name, err)
		}
		sections = append(sections, Section{Name: name, Labels: labels})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*h = sections
	return nil
}

// Names returns the canonical section names in config order.
func (h HeaderKeywords) Names() []string {
	names := make([]string, 0, len(h))
	for _, section := range h {
		names = append(names, section.Name)
	}
	return names
}
