package cv

import (
	"bytes"
	"encoding/json"
)

// Profile is the structured view of one CV.
type Profile struct {
	ID           string       `json:"id"`
	Language     string       `json:"language"`
	PersonalInfo PersonalInfo `json:"personal_info"`
	Sections     Sections     `json:"sections"`
	Keywords     []Keyword    `json:"keywords"`
}

// PersonalInfo holds the contact and identity fields found in a CV. List
// fields never contain duplicates.
type PersonalInfo struct {
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Emails         []string `json:"emails"`
	PhoneNumbers   []string `json:"phone_numbers"`
	Websites       []string `json:"websites"`
	Address        string   `json:"address"`
	LanguageSkills []string `json:"language_skills"`
	Certifications []string `json:"certifications"`
}

// Keyword is a token and the number of times it occurs.
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// SectionText is the flattened content of one CV section.
type SectionText struct {
	Name    string
	Content string
}

// Sections lists CV sections in order of first appearance.
type Sections []SectionText

// Get returns the content of the named section.
func (s Sections) Get(name string) (string, bool) {
	for _, section := range s {
		if section.Name == name {
			return section.Content, true
		}
	}
	return "", false
}

// MarshalJSON encodes the sections as a JSON object, keeping their order.
func (s Sections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, section := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(section.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(section.Content)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// dedupe appends value to list unless it is already there.
func dedupe(list []string, seen map[string]struct{}, value string) []string {
	if _, ok := seen[value]; ok {
		return list
	}
	seen[value] = struct{}{}
	return append(list, value)
}
