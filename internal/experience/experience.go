package experience

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Placeholder fills company, location and title when they are missing.
const Placeholder = "N/A"

// Record is one role held by a candidate.
type Record struct {
	Company     string `json:"company"`
	Location    string `json:"location"`
	Title       string `json:"title"`
	Duration    string `json:"duration_short"`
	Description string `json:"description"`
}

// Text joins the five fields with single spaces.
func (r Record) Text() string {
	return strings.Join([]string{r.Company, r.Location, r.Title, r.Duration, r.Description}, " ")
}

type block struct {
	Company     *string `mapstructure:"company"`
	Location    *string `mapstructure:"location"`
	Title       *string `mapstructure:"title"`
	Duration    *string `mapstructure:"duration_short"`
	Description *string `mapstructure:"description"`
	Positions   any     `mapstructure:"positions"`
}

// Parse is ParseStrict without the error: malformed input yields an empty
// slice.
func Parse(raw any) []Record {
	records, err := ParseStrict(raw)
	if err != nil {
		return []Record{}
	}
	return records
}

// ParseStrict flattens a list of employer blocks into records. raw may be a
// JSON string, []byte, json.RawMessage or an already decoded list. A block
// with a "positions" list yields one record per position, inheriting company
// and location.
func ParseStrict(raw any) ([]Record, error) {
	items, err := toList(raw)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		var b block
		if err := decode(item, &b); err != nil {
			return nil, &ParseError{Index: i, Err: err}
		}

		company := orDefault(b.Company, Placeholder)
		location := orDefault(b.Location, Placeholder)

		positions, ok := b.Positions.([]any)
		if !ok {
			records = append(records, Record{
				Company:     company,
				Location:    location,
				Title:       orDefault(b.Title, Placeholder),
				Duration:    orDefault(b.Duration, ""),
				Description: orDefault(b.Description, ""),
			})
			continue
		}

		for j, pos := range positions {
			var sub block
			if err := decode(pos, &sub); err != nil {
				return nil, &ParseError{Index: i, Position: j + 1, Err: err}
			}
			records = append(records, Record{
				Company:     company,
				Location:    location,
				Title:       orDefault(sub.Title, Placeholder),
				Duration:    orDefault(sub.Duration, ""),
				Description: orDefault(sub.Description, ""),
			})
		}
	}

	return records, nil
}

// Aggregate builds the text embedded for a candidate: each record's fields
// space-joined, records joined by " | ".
func Aggregate(records []Record) string {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, r.Text())
	}
	return strings.Join(parts, " | ")
}

func toList(raw any) ([]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, &ParseError{Index: -1, Err: fmt.Errorf("no experience data")}
	case string:
		return unmarshalList([]byte(v))
	case []byte:
		return unmarshalList(v)
	case json.RawMessage:
		return unmarshalList(v)
	case []any:
		return v, nil
	case []map[string]any:
		out := make([]any, 0, len(v))
		for _, m := range v {
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, &ParseError{Index: -1, Err: fmt.Errorf("unsupported experience type %T", raw)}
	}
}

func unmarshalList(data []byte) ([]any, error) {
	var list []any
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &ParseError{Index: -1, Err: err}
	}
	return list, nil
}

func decode(input any, out *block) error {
	if _, ok := input.(map[string]any); !ok {
		return fmt.Errorf("expected object, got %T", input)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func orDefault(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
