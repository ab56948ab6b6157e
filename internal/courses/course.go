package courses

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/talent-suite/internal/schemas"
)

// Course is one entry of the training catalog.
type Course struct {
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Provider      string   `json:"provider,omitempty"`
	Level         string   `json:"level,omitempty"`
	DurationHours float64  `json:"duration_hours,omitempty"`
	URL           string   `json:"url"`
	Skills        []string `json:"skills,omitempty"`
}

// Text is what gets embedded for retrieval.
func (c Course) Text() string {
	parts := []string{c.Title, c.Description}
	if len(c.Skills) > 0 {
		parts = append(parts, strings.Join(c.Skills, ", "))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// Key identifies the course in the index: the id when set, the URL otherwise.
func (c Course) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.URL
}

// LoadCatalog reads and validates a JSON course catalog.
func LoadCatalog(path string) ([]Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog validates data against the catalog schema and decodes it.
func ParseCatalog(data []byte) ([]Course, error) {
	if err := schemas.ValidateJSONString(schemas.CourseCatalog, string(data)); err != nil {
		return nil, fmt.Errorf("course catalog: %w", err)
	}

	var catalog []Course
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decode course catalog: %w", err)
	}
	return catalog, nil
}
