package candidates

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/talent-suite/internal/experience"
)

// UnknownPosition is shown to the model when a candidate has no position.
const UnknownPosition = "N/D"

// Candidate is one record of the candidates dataset.
type Candidate struct {
	ID                    int                    `json:"id"`
	Name                  string                 `json:"name,omitempty"`
	CurrentPosition       string                 `json:"current_position,omitempty"`
	Experience            json.RawMessage        `json:"experience,omitempty"`
	NormalizedExperiences []NormalizedExperience `json:"normalized_experiences,omitempty"`
}

// NormalizedExperience is the output of the upstream enrichment step.
type NormalizedExperience struct {
	LLMEnrichedText string `json:"llm_enriched_text"`
}

// EnrichedText is the text used for similarity and evaluation: the first
// normalized experience when present, the aggregated raw experience
// otherwise.
func (c *Candidate) EnrichedText() string {
	if c == nil {
		return ""
	}
	if len(c.NormalizedExperiences) > 0 {
		return c.NormalizedExperiences[0].LLMEnrichedText
	}
	if len(c.Experience) == 0 {
		return ""
	}
	return experience.Aggregate(experience.Parse(c.Experience))
}

// ExperienceText is the aggregated raw experience.
func (c *Candidate) ExperienceText() string {
	if c == nil || len(c.Experience) == 0 {
		return ""
	}
	return experience.Aggregate(experience.Parse(c.Experience))
}

// Position returns the current position or UnknownPosition.
func (c *Candidate) Position() string {
	if c == nil || strings.TrimSpace(c.CurrentPosition) == "" {
		return UnknownPosition
	}
	return c.CurrentPosition
}

// Load reads a JSON array of candidates.
func Load(path string) ([]*Candidate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var list []*Candidate
	if err := json.NewDecoder(file).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding candidates from %s: %w", path, err)
	}

	seen := make(map[int]struct{}, len(list))
	for i, c := range list {
		if c == nil {
			return nil, fmt.Errorf("candidate %d is null", i)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("duplicate candidate id %d", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return list, nil
}
