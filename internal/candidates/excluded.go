package candidates

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Excluded is the content of an exclude file.
type Excluded struct {
	Items []*ExcludedCandidate
}

// ExcludedCandidate records why and when a candidate was excluded.
type ExcludedCandidate struct {
	ID         int
	Position   string
	Reason     string
	ExcludedAt time.Time
}

// NewExcluded builds exclusion entries for candidates rejected with reasons,
// keyed by candidate id.
func NewExcluded(scored *Scored, reasons map[int]string) *Excluded {
	excluded := &Excluded{}
	now := time.Now().UTC()
	for _, item := range scored.Items {
		reason, ok := reasons[item.ID]
		if !ok {
			continue
		}
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			ID:         item.ID,
			Position:   item.Candidate.Position(),
			Reason:     reason,
			ExcludedAt: now,
		})
	}
	return excluded
}

// LoadExcluded reads an exclude file. A missing or empty file is an empty list.
func LoadExcluded(path string) (*Excluded, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Excluded{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Excluded{}, nil
	}

	var excluded Excluded
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries whose id is not already present.
func (e *Excluded) Append(other *Excluded) {
	seen := make(map[int]struct{}, len(e.Items))
	for _, item := range e.Items {
		seen[item.ID] = struct{}{}
	}
	for _, item := range other.Items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

// IDs returns the excluded candidate ids.
func (e *Excluded) IDs() []int {
	ids := make([]int, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// ToFile overwrites path with the list.
func (e *Excluded) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// AppendToFile merges entries into the exclude file at path.
func AppendToFile(path string, entries *Excluded) error {
	current, err := LoadExcluded(path)
	if err != nil {
		return err
	}
	current.Append(entries)
	return current.ToFile(path)
}
