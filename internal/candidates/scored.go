package candidates

// Affinity is a candidate with its cosine score against the offer.
type Affinity struct {
	ID        int        `json:"id"`
	Score     float64    `json:"score"`
	Candidate *Candidate `json:"-"`
}

// Scored is an ordered list of scored candidates.
type Scored struct {
	Items []*Affinity
}

// Len returns the number of items.
func (s *Scored) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// IDs returns the candidate ids in order.
func (s *Scored) IDs() []int {
	ids := make([]int, 0, s.Len())
	for _, item := range s.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// FindByID returns the item with the given id or nil.
func (s *Scored) FindByID(id int) *Affinity {
	for _, item := range s.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// Keep retains the items for which keep returns true, preserving order, and
// returns the dropped ids.
func (s *Scored) Keep(keep func(*Affinity) bool) []int {
	var dropped []int
	kept := s.Items[:0]
	for _, item := range s.Items {
		if keep(item) {
			kept = append(kept, item)
			continue
		}
		dropped = append(dropped, item.ID)
	}
	for i := len(kept); i < len(s.Items); i++ {
		s.Items[i] = nil
	}
	s.Items = kept
	return dropped
}

// Exclude removes the items whose id is in ids and returns the removed ids.
func (s *Scored) Exclude(ids []int) []int {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return s.Keep(func(a *Affinity) bool {
		_, found := set[a.ID]
		return !found
	})
}

// Clone returns a shallow copy that can be filtered independently.
func (s *Scored) Clone() *Scored {
	if s == nil {
		return &Scored{}
	}
	items := make([]*Affinity, len(s.Items))
	copy(items, s.Items)
	return &Scored{Items: items}
}
