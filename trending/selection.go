package trending

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
)

// Selection is the ordered, duplicate-free list of products the operator
// wants featured. Position i is persisted as trending_order i.
type Selection struct {
	ids []uuid.UUID
}

// NewSelection builds a selection from ids, dropping repeats after the first.
func NewSelection(ids ...uuid.UUID) *Selection {
	s := &Selection{ids: make([]uuid.UUID, 0, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// FromProducts derives the persisted selection: flagged products ordered by
// trending_order. Ties keep the input order.
func FromProducts(products []models.Product) *Selection {
	flagged := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.IsTrending {
			flagged = append(flagged, p)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].TrendingOrder < flagged[j].TrendingOrder
	})

	s := &Selection{ids: make([]uuid.UUID, 0, len(flagged))}
	for _, p := range flagged {
		s.Add(p.ID)
	}
	return s
}

func (s *Selection) Len() int { return len(s.ids) }

// IDs returns a copy of the ordered ids.
func (s *Selection) IDs() []uuid.UUID {
	out := make([]uuid.UUID, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Selection) IndexOf(id uuid.UUID) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

func (s *Selection) Contains(id uuid.UUID) bool {
	return s.IndexOf(id) >= 0
}

// Add appends id to the end. It reports false when id is already selected.
func (s *Selection) Add(id uuid.UUID) bool {
	if s.Contains(id) {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// Remove drops id and keeps the relative order of the rest.
func (s *Selection) Remove(id uuid.UUID) bool {
	i := s.IndexOf(id)
	if i < 0 {
		return false
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	return true
}

// Toggle adds id when absent and removes it when present. It returns the
// resulting membership.
func (s *Selection) Toggle(id uuid.UUID) bool {
	if s.Remove(id) {
		return false
	}
	s.Add(id)
	return true
}

// MoveUp swaps position i with i-1. Index 0 and out-of-range indexes are
// no-ops and return false.
func (s *Selection) MoveUp(i int) bool {
	if i <= 0 || i >= len(s.ids) {
		return false
	}
	s.ids[i-1], s.ids[i] = s.ids[i], s.ids[i-1]
	return true
}

// MoveDown swaps position i with i+1. The last index and out-of-range
// indexes are no-ops and return false.
func (s *Selection) MoveDown(i int) bool {
	if i < 0 || i >= len(s.ids)-1 {
		return false
	}
	s.ids[i], s.ids[i+1] = s.ids[i+1], s.ids[i]
	return true
}

// Split partitions products into the selected list, in selection order, and
// the available remainder. filter is a case-insensitive substring matched
// against product and category names and only narrows the available side.
// Selected ids with no matching product are skipped.
func Split(products []models.Product, sel *Selection, filter string) (selected, available []models.Product) {
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	selected = make([]models.Product, 0, sel.Len())
	for _, id := range sel.ids {
		if p, ok := byID[id]; ok {
			selected = append(selected, p)
		}
	}

	needle := strings.ToLower(strings.TrimSpace(filter))
	available = make([]models.Product, 0, len(products))
	for _, p := range products {
		if sel.Contains(p.ID) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.CategoryName()), needle) {
			continue
		}
		available = append(available, p)
	}
	return selected, available
}
