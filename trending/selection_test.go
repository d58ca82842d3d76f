package trending

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
	"github.com/stretchr/testify/assert"
)

func TestNewSelection_DropsDuplicates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := NewSelection(a, b, a)
	assert.Equal(t, []uuid.UUID{a, b}, s.IDs())
}

func TestFromProducts_SortsByStoredOrder(t *testing.T) {
	a := trendingProduct("A", 2)
	b := trendingProduct("B", 0)
	c := product("C")
	d := trendingProduct("D", 1)

	s := FromProducts([]models.Product{a, b, c, d})
	if diff := cmp.Diff([]uuid.UUID{b.ID, d.ID, a.ID}, s.IDs()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestToggle_AppendsAndRemovesInPlace(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	s := NewSelection(a, b, c)

	assert.True(t, s.Toggle(d))
	assert.Equal(t, []uuid.UUID{a, b, c, d}, s.IDs())

	assert.False(t, s.Toggle(b))
	assert.Equal(t, []uuid.UUID{a, c, d}, s.IDs())
}

func TestMove_EdgesAreNoOps(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	s := NewSelection(a, b, c)
	before := s.IDs()

	assert.False(t, s.MoveUp(0))
	assert.False(t, s.MoveDown(2))
	assert.False(t, s.MoveUp(3))
	assert.False(t, s.MoveDown(-1))
	assert.Equal(t, before, s.IDs())

	empty := NewSelection()
	assert.False(t, empty.MoveUp(0))
	assert.False(t, empty.MoveDown(0))
}

func TestMove_SwapTwiceRestores(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	for i := 0; i < len(ids)-1; i++ {
		s := NewSelection(ids...)
		assert.True(t, s.MoveDown(i))
		assert.NotEqual(t, ids, s.IDs())
		assert.True(t, s.MoveDown(i))
		assert.Equal(t, ids, s.IDs(), "swap(%d,%d) twice", i, i+1)

		assert.True(t, s.MoveUp(i+1))
		assert.True(t, s.MoveDown(i))
		assert.Equal(t, ids, s.IDs())
	}
}

func TestSplit_FilterOnlyNarrowsAvailable(t *testing.T) {
	cat := &models.Category{Name: "Hoodies"}
	tee := product("Classic Tee")
	hoodie := product("Zip Up")
	hoodie.Category = cat
	polo := trendingProduct("Polo", 0)

	products := []models.Product{tee, hoodie, polo}
	sel := FromProducts(products)

	selected, available := Split(products, sel, "hood")
	assert.Equal(t, []models.Product{polo}, selected)
	assert.Equal(t, []models.Product{hoodie}, available)

	_, available = Split(products, sel, "TEE")
	assert.Equal(t, []models.Product{tee}, available)
}

func TestSplit_SkipsUnknownSelectedIDs(t *testing.T) {
	p := product("A")
	selected, available := Split([]models.Product{p}, NewSelection(uuid.New()), "")
	assert.Empty(t, selected)
	assert.Len(t, available, 1)
}

// Random toggle/move sequences never break the partition: the two sides
// are disjoint and together hold every product exactly once.
func TestSplit_PartitionHoldsUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	products := make([]models.Product, 12)
	for i := range products {
		products[i] = product(string(rune('A' + i)))
	}
	sel := NewSelection()

	for step := 0; step < 500; step++ {
		switch rng.Intn(3) {
		case 0:
			sel.Toggle(products[rng.Intn(len(products))].ID)
		case 1:
			sel.MoveUp(rng.Intn(len(products) + 1))
		case 2:
			sel.MoveDown(rng.Intn(len(products) + 1))
		}

		selected, available := Split(products, sel, "")
		seen := make(map[uuid.UUID]int)
		for _, p := range selected {
			seen[p.ID]++
		}
		for _, p := range available {
			seen[p.ID]++
		}
		if !assert.Len(t, seen, len(products), "step %d", step) {
			return
		}
		for id, n := range seen {
			if n != 1 {
				t.Fatalf("step %d: product %s appears %d times", step, id, n)
			}
		}
	}
}
