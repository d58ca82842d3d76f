package trending

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
)

var errNetwork = errors.New("network error")

// memStore is an in-memory Store that can be told to fail.
type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product

	setCalls     int
	failSetOn    int // 1-based call number that fails, 0 = never
	failClear    error
	failList     error
	failListOnce bool
	replaced     [][]uuid.UUID
}

func newMemStore(products ...models.Product) *memStore {
	s := &memStore{products: make(map[uuid.UUID]*models.Product)}
	for i := range products {
		p := products[i]
		s.products[p.ID] = &p
	}
	return s
}

func (s *memStore) ListProductsByName(context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		err := s.failList
		if s.failListOnce {
			s.failList = nil
		}
		return nil, err
	}
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) ClearTrending(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failClear != nil {
		return s.failClear
	}
	for _, p := range s.products {
		if p.IsTrending {
			p.IsTrending = false
			p.TrendingOrder = 0
		}
	}
	return nil
}

func (s *memStore) SetTrending(_ context.Context, id uuid.UUID, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	if s.failSetOn > 0 && s.setCalls == s.failSetOn {
		return errNetwork
	}
	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("product %s not found", id)
	}
	p.IsTrending = true
	p.TrendingOrder = order
	return nil
}

func (s *memStore) get(id uuid.UUID) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.products[id]
}

// atomicMemStore adds ReplaceTrending with all-or-nothing semantics.
type atomicMemStore struct {
	*memStore
	failReplace error
}

func (s *atomicMemStore) ReplaceTrending(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced = append(s.replaced, ids)
	if s.failReplace != nil {
		return s.failReplace
	}
	for _, p := range s.products {
		p.IsTrending = false
		p.TrendingOrder = 0
	}
	for i, id := range ids {
		s.products[id].IsTrending = true
		s.products[id].TrendingOrder = i
	}
	return nil
}

func product(name string) models.Product {
	return models.Product{ID: uuid.New(), Name: name}
}

func trendingProduct(name string, order int) models.Product {
	p := product(name)
	p.IsTrending = true
	p.TrendingOrder = order
	return p
}
