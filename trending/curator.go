package trending

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
	"go.uber.org/zap"
)

// Store is the persistence the workflow needs.
type Store interface {
	// ListProductsByName returns every product ordered by name.
	ListProductsByName(ctx context.Context) ([]models.Product, error)
	// ClearTrending sets is_trending=false, trending_order=0 on every
	// product where is_trending is true.
	ClearTrending(ctx context.Context) error
	// SetTrending sets is_trending=true, trending_order=order on one product.
	SetTrending(ctx context.Context, id uuid.UUID, order int) error
}

// AtomicStore can replace the whole trending set in one transaction.
type AtomicStore interface {
	Store
	ReplaceTrending(ctx context.Context, ids []uuid.UUID) error
}

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSaving  State = "saving"
	StateError   State = "error"
)

var (
	ErrUnknownProduct   = errors.New("unknown product")
	ErrDuplicateProduct = errors.New("duplicate product")
)

type Phase string

const (
	PhaseClear  Phase = "clear"
	PhaseSet    Phase = "set"
	PhaseAtomic Phase = "replace"
)

// SaveError reports where a save stopped. For PhaseSet, Index is the
// position whose update failed; positions before it were written.
type SaveError struct {
	Phase     Phase
	Index     int
	ProductID uuid.UUID
	Err       error
}

func (e *SaveError) Error() string {
	switch e.Phase {
	case PhaseSet:
		return fmt.Sprintf("trending save: set product %s at position %d: %v", e.ProductID, e.Index, e.Err)
	case PhaseAtomic:
		return fmt.Sprintf("trending save: replace: %v", e.Err)
	default:
		return fmt.Sprintf("trending save: clear flags: %v", e.Err)
	}
}

func (e *SaveError) Unwrap() error { return e.Err }

// Written is the number of phase-2 updates that succeeded before the error.
func (e *SaveError) Written() int {
	if e.Phase == PhaseSet {
		return e.Index
	}
	return 0
}

// SaveHook runs after every save attempt, once the re-fetch is done.
type SaveHook func(ctx context.Context, ids []uuid.UUID, err error, took time.Duration)

type Option func(*Curator)

func WithLogger(l *zap.Logger) Option {
	return func(c *Curator) { c.logger = l }
}

// WithAtomicSave uses AtomicStore.ReplaceTrending when the store has it.
func WithAtomicSave(enabled bool) Option {
	return func(c *Curator) { c.atomic = enabled }
}

func WithSaveHook(h SaveHook) Option {
	return func(c *Curator) { c.hooks = append(c.hooks, h) }
}

// Curator holds one curation session: the full product list, the
// in-memory selection and the workflow state. Methods are safe for
// concurrent use. Saves are not serialized against each other.
type Curator struct {
	store  Store
	logger *zap.Logger
	atomic bool
	hooks  []SaveHook

	mu       sync.Mutex
	products []models.Product
	sel      *Selection
	state    State
	lastErr  error
	loadedAt time.Time
}

func NewCurator(store Store, opts ...Option) *Curator {
	c := &Curator{
		store:  store,
		logger: zap.NewNop(),
		sel:    NewSelection(),
		state:  StateIdle,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load fetches every product and rebuilds the selection from the stored
// flags. On failure the previous session data is kept.
func (c *Curator) Load(ctx context.Context) error {
	c.setState(StateLoading, nil)

	products, err := c.store.ListProductsByName(ctx)
	if err != nil {
		err = fmt.Errorf("load products: %w", err)
		c.setState(StateError, err)
		c.logger.Error("trending load failed", zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.reset(products)
	c.state = StateIdle
	c.lastErr = nil
	c.mu.Unlock()
	return nil
}

func (c *Curator) reset(products []models.Product) {
	c.products = products
	c.sel = FromProducts(products)
	c.loadedAt = time.Now()
}

// Loaded reports whether Load has succeeded at least once.
func (c *Curator) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.loadedAt.IsZero()
}

// Toggle moves a product between available and trending. It returns the
// new membership.
func (c *Curator) Toggle(id uuid.UUID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.known(id) {
		return false, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return c.sel.Toggle(id), nil
}

func (c *Curator) MoveUp(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.MoveUp(i)
}

func (c *Curator) MoveDown(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.MoveDown(i)
}

// SetOrder replaces the selection with ids. Every id must be a loaded
// product and appear once.
func (c *Curator) SetOrder(ids []uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if !c.known(id) {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, id)
		}
		seen[id] = struct{}{}
	}
	c.sel = NewSelection(ids...)
	return nil
}

func (c *Curator) known(id uuid.UUID) bool {
	for i := range c.products {
		if c.products[i].ID == id {
			return true
		}
	}
	return false
}

// Save persists the current selection and then re-fetches the product list,
// whether or not the write succeeded. The returned error is the write error
// (a *SaveError) when there is one, otherwise the re-fetch error.
func (c *Curator) Save(ctx context.Context) error {
	c.mu.Lock()
	ids := c.sel.IDs()
	c.state = StateSaving
	c.lastErr = nil
	c.mu.Unlock()

	start := time.Now()
	writeErr := c.write(ctx, ids)

	products, fetchErr := c.store.ListProductsByName(ctx)
	if fetchErr != nil {
		fetchErr = fmt.Errorf("reload products: %w", fetchErr)
	}

	c.mu.Lock()
	if fetchErr == nil {
		c.reset(products)
	}
	result := writeErr
	if result == nil {
		result = fetchErr
	}
	if result != nil {
		c.state = StateError
		c.lastErr = result
	} else {
		c.state = StateIdle
	}
	c.mu.Unlock()

	took := time.Since(start)
	if writeErr != nil {
		fields := []zap.Field{zap.Error(writeErr), zap.Int("requested", len(ids)), zap.Duration("took", took)}
		var se *SaveError
		if errors.As(writeErr, &se) {
			fields = append(fields, zap.String("phase", string(se.Phase)), zap.Int("written", se.Written()))
		}
		c.logger.Error("trending save failed", fields...)
	} else {
		c.logger.Info("trending saved", zap.Int("count", len(ids)), zap.Duration("took", took))
	}
	if fetchErr != nil {
		c.logger.Error("trending reload after save failed", zap.Error(fetchErr))
	}

	for _, h := range c.hooks {
		h(ctx, ids, writeErr, took)
	}
	return result
}

func (c *Curator) write(ctx context.Context, ids []uuid.UUID) error {
	if c.atomic {
		if as, ok := c.store.(AtomicStore); ok {
			if err := as.ReplaceTrending(ctx, ids); err != nil {
				return &SaveError{Phase: PhaseAtomic, Index: -1, Err: err}
			}
			return nil
		}
	}

	if err := c.store.ClearTrending(ctx); err != nil {
		return &SaveError{Phase: PhaseClear, Index: -1, Err: err}
	}
	for i, id := range ids {
		if err := c.store.SetTrending(ctx, id, i); err != nil {
			return &SaveError{Phase: PhaseSet, Index: i, ProductID: id, Err: err}
		}
	}
	return nil
}

func (c *Curator) setState(s State, err error) {
	c.mu.Lock()
	c.state = s
	c.lastErr = err
	c.mu.Unlock()
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	State     State            `json:"state"`
	Error     string           `json:"error,omitempty"`
	Trending  []models.Product `json:"trending"`
	Available []models.Product `json:"available"`
	Total     int              `json:"total"`
	LoadedAt  time.Time        `json:"loaded_at"`
}

// Snapshot partitions the loaded products. filter narrows only the
// available list.
func (c *Curator) Snapshot(filter string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	trending, available := Split(c.products, c.sel, filter)
	s := Snapshot{
		State:     c.state,
		Trending:  trending,
		Available: available,
		Total:     len(c.products),
		LoadedAt:  c.loadedAt,
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	return s
}

func (c *Curator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that put the session into StateError.
func (c *Curator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Selected returns the in-memory trending order.
func (c *Curator) Selected() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.IDs()
}
