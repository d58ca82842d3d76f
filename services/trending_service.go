package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/events"
	"github.com/inkfinity/backend/models"
	awspkg "github.com/inkfinity/backend/pkg/aws"
	"github.com/inkfinity/backend/trending"
	"go.uber.org/zap"
)

// CacheInvalidator drops cached product listings after the trending set
// changes.
type CacheInvalidator interface {
	InvalidateProducts(ctx context.Context)
}

// TrendingService owns the single admin curation session.
type TrendingService struct {
	curator *trending.Curator
}

type TrendingOptions struct {
	AtomicSave bool
	Cache      CacheInvalidator
	Metrics    *awspkg.MetricsClient
	Publisher  events.Publisher
	Logger     *zap.Logger
}

func NewTrendingService(store trending.Store, opts TrendingOptions) *TrendingService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hook := func(ctx context.Context, ids []uuid.UUID, err error, took time.Duration) {
		if opts.Cache != nil {
			opts.Cache.InvalidateProducts(ctx)
		}
		dims := map[string]string{"Operation": "TrendingSave"}
		if err != nil {
			_ = opts.Metrics.RecordCount(ctx, awspkg.MetricTrendingSaveFailures, dims)
			return
		}
		_ = opts.Metrics.RecordCount(ctx, awspkg.MetricTrendingSaves, dims)
		_ = opts.Metrics.RecordLatency(ctx, awspkg.MetricTrendingSaveLatency, took, dims)
		if opts.Publisher != nil {
			list := make([]string, len(ids))
			for i, id := range ids {
				list[i] = id.String()
			}
			events.PublishAsync(opts.Publisher, events.NewEvent(models.EventTrendingSaved, map[string]interface{}{
				"product_ids": list,
			}), logger)
		}
	}

	return &TrendingService{
		curator: trending.NewCurator(store,
			trending.WithLogger(logger),
			trending.WithAtomicSave(opts.AtomicSave),
			trending.WithSaveHook(hook),
		),
	}
}

// Snapshot returns the session view. The product list is fetched when the
// session has never loaded or when refresh is set.
func (s *TrendingService) Snapshot(ctx context.Context, filter string, refresh bool) (trending.Snapshot, error) {
	if refresh || !s.curator.Loaded() {
		if err := s.curator.Load(ctx); err != nil {
			return trending.Snapshot{}, err
		}
	}
	return s.curator.Snapshot(filter), nil
}

func (s *TrendingService) Toggle(ctx context.Context, id uuid.UUID) (trending.Snapshot, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return trending.Snapshot{}, err
	}
	if _, err := s.curator.Toggle(id); err != nil {
		return trending.Snapshot{}, selectionError(err)
	}
	return s.curator.Snapshot(""), nil
}

// MoveUp and MoveDown ignore out-of-range indexes.
func (s *TrendingService) MoveUp(ctx context.Context, index int) (trending.Snapshot, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return trending.Snapshot{}, err
	}
	s.curator.MoveUp(index)
	return s.curator.Snapshot(""), nil
}

func (s *TrendingService) MoveDown(ctx context.Context, index int) (trending.Snapshot, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return trending.Snapshot{}, err
	}
	s.curator.MoveDown(index)
	return s.curator.Snapshot(""), nil
}

// Save persists the session selection. The snapshot reflects the re-fetch
// even when the save failed.
func (s *TrendingService) Save(ctx context.Context) (trending.Snapshot, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return trending.Snapshot{}, err
	}
	err := s.curator.Save(ctx)
	return s.curator.Snapshot(""), err
}

// Replace sets the whole order at once and saves it. The session is
// reloaded first so ids created since the last load are known.
func (s *TrendingService) Replace(ctx context.Context, ids []uuid.UUID) (trending.Snapshot, error) {
	if err := s.curator.Load(ctx); err != nil {
		return trending.Snapshot{}, err
	}
	if err := s.curator.SetOrder(ids); err != nil {
		return trending.Snapshot{}, selectionError(err)
	}
	err := s.curator.Save(ctx)
	return s.curator.Snapshot(""), err
}

func (s *TrendingService) ensureLoaded(ctx context.Context) error {
	if s.curator.Loaded() {
		return nil
	}
	return s.curator.Load(ctx)
}

func selectionError(err error) error {
	if errors.Is(err, trending.ErrUnknownProduct) || errors.Is(err, trending.ErrDuplicateProduct) {
		return apperrors.BadRequest(err.Error(), err)
	}
	return fmt.Errorf("trending selection: %w", err)
}
