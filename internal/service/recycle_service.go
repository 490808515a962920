package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labtrack/internal/domain"
	"labtrack/internal/metrics"
	"labtrack/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecycleService is the soft-delete/restore subsystem.
type RecycleService interface {
	// CaptureAndDelete snapshots the row and deletes it. The snapshot
	// write is best-effort: if it fails the delete still proceeds (data
	// loss is possible and the failure is logged and counted). The bool
	// reports whether the delete removed a row.
	CaptureAndDelete(ctx context.Context, t domain.EntityType, id string) (bool, error)

	// Restore reinserts a snapshot into its origin table and removes
	// the recycle entry. On failure the entry stays so the call can be
	// retried.
	Restore(ctx context.Context, recycleID string) (*RestoreResponse, error)

	List(ctx context.Context) ([]*domain.RecycleBinEntry, error)
	Get(ctx context.Context, id string) (*domain.RecycleBinEntry, error)
	Purge(ctx context.Context, id string) error
}

// RestoreResponse names the table a restore went back into.
type RestoreResponse struct {
	EntityType domain.EntityType `json:"entityType"`
	Restored   bool              `json:"restored"`
}

type recycleService struct {
	store   repository.RecycleStore
	metrics *metrics.Registry
	logger  *zap.Logger
	now     func() time.Time
}

func NewRecycleService(store repository.RecycleStore, m *metrics.Registry, logger *zap.Logger) RecycleService {
	return &recycleService{
		store:   store,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

var _ RecycleService = (*recycleService)(nil)

func (s *recycleService) CaptureAndDelete(ctx context.Context, t domain.EntityType, id string) (bool, error) {
	if !domain.IsKnownEntityType(t) {
		return false, fmt.Errorf("%w: unknown entity type %q", domain.ErrValidation, t)
	}

	snapshot, err := s.store.FetchEntity(ctx, t, id)
	if err != nil {
		return false, err
	}

	entry := &domain.RecycleBinEntry{
		ID:           uuid.NewString(),
		EntityType:   t,
		EntityID:     id,
		Snapshot:     snapshot,
		OriginalPath: fmt.Sprintf("/%s/%s", t, id),
		DeletedAt:    s.now(),
	}
	// Best-effort: a failed snapshot must not block the delete.
	if err := s.store.InsertEntry(ctx, entry); err != nil {
		s.metrics.SnapshotFailures.Inc()
		s.logger.Warn("recycle snapshot failed, deleting anyway",
			zap.String("entity_type", string(t)),
			zap.String("entity_id", id),
			zap.Error(err))
	}

	deleted, err := s.store.DeleteEntity(ctx, t, id)
	if err != nil {
		return false, err
	}
	s.metrics.DeletesTotal.WithLabelValues(string(t)).Inc()
	s.logger.Info("entity deleted",
		zap.String("entity_type", string(t)),
		zap.String("entity_id", id),
		zap.String("recycle_id", entry.ID))
	return deleted, nil
}

func (s *recycleService) Restore(ctx context.Context, recycleID string) (*RestoreResponse, error) {
	entry, err := s.store.GetEntry(ctx, recycleID)
	if err != nil {
		return nil, err
	}

	if err := s.store.RestoreEntry(ctx, entry); err != nil {
		s.metrics.RestoresTotal.WithLabelValues("error").Inc()
		s.logger.Error("restore failed, entry kept for retry",
			zap.String("recycle_id", recycleID),
			zap.String("entity_type", string(entry.EntityType)),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
		if errors.Is(err, domain.ErrRestore) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrRestore, entry.EntityType, entry.EntityID, err)
	}

	s.metrics.RestoresTotal.WithLabelValues("success").Inc()
	s.logger.Info("entity restored",
		zap.String("recycle_id", recycleID),
		zap.String("entity_type", string(entry.EntityType)),
		zap.String("entity_id", entry.EntityID))
	return &RestoreResponse{EntityType: entry.EntityType, Restored: true}, nil
}

func (s *recycleService) List(ctx context.Context) ([]*domain.RecycleBinEntry, error) {
	return s.store.ListEntries(ctx)
}

func (s *recycleService) Get(ctx context.Context, id string) (*domain.RecycleBinEntry, error) {
	return s.store.GetEntry(ctx, id)
}

func (s *recycleService) Purge(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteEntry(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: recycle_bin id=%s", domain.ErrNotFound, id)
	}
	s.logger.Info("recycle entry purged", zap.String("recycle_id", id))
	return nil
}
