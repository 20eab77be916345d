package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type snapshotRepo interface {
	Save(ctx context.Context, roomID string, snapshot entity.Snapshot) error
	GetByID(ctx context.Context, roomID string) (entity.Snapshot, error)
	DeleteByID(ctx context.Context, roomID string) error
}

type snapshotJob struct {
	roomID   string
	snapshot entity.Snapshot
	remove   bool
}

// SnapshotService mirrors room state into the read model. Publish and Delete
// only enqueue, so they are safe to call while holding a room lock; Run
// applies the queue in order.
type SnapshotService struct {
	logger *slog.Logger
	repo   snapshotRepo
	queue  chan snapshotJob
}

func NewSnapshotService(logger *slog.Logger, repo snapshotRepo, buffer int) *SnapshotService {
	return &SnapshotService{
		logger: logger.With("component", "snapshot"),
		repo:   repo,
		queue:  make(chan snapshotJob, buffer),
	}
}

func (that *SnapshotService) Publish(roomID string, snapshot entity.Snapshot) {
	that.enqueue(snapshotJob{roomID: roomID, snapshot: snapshot})
}

func (that *SnapshotService) Delete(roomID string) {
	that.enqueue(snapshotJob{roomID: roomID, remove: true})
}

func (that *SnapshotService) enqueue(job snapshotJob) {
	select {
	case that.queue <- job:
	default:
		that.logger.Warn("snapshot queue is full, dropping update", "roomID", job.roomID, "remove", job.remove)
	}
}

// Run drains the queue until ctx is done.
func (that *SnapshotService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-that.queue:
			that.apply(ctx, job)
		}
	}
}

func (that *SnapshotService) apply(ctx context.Context, job snapshotJob) {
	log := that.logger.With("method", "apply", "roomID", job.roomID)

	if job.remove {
		err := that.repo.DeleteByID(ctx, job.roomID)
		if err != nil && !errors.Is(err, apperror.ErrRoomNotFound) {
			log.Error("failed to delete snapshot", "error", err)
		}
		return
	}

	if err := that.repo.Save(ctx, job.roomID, job.snapshot); err != nil {
		log.Error("failed to save snapshot", "error", err)
	}
}

// GetSnapshot returns the last published state of a room.
func (that *SnapshotService) GetSnapshot(ctx context.Context, roomID string) (entity.Snapshot, error) {
	snapshot, err := that.repo.GetByID(ctx, roomID)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return snapshot, nil
}
