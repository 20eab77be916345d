package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const roomKeyPrefix = "room:"

// RoomRepository keeps the last published snapshot of every room.
type RoomRepository interface {
	Save(ctx context.Context, roomID string, snapshot entity.Snapshot) error
	GetByID(ctx context.Context, roomID string) (entity.Snapshot, error)
	DeleteByID(ctx context.Context, roomID string) error
}

type dbRoom struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomRepository stores snapshots with the given expiry. Zero means no expiry.
func NewRoomRepository(client *redis.Client, ttl time.Duration) RoomRepository {
	return &dbRoom{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbRoom) Save(ctx context.Context, roomID string, snapshot entity.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	if err = that.client.Set(ctx, roomKeyPrefix+roomID, snapshotJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}

	return nil
}

func (that *dbRoom) GetByID(ctx context.Context, roomID string) (entity.Snapshot, error) {
	response, err := that.client.Get(ctx, roomKeyPrefix+roomID).Result()

	if errors.Is(err, redis.Nil) {
		return entity.Snapshot{}, apperror.ErrRoomNotFound
	}

	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("%w by id", err)
	}

	var snapshot entity.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return snapshot, nil
}

func (that *dbRoom) DeleteByID(ctx context.Context, roomID string) error {
	deleted, err := that.client.Del(ctx, roomKeyPrefix+roomID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot by ID: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrRoomNotFound
	}

	return nil
}
