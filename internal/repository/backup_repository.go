package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/config"
	"github.com/pitchready/refexam-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// BackupRepository keeps the single recoverable session backup per user in
// Redis. The record is written at exam start and deleted at submit/cancel;
// a TTL bounds how long an abandoned backup survives.
type BackupRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBackupRepository creates a new BackupRepository.
func NewBackupRepository(rdb *redis.Client, ttl time.Duration) *BackupRepository {
	return &BackupRepository{rdb: rdb, ttl: ttl}
}

// Write stores the backup, replacing any previous one for the user.
func (r *BackupRepository) Write(ctx context.Context, userID uuid.UUID, b *model.SessionBackup) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	key := config.CacheKey.ExamBackupKey(userID.String())
	if err := r.rdb.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Read retrieves the user's backup, or (nil, nil) when none exists.
func (r *BackupRepository) Read(ctx context.Context, userID uuid.UUID) (*model.SessionBackup, error) {
	key := config.CacheKey.ExamBackupKey(userID.String())
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup: %w", err)
	}
	var b model.SessionBackup
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("unmarshal backup: %w", err)
	}
	return &b, nil
}

// Clear deletes the user's backup. Clearing an absent backup is a no-op.
func (r *BackupRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	key := config.CacheKey.ExamBackupKey(userID.String())
	return r.rdb.Del(ctx, key).Err()
}
