package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"SalePulse/internal/domain/models"
	domrepo "SalePulse/internal/domain/repository"
)

const cursorKey = "salepulse:detector:cursor"

// RedisCursorStore checkpoints the detection cursor so a restart can
// resume the replay instead of starting over. Opt-in via config.
type RedisCursorStore struct {
	client *redis.Client
}

func NewRedisCursorStore(client *redis.Client) domrepo.CursorStore {
	return &RedisCursorStore{client: client}
}

func (s *RedisCursorStore) Load(ctx context.Context) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, cursorKey).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load cursor: %w", err)
	}
	cursor, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse cursor %q: %w", raw, err)
	}
	return cursor, true, nil
}

func (s *RedisCursorStore) Save(ctx context.Context, cursor time.Time) error {
	return s.client.Set(ctx, cursorKey, cursor.Format(models.DateLayout), 0).Err()
}
