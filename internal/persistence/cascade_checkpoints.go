package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const cascadeKeyPrefix = "cascade:pending:"

// CascadeCheckpoint marks a branch-propagation fan-out that has started but
// not yet been confirmed complete. A checkpoint surviving a restart means
// the cascade may have been interrupted and must be replayed.
type CascadeCheckpoint struct {
	ManagerID string   `json:"manager_id"`
	BranchIDs []string `json:"branch_ids"`
}

// CascadeCheckpointStore persists pending-cascade markers so the fan-out is
// resumable after partial failure.
type CascadeCheckpointStore interface {
	Save(ctx context.Context, checkpoint CascadeCheckpoint) error
	Clear(ctx context.Context, managerID string) error
	ListPending(ctx context.Context) ([]CascadeCheckpoint, error)
}

type redisCheckpointStore struct {
	client *redis.Client
}

// NewCascadeCheckpointStore returns a Redis-backed checkpoint store.
func NewCascadeCheckpointStore(r *Redis) CascadeCheckpointStore {
	if r == nil {
		return &redisCheckpointStore{client: nil}
	}
	return &redisCheckpointStore{client: r.Client}
}

func (s *redisCheckpointStore) Save(ctx context.Context, checkpoint CascadeCheckpoint) error {
	if s.client == nil {
		return errors.New("redis client not configured")
	}
	encoded, err := json.Marshal(checkpoint)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cascadeKeyPrefix+checkpoint.ManagerID, encoded, 0).Err()
}

func (s *redisCheckpointStore) Clear(ctx context.Context, managerID string) error {
	if s.client == nil {
		return errors.New("redis client not configured")
	}
	return s.client.Del(ctx, cascadeKeyPrefix+managerID).Err()
}

func (s *redisCheckpointStore) ListPending(ctx context.Context) ([]CascadeCheckpoint, error) {
	if s.client == nil {
		return nil, nil
	}
	var checkpoints []CascadeCheckpoint
	iter := s.client.Scan(ctx, 0, cascadeKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		var checkpoint CascadeCheckpoint
		if err := json.Unmarshal(raw, &checkpoint); err != nil {
			// Malformed checkpoint: fall back to the key's manager id so
			// the cascade is still visible to operators.
			checkpoint.ManagerID = strings.TrimPrefix(key, cascadeKeyPrefix)
		}
		checkpoints = append(checkpoints, checkpoint)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return checkpoints, nil
}
