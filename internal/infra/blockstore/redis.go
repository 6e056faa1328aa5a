package blockstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/ordindexer/internal/core/domain"
)

// Config holds Redis connection configuration for the compacted block store.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// RedisStore persists compacted block summaries in Redis, keyed by height.
// One hash per block keeps the summary and its header hash together.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects and pings the block store.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func blockKey(height uint64) string {
	return fmt.Sprintf("compacted_block:%d", height)
}

// StoreCompacted writes the given summaries in one pipelined round trip.
// Tolerates an empty set; called exactly once per ProcessBlocks command.
func (s *RedisStore) StoreCompacted(ctx context.Context, blocks []*domain.CompactedBlock) error {
	if len(blocks) == 0 {
		return nil
	}

	var tip uint64
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, b := range blocks {
			pipe.HSet(ctx, blockKey(b.Index), map[string]interface{}{
				"hash":    b.Hash,
				"payload": b.Payload,
			})
			if b.Index > tip {
				tip = b.Index
			}
		}
		pipe.Set(ctx, "compacted_block_tip", strconv.FormatUint(tip, 10), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store compacted blocks: %w", err)
	}
	return nil
}

// GetCompacted reads one compacted block back, nil when absent.
func (s *RedisStore) GetCompacted(ctx context.Context, height uint64) (*domain.CompactedBlock, error) {
	fields, err := s.rdb.HGetAll(ctx, blockKey(height)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get compacted block %d: %w", height, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return &domain.CompactedBlock{
		Index:   height,
		Hash:    fields["hash"],
		Payload: []byte(fields["payload"]),
	}, nil
}

// Tip returns the highest stored height, zero and false when empty.
func (s *RedisStore) Tip(ctx context.Context) (uint64, bool, error) {
	val, err := s.rdb.Get(ctx, "compacted_block_tip").Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get block store tip: %w", err)
	}
	tip, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid block store tip: %w", err)
	}
	return tip, true, nil
}
