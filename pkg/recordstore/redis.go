package recordstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each record in a hash at "<prefix>:<id>" and indexes ids
// by filename in a set at "<prefix>:filename:<filename>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, prefix: cfg.Table}, nil
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisStore) filenameKey(filename string) string {
	return s.prefix + ":filename:" + filename
}

// Put writes the hash and the filename index in one MULTI/EXEC, guarded by
// WATCH so an existing id is never overwritten.
func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	key := s.recordKey(rec.ID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return ErrDuplicateID
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"id", rec.ID,
				"filename", rec.Filename,
				"fileSizeBytes", rec.FileSizeBytes,
				"width", rec.Width,
				"height", rec.Height,
				"format", rec.Format,
				"uploadTimestamp", rec.UploadTimestamp,
			)
			pipe.SAdd(ctx, s.filenameKey(rec.Filename), rec.ID)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("put record %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads a record by id.
func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	if err := s.client.HGetAll(ctx, s.recordKey(id)).Scan(&rec); err != nil {
		return Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	if rec.ID == "" {
		return Record{}, fmt.Errorf("get record %s: %w", id, redis.Nil)
	}
	return rec, nil
}

// IDsByFilename lists the ids of every record written for filename.
func (s *RedisStore) IDsByFilename(ctx context.Context, filename string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.filenameKey(filename)).Result()
	if err != nil {
		return nil, fmt.Errorf("list records for %s: %w", filename, err)
	}
	return ids, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
