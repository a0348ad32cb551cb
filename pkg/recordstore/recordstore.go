package recordstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrDuplicateID is returned when a record with the same id already exists.
var ErrDuplicateID = errors.New("record id already exists")

// Record is the persisted metadata for one uploaded image.
// Field names match the item attributes in every backend.
type Record struct {
	ID              string `json:"id" dynamodbav:"id" redis:"id"`
	Filename        string `json:"filename" dynamodbav:"filename" redis:"filename"`
	FileSizeBytes   int64  `json:"fileSizeBytes" dynamodbav:"fileSizeBytes" redis:"fileSizeBytes"`
	Width           int    `json:"width" dynamodbav:"width" redis:"width"`
	Height          int    `json:"height" dynamodbav:"height" redis:"height"`
	Format          string `json:"format" dynamodbav:"format" redis:"format"`
	UploadTimestamp string `json:"uploadTimestamp" dynamodbav:"uploadTimestamp" redis:"uploadTimestamp"`
}

// Store persists records. Put is a single atomic, write-once operation.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Close() error
}

// Config selects and configures a record store backend.
type Config struct {
	Provider    string
	Table       string
	Endpoint    string
	Region      string
	RedisAddr   string
	RedisDB     int
	PostgresDSN string
}

// New creates a record store based on the given configuration.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Table == "" {
		return nil, errors.New("record store table is required")
	}

	var (
		store Store
		err   error
	)
	switch cfg.Provider {
	case "dynamodb":
		store, err = NewDynamoDB(ctx, cfg)
	case "redis":
		store, err = NewRedis(ctx, cfg)
	case "postgres":
		store, err = NewPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported record store provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
