package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/redis/go-redis/v9"
)

// OpenStorage builds the durable key/value store selected by the config.
// The returned close func releases the underlying connection.
func OpenStorage(ctx context.Context, cfg *config.Config, log logging.Logger) (metadata.Repository, func() error, error) {
	switch cfg.StorageBackend {
	case config.StorageSQLite:
		db, err := InitDatabase(ctx, cfg.DatabasePath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return metadata.NewSQLiteRepository(db), db.Close, nil

	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("open redis storage: %w", err)
		}
		return metadata.NewRedisRepository(rdb, cfg.RedisKeyPrefix), rdb.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", common.ErrUnknownStorageBackend, cfg.StorageBackend)
	}
}
