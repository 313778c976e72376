package app

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/cache"
	"github.com/oggyb/swipe-engine/internal/config"
	"github.com/oggyb/swipe-engine/internal/engagement"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config *config.Config
	DB     *gorm.DB
	// RedisCache is nil when Redis is disabled.
	RedisCache *cache.RedisCache
	Locker     cache.Locker
	Aggregator *engagement.Aggregator
	Logger     *slog.Logger
	// Clock is swapped in tests to drive the undo and trending windows.
	Clock func() time.Time
}

// New creates a new AppContext. Pair locks go through Redis when it is
// available and fall back to an in-process locker otherwise.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	var locker cache.Locker = cache.NewLocalLocker()
	if rdb != nil {
		locker = cache.NewRedisLocker(rdb, cfg.Policy.LockTTL)
	}
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Locker:     locker,
		Aggregator: engagement.New(logger),
		Logger:     logger,
		Clock:      func() time.Time { return time.Now() },
	}
}

// Now returns the current time in UTC at millisecond precision, matching
// what the database stores.
func (a *AppContext) Now() time.Time {
	return a.Clock().UTC().Truncate(time.Millisecond)
}
