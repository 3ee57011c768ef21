package data

import (
	"context"
	"database/sql"
	"time"

	"biolinkbot/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedisCache,
	NewSettingsRepo,
	NewEventRepo,
	NewVerdictCacheRepo,
	NewAuditPublisher,
	NewPlatformClient,
	NewDeletionScheduler,
	NewLinkDetector,
	NewClassifier,
	NewDelayDefaults,
	NewAbuseConfig,
)

// Data struct for db client
type Data struct {
	Pool *pgxpool.Pool // pgxpool for queries (pgx/v5)
	DB   *sql.DB       // database/sql for migrations
}

// NewData new a data instance
func NewData(conf *conf.Data, logger log.Logger) (*Data, func(), error) {
	log := log.NewHelper(logger)
	ctx := context.Background()
	// config pool
	pgxConfig, err := newPgxPoolConfig(conf)
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pgxConfig)
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	// Also open database/sql for migrations
	db, err := sql.Open(conf.Database.Driver, conf.Database.Source)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	// auto migrate
	if err := RunMigrate(conf, db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cleanup := func() {
		log.Info("closing db connections")
		pool.Close()
		db.Close()
	}

	return &Data{
		Pool: pool,
		DB:   db,
	}, cleanup, nil
}

// newPgxPoolConfig creates a pgxpool.Config from conf.Data
func newPgxPoolConfig(conf *conf.Data) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(conf.Database.Source)
	if err != nil {
		return nil, err
	}
	// Configure connection pool settings
	pool := conf.Database.Pool
	if pool.MaxOpenConns > 0 {
		cfg.MaxConns = pool.MaxOpenConns
	}
	if pool.MinIdleConns > 0 {
		cfg.MinConns = pool.MinIdleConns
	}
	if pool.MaxConnLifetimeMinutes > 0 {
		cfg.MaxConnLifetime = time.Duration(pool.MaxConnLifetimeMinutes) * time.Minute
	}
	if pool.MaxConnIdleTimeMinutes > 0 {
		cfg.MaxConnIdleTime = time.Duration(pool.MaxConnIdleTimeMinutes) * time.Minute
	}

	return cfg, nil
}
