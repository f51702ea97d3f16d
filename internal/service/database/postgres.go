package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	createProfileCacheTable = `CREATE TABLE IF NOT EXISTS profile_cache (
	username   TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	selectProfile = `SELECT data FROM profile_cache WHERE username = $1`
	upsertProfile = `INSERT INTO profile_cache (username, data) VALUES ($1, $2)
ON CONFLICT (username) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
)

// PostgresStore keeps cached profiles in a single key-value table.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func NewPostgresStore(cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := NewPostgresStoreFromDB(db, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)

	return store, nil
}

// postgresDSN builds a connection URL; credentials are percent-encoded by url.URL.
func postgresDSN(cfg PostgresConfig) string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": []string{"disable"}}.Encode(),
	}
	return dsn.String()
}

func NewPostgresStoreFromDB(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

func (ps *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := ps.db.ExecContext(ctx, createProfileCacheTable); err != nil {
		return fmt.Errorf("failed to create profile_cache table: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Name() string {
	return "postgres"
}

func (ps *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var data string
	err := ps.db.QueryRowContext(ctx, selectProfile, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		ps.logger.Error("Profile cache select failed", zap.String("key", key), zap.Error(err))
		return "", false, apperrors.NewCacheError("select failed", "get", key, err)
	}
	return data, true, nil
}

func (ps *PostgresStore) Put(ctx context.Context, key, value string) error {
	if _, err := ps.db.ExecContext(ctx, upsertProfile, key, value); err != nil {
		ps.logger.Error("Profile cache upsert failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewCacheError("upsert failed", "set", key, err)
	}
	return nil
}

func (ps *PostgresStore) Ping(ctx context.Context) error {
	return ps.db.PingContext(ctx)
}

func (ps *PostgresStore) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}
