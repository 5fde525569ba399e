// Package store provides the PostgreSQL-backed persistence of imported
// products. It opens a pgx pool, exposes it to GORM through database/sql and
// provisions the tables declared in a schema.Metadata.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/JonMunkholm/prodimport/internal/config"
	"github.com/JonMunkholm/prodimport/internal/core"
	"github.com/JonMunkholm/prodimport/internal/logging"
	"github.com/JonMunkholm/prodimport/internal/schema"
)

// Compile-time check that Store can back an import run.
var _ core.Store = (*Store)(nil)

// Store is an open connection to the product database.
// It is safe for use by multiple goroutines; callers own it and must Close it.
type Store struct {
	pool      *pgxpool.Pool
	sqlDB     *sql.DB
	db        *gorm.DB
	meta      *schema.Metadata
	batchSize int
}

// Option configures a Store.
type Option func(*Store)

// WithMetadata replaces the set of tables the store provisions and drops.
func WithMetadata(md *schema.Metadata) Option {
	return func(s *Store) {
		s.meta = md
	}
}

// Open connects to the database described by cfg and verifies the
// connection. A malformed URL or an unreachable server is reported as a
// connection error.
func Open(ctx context.Context, cfg config.DatabaseConfig, opts ...Option) (*Store, error) {
	s := &Store{
		meta:      schema.DefaultMetadata(),
		batchSize: cfg.InsertBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.batchSize <= 0 {
		s.batchSize = 1000
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, connErr("parse database url", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, connErr("create pool", err)
	}
	s.pool = pool
	s.sqlDB = stdlib.OpenDBFromPool(pool)

	s.db, err = gorm.Open(postgres.New(postgres.Config{Conn: s.sqlDB}), &gorm.Config{
		NamingStrategy:         s.meta.Naming,
		Logger:                 logging.NewGormLogger(cfg.SlowQueryThreshold),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open orm: %w", err)
	}

	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, err
	}

	slog.Info("connected to database",
		"database", poolConfig.ConnConfig.Database,
		"host", poolConfig.ConnConfig.Host,
		"max_conns", poolConfig.MaxConns,
	)
	return s, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return connErr("ping database", err)
	}
	return nil
}

// Close releases all connections.
func (s *Store) Close() {
	if s.sqlDB != nil {
		_ = s.sqlDB.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// Metadata returns the table declarations this store manages.
func (s *Store) Metadata() *schema.Metadata {
	return s.meta
}

// EnsureSchema creates every declared table that does not exist yet.
// Existing tables and their rows are left untouched, so calling it any
// number of times is safe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	log := logging.FromContext(ctx)
	for _, t := range s.meta.Tables() {
		stmt, err := schema.CreateTableSQL(t, s.meta.Naming)
		if err != nil {
			return fmt.Errorf("render table %s: %w", t.Name, err)
		}
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
		log.Debug("table ensured", "table", t.Name)
	}
	return nil
}

// DropAll drops every declared table, in reverse declaration order, in one
// transaction. All rows are lost. The import never calls it; it backs the
// explicit maintenance command only.
func (s *Store) DropAll(ctx context.Context) ([]string, error) {
	tables := s.meta.Tables()
	dropped := make([]string, 0, len(tables))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(tables) - 1; i >= 0; i-- {
			stmt, err := schema.DropTableSQL(tables[i])
			if err != nil {
				return fmt.Errorf("render drop %s: %w", tables[i].Name, err)
			}
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("drop table %s: %w", tables[i].Name, err)
			}
			dropped = append(dropped, tables[i].Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dropped, nil
}

// HasTable reports whether the named table exists in the current schema.
func (s *Store) HasTable(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.WithContext(ctx).
		Raw("SELECT to_regclass(?) IS NOT NULL", name).
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("look up table %s: %w", name, err)
	}
	return exists, nil
}

// InTransaction runs fn inside a single database transaction. The
// transaction commits when fn returns nil and rolls back when it returns an
// error or panics.
func (s *Store) InTransaction(ctx context.Context, fn func(tx core.RecordWriter) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&recordWriter{tx: tx, batchSize: s.batchSize})
	})
}

// Count returns the number of rows in the product table.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&schema.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Products returns up to limit products ordered by id. A limit of 0 or
// less returns all rows.
func (s *Store) Products(ctx context.Context, limit int) ([]schema.Product, error) {
	q := s.db.WithContext(ctx).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []schema.Product
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// recordWriter inserts records through an open GORM transaction.
type recordWriter struct {
	tx        *gorm.DB
	batchSize int
}

// Insert writes records in multi-row INSERT statements of at most batchSize
// rows each. All statements belong to the caller's transaction.
func (w *recordWriter) Insert(ctx context.Context, records []*schema.Product) error {
	if len(records) == 0 {
		return nil
	}
	if err := w.tx.WithContext(ctx).CreateInBatches(records, w.batchSize).Error; err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	return nil
}

func connErr(op string, err error) error {
	return &core.Error{Kind: core.KindConnection, Op: op, Err: err}
}
