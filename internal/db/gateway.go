package db

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SchemaVersion is bumped whenever a collection changes shape. The schema is
// only created or upgraded when the stored version is lower.
const SchemaVersion = 2

// Options locates the local store.
type Options struct {
	Driver string // sqlite (default), mysql or postgres
	DSN    string // File path for sqlite, connection string otherwise
}

// Gateway lazily opens the local store and hands out one shared handle.
type Gateway struct {
	opts Options
	mu   sync.Mutex
	conn *gorm.DB
}

type schemaMeta struct {
	ID      uint `gorm:"primaryKey"`
	Version int  `gorm:"not null"`
}

func (schemaMeta) TableName() string {
	return "schema_meta"
}

// Collections lists the models persisted by the store.
func Collections() []any {
	return []any{
		&domain.Product{},
		&domain.User{},
		&domain.CartItem{},
		&domain.Order{},
		&domain.LocalEntry{},
	}
}

// NewGateway returns an unopened gateway.
func NewGateway(opts Options) *Gateway {
	return &Gateway{opts: opts}
}

// Open returns the shared handle, opening the store and creating its
// collections on first use. Failures wrap domain.ErrStorageUnavailable and
// are not cached.
func (g *Gateway) Open(ctx context.Context) (*gorm.DB, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn != nil {
		return g.conn, nil
	}
	conn, err := open(ctx, g.opts)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"driver": g.driver(),
			"error":  err.Error(),
		}).Error("Local store unavailable")
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	g.conn = conn
	return conn, nil
}

// Close releases the handle. A later Open reopens the store.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return nil
	}
	sqlDB, err := g.conn.DB()
	if err != nil {
		return err
	}
	g.conn = nil
	return sqlDB.Close()
}

func (g *Gateway) driver() string {
	if g.opts.Driver == "" {
		return "sqlite"
	}
	return strings.ToLower(g.opts.Driver)
}

func open(ctx context.Context, opts Options) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	// One connection: every transaction is serialized against the others.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := upgrade(ctx, conn); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return conn, nil
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "sqlite":
		if opts.DSN == "" {
			return nil, fmt.Errorf("sqlite database path is required")
		}
		return sqlite.Open(opts.DSN), nil
	case "mysql":
		return mysql.Open(opts.DSN), nil
	case "postgres":
		return postgres.Open(opts.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", opts.Driver)
	}
}

func upgrade(ctx context.Context, conn *gorm.DB) error {
	tx := conn.WithContext(ctx)
	if err := tx.AutoMigrate(&schemaMeta{}); err != nil {
		return fmt.Errorf("creating schema_meta: %w", err)
	}
	var meta schemaMeta
	if err := tx.FirstOrInit(&meta, schemaMeta{ID: 1}).Error; err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if meta.Version >= SchemaVersion {
		return nil
	}
	if err := tx.AutoMigrate(Collections()...); err != nil {
		return fmt.Errorf("creating collections: %w", err)
	}
	from := meta.Version
	meta.ID = 1
	meta.Version = SchemaVersion
	if err := tx.Save(&meta).Error; err != nil {
		return fmt.Errorf("writing schema version: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"from": from,
		"to":   SchemaVersion,
	}).Info("Local store schema upgraded")
	return nil
}

// StoredVersion reads the schema version recorded in the store.
func (g *Gateway) StoredVersion(ctx context.Context) (int, error) {
	conn, err := g.Open(ctx)
	if err != nil {
		return 0, err
	}
	var meta schemaMeta
	if err := conn.WithContext(ctx).First(&meta, 1).Error; err != nil {
		return 0, err
	}
	return meta.Version, nil
}
