package repository

import (
	"context"
	"fmt"
	"log/slog"

	"favlinks/internal/config"

	"github.com/glebarez/sqlite"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Row is a single result row keyed by column name.
type Row = map[string]interface{}

// Pool is the process-wide handle on the relational store. It wraps gorm's
// connection pool and is safe for concurrent use.
type Pool struct {
	db         *gorm.DB
	driver     string
	migrateURL string
	logger     *slog.Logger
}

// Open builds the pool without performing the initial handshake, so an
// unreachable database does not prevent the process from starting.
func Open(cfg config.Config, log *slog.Logger) (*Pool, error) {
	var dialer gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		// Skip the version probe so Open never dials.
		dialer = gormmysql.New(gormmysql.Config{
			DSN:                       cfg.GormDSN(),
			SkipInitializeWithVersion: true,
		})
	case "postgres":
		dialer = postgres.Open(cfg.GormDSN())
	case "sqlite":
		dialer = sqlite.Open(cfg.GormDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	db, err := gorm.Open(dialer, &gorm.Config{
		DisableAutomaticPing: true,
		TranslateError:       true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// A single connection keeps in-memory databases alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	}

	p := &Pool{
		db:         db,
		driver:     cfg.DBDriver,
		migrateURL: cfg.MigrateURL(),
		logger:     log,
	}
	if err := p.registerDiagnostics(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pool) Driver() string {
	return p.driver
}

// DB returns a gorm session bound to ctx.
func (p *Pool) DB(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}

// Ping performs a handshake with the database and logs a categorized
// diagnostic when it fails.
func (p *Pool) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		p.diagnose(err)
		return fmt.Errorf("database handshake failed: %w", err)
	}
	p.logger.Info("Database connected successfully", "driver", p.driver)
	return nil
}

// Execute runs a parameterized query and returns every row as a column map.
func (p *Pool) Execute(ctx context.Context, query string, args ...interface{}) ([]Row, error) {
	var rows []Row
	if err := p.DB(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	return rows, nil
}

// Exec runs a parameterized statement and returns the number of affected rows.
func (p *Pool) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res := p.DB(ctx).Exec(query, args...)
	if res.Error != nil {
		return 0, fmt.Errorf("exec statement: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (p *Pool) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
