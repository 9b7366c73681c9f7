package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"favlinks/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/mysql/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// AutoMigrate creates the application tables through gorm. It backs the
// sqlite driver and tests.
func AutoMigrate(p *Pool) error {
	if err := p.db.AutoMigrate(&models.User{}, &models.Link{}, &models.AuditLog{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Migrate brings the schema up to date for the configured driver.
func (p *Pool) Migrate() error {
	if p.driver == "sqlite" {
		return AutoMigrate(p)
	}
	return RunMigrations(p.driver, p.migrateURL)
}

// RunMigrations applies the embedded SQL migrations of driver against databaseURL.
func RunMigrations(driver string, databaseURL string) error {
	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run up migrations: %w", err)
	}

	slog.Info("Database migrations ran successfully", "driver", driver)
	return nil
}

// EnsureSchema retries the handshake and the migrations with exponential
// backoff until they succeed, ctx is done, or a non-connectivity error occurs.
func EnsureSchema(ctx context.Context, p *Pool, log *slog.Logger) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0

	op := func() error {
		if err := p.Ping(ctx); err != nil {
			return err
		}
		if err := p.Migrate(); err != nil {
			if !Classify(err).Connectivity() {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	notify := func(err error, next time.Duration) {
		log.Warn("Database not ready, retrying schema setup", "error", err, "retry_in", next)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("schema setup failed: %w", err)
	}
	log.Info("Database schema ready")
	return nil
}
