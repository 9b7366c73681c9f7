package services

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"favlinks/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService(t *testing.T) {
	pool := setupTestPool(t)
	db := pool.DB(context.Background())
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := NewAuditService(db, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.Start(ctx)

	t.Run("Log Action", func(t *testing.T) {
		userID := uint(1)
		service.LogAction(&userID, "TEST_ACTION", "entity_1", map[string]string{"foo": "bar"}, RequestMeta{
			IP:        "127.0.0.1",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		})

		var log models.AuditLog
		require.Eventually(t, func() bool {
			return db.Where("action = ?", "TEST_ACTION").First(&log).Error == nil
		}, time.Second, 10*time.Millisecond)

		assert.Equal(t, "entity_1", log.EntityID)
		assert.Contains(t, log.Details, "foo")
		assert.Equal(t, "127.0.0.1", log.IPAddress)
		assert.Contains(t, log.Browser, "Chrome")
		assert.Equal(t, "Linux x86_64", log.OS)
	})

	t.Run("Long Entity ID Is Truncated", func(t *testing.T) {
		service.LogAction(nil, "LONG_ENTITY", strings.Repeat("é", 80), nil, RequestMeta{})

		var log models.AuditLog
		require.Eventually(t, func() bool {
			return db.Where("action = ?", "LONG_ENTITY").First(&log).Error == nil
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, strings.Repeat("é", maxEntityIDLength), log.EntityID)
	})

	t.Run("Channel Full", func(t *testing.T) {
		service := NewAuditService(db, logger)
		// Fill channel
		for i := 0; i < auditBufferSize; i++ {
			service.LogAction(nil, "ACTION", "ID", nil, RequestMeta{})
		}
		// Should drop without blocking
		service.LogAction(nil, "DROP", "ID", nil, RequestMeta{})
		assert.Len(t, service.channel, auditBufferSize)
	})

	t.Run("Nil Service", func(t *testing.T) {
		var nilService *AuditService
		assert.NotPanics(t, func() {
			nilService.LogAction(nil, "ACTION", "ID", nil, RequestMeta{})
		})
	})

	t.Run("Stops On Cancel", func(t *testing.T) {
		service := NewAuditService(db, logger)
		ctxStop, cancelStop := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			service.Start(ctxStop)
			close(done)
		}()
		cancelStop()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("audit worker did not stop")
		}
	})
}
