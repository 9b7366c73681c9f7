package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"favlinks/internal/models"

	"github.com/mssola/user_agent"
	"gorm.io/gorm"
)

const (
	auditBufferSize = 100
	// maxEntityIDLength matches the audit_logs.entity_id column.
	maxEntityIDLength = 50
)

// RequestMeta carries the request attributes recorded with audit entries.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type AuditService struct {
	db      *gorm.DB
	logger  *slog.Logger
	channel chan models.AuditLog
}

func NewAuditService(db *gorm.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		db:      db,
		logger:  logger,
		channel: make(chan models.AuditLog, auditBufferSize),
	}
}

// Start persists queued entries until ctx is cancelled.
func (s *AuditService) Start(ctx context.Context) {
	s.logger.Info("Audit worker starting")
	for {
		select {
		case entry := <-s.channel:
			if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
				s.logger.Error("Failed to write audit log", "action", entry.Action, "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("Audit worker stopping")
			return
		}
	}
}

// LogAction queues an entry without blocking. Entries are dropped when the
// buffer is full.
func (s *AuditService) LogAction(userID *uint, action, entityID string, details interface{}, meta RequestMeta) {
	if s == nil {
		return
	}

	var detailText string
	if details != nil {
		detailBytes, _ := json.Marshal(details)
		detailText = string(detailBytes)
	}

	if runes := []rune(entityID); len(runes) > maxEntityIDLength {
		entityID = string(runes[:maxEntityIDLength])
	}

	entry := models.AuditLog{
		UserID:    userID,
		Action:    action,
		EntityID:  entityID,
		Details:   detailText,
		IPAddress: meta.IP,
		Timestamp: time.Now(),
	}
	if meta.UserAgent != "" {
		ua := user_agent.New(meta.UserAgent)
		name, version := ua.Browser()
		entry.Browser = name + " " + version
		entry.OS = ua.OS()
	}

	select {
	case s.channel <- entry:
	default:
		s.logger.Warn("Audit channel full, dropping log", "action", action)
	}
}
