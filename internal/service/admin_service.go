package service

import (
	"encoding/json"

	"coinmeet/internal/models"
	"coinmeet/internal/repository"

	"go.uber.org/zap"
)

// AuditEntry describes one admin action.
type AuditEntry struct {
	AdminID    uint
	Action     string
	Resource   string
	ResourceID string
	IP         string
	UserAgent  string
	Metadata   map[string]interface{}
}

// AdminService backs the dashboard and the audit trail.
type AdminService struct {
	stats  *repository.AdminRepository
	audits *repository.AuditLogRepository
	log    *zap.Logger
}

func NewAdminService(stats *repository.AdminRepository, audits *repository.AuditLogRepository, log *zap.Logger) *AdminService {
	return &AdminService{stats: stats, audits: audits, log: log}
}

func (s *AdminService) Dashboard() (*repository.DashboardStats, error) {
	return s.stats.GetDashboardStats()
}

// Audit appends an audit row. A failed write is logged, not returned.
func (s *AdminService) Audit(e AuditEntry) {
	var meta string
	if len(e.Metadata) > 0 {
		if b, err := json.Marshal(e.Metadata); err == nil {
			meta = string(b)
		}
	}
	adminID := e.AdminID
	row := &models.AuditLog{
		UserID:     &adminID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		Metadata:   meta,
	}
	if err := s.audits.Create(row); err != nil {
		s.log.Error("audit write failed", zap.String("action", e.Action), zap.Error(err))
	}
}

func (s *AdminService) AuditLogs(action string, page, limit int) ([]models.AuditLog, int64, error) {
	return s.audits.List(action, page, limit)
}
