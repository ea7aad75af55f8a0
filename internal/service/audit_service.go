package service

import (
	"context"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"

	"gorm.io/datatypes"
)

type AuditLogResponse struct {
	ID         uint           `json:"id"`
	UserID     *uint          `json:"user_id"`
	Usuario    string         `json:"usuario"`
	Action     string         `json:"action"`
	EntityID   string         `json:"entity_id"`
	EntityName string         `json:"entity_name"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  string         `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, filter repository.AuditFilter, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns one page of audit rows, newest first, with the acting user name
func (s *auditService) GetAuditLogs(ctx context.Context, filter repository.AuditFilter, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "Auditoría")
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditLogResponse(l))
	}
	return res, total, nil
}

func toAuditLogResponse(l model.AuditLog) AuditLogResponse {
	usuario := "Sistema"
	if l.User != nil {
		usuario = l.User.Nombre
	}
	return AuditLogResponse{
		ID:         l.ID,
		UserID:     l.UserID,
		Usuario:    usuario,
		Action:     l.Action,
		EntityID:   l.EntityID,
		EntityName: l.EntityName,
		Details:    l.Details,
		CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
