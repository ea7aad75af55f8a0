package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"
)

// Actor is the authenticated user performing an operation
type Actor struct {
	UserID uint
	Role   string
}

// Upload is a file received in a multipart request
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// SignatureSource selects where a signature comes from: a new upload or the
// actor's stored profile signature. Both set is a validation error.
type SignatureSource struct {
	Upload    *Upload
	UseStored bool
}

func (s SignatureSource) Empty() bool {
	return s.Upload == nil && !s.UseStored
}

// EventPublisher broadcasts workflow events to connected clients
type EventPublisher interface {
	Publish(event string, data interface{})
}

const (
	EventPedidoCreado    = "pedido.creado"
	EventPedidoAprobado  = "pedido.aprobado"
	EventPedidoRechazado = "pedido.rechazado"
	EventPedidoEliminado = "pedido.eliminado"
)

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

// writeAudit stores one audit row. It must run inside the transaction of the
// change it describes.
func writeAudit(ctx context.Context, repo repository.AuditRepository, actor Actor, action string, entityID uint, entityName string, details map[string]interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	var userID *uint
	if actor.UserID != 0 {
		id := actor.UserID
		userID = &id
	}
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   strconv.FormatUint(uint64(entityID), 10),
		EntityName: entityName,
		Details:    raw,
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// removeFiles deletes stored files after a commit. Failures are logged only.
func removeFiles(ctx context.Context, disk storage.Disk, paths ...model.StoragePath) {
	for _, p := range paths {
		if p.IsZero() {
			continue
		}
		if err := disk.Delete(ctx, p.String()); err != nil {
			logging.Error("failed to delete stored file", err, map[string]interface{}{"path": p.String()})
		}
	}
}
