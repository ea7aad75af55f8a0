package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/export"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
)

type EntregaItemInput struct {
	InventarioID uint   `json:"inventario_id" binding:"required"`
	EsAccesorio  bool   `json:"es_accesorio"`
	Accesorio    string `json:"accesorio"`
}

type EntregaInput struct {
	PersonalID   uint               `json:"personal_id" binding:"required"`
	SedeID       uint               `json:"sede_id" binding:"required"`
	ProcesoID    uint               `json:"proceso_id" binding:"required"`
	FechaEntrega string             `json:"fecha_entrega" binding:"omitempty,datetime=2006-01-02"`
	Observacion  string             `json:"observacion"`
	Items        []EntregaItemInput `json:"items" binding:"required,min=1,dive"`
}

func (in *EntregaInput) validate() error {
	fields := map[string][]string{}
	if in.PersonalID == 0 {
		fields["personal_id"] = []string{"la persona que recibe es obligatoria"}
	}
	if in.SedeID == 0 {
		fields["sede_id"] = []string{"la sede es obligatoria"}
	}
	if in.ProcesoID == 0 {
		fields["proceso_id"] = []string{"el proceso es obligatorio"}
	}
	if in.FechaEntrega != "" {
		if _, err := time.Parse("2006-01-02", in.FechaEntrega); err != nil {
			fields["fecha_entrega"] = []string{"la fecha debe tener el formato AAAA-MM-DD"}
		}
	}
	if len(in.Items) == 0 {
		fields["items"] = []string{"la entrega debe tener al menos un item"}
	}
	for i, it := range in.Items {
		if it.InventarioID == 0 {
			key := fmt.Sprintf("items.%d.inventario_id", i)
			fields[key] = []string{"el activo es obligatorio"}
		}
	}
	if len(fields) > 0 {
		return apperror.ValidationFields("Los datos de la entrega no son válidos", fields)
	}
	return nil
}

type EntregaExporter interface {
	Export(ctx context.Context, e *model.CpEntregaActivosFijos) (*export.Document, error)
}

type EntregaService interface {
	List(ctx context.Context, filter repository.EntregaFilter, page, limit int) ([]model.CpEntregaActivosFijos, int64, error)
	Get(ctx context.Context, id uint) (*model.CpEntregaActivosFijos, error)
	// Create stores a handover. firmaEntrega may use the actor's stored
	// signature; the receiver has no account, so firmaRecibe is an upload.
	Create(ctx context.Context, actor Actor, in EntregaInput, firmaEntrega SignatureSource, firmaRecibe *Upload) (*model.CpEntregaActivosFijos, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Export(ctx context.Context, id uint) (*export.Document, error)
}

type EntregaDeps struct {
	TxManager    repository.TransactionManager
	Entregas     repository.EntregaRepository
	Audit        repository.AuditRepository
	Inventario   repository.CatalogRepository[model.Inventario]
	Personal     repository.CatalogRepository[model.Personal]
	Sedes        repository.CatalogRepository[model.Sede]
	Dependencias repository.CatalogRepository[model.Dependencia]
	Signatures   *SignatureResolver
	Exporter     EntregaExporter
}

type entregaService struct {
	EntregaDeps
	now func() time.Time
}

func NewEntregaService(deps EntregaDeps) EntregaService {
	return &entregaService{EntregaDeps: deps, now: time.Now}
}

func (s *entregaService) List(ctx context.Context, filter repository.EntregaFilter, page, limit int) ([]model.CpEntregaActivosFijos, int64, error) {
	entregas, total, err := s.Entregas.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "Entrega")
	}
	return entregas, total, nil
}

func (s *entregaService) Get(ctx context.Context, id uint) (*model.CpEntregaActivosFijos, error) {
	entrega, err := s.Entregas.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "Entrega")
	}
	return entrega, nil
}

func (s *entregaService) Export(ctx context.Context, id uint) (*export.Document, error) {
	entrega, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.Exporter.Export(ctx, entrega)
	if err != nil {
		return nil, apperror.Internal("no se pudo generar el documento de la entrega", err)
	}
	return doc, nil
}

func (s *entregaService) checkReferences(ctx context.Context, in *EntregaInput) error {
	if _, err := s.Personal.FindByID(ctx, in.PersonalID); err != nil {
		return apperror.FromDB(err, "Personal")
	}
	if _, err := s.Sedes.FindByID(ctx, in.SedeID); err != nil {
		return apperror.FromDB(err, "Sede")
	}
	if _, err := s.Dependencias.FindByID(ctx, in.ProcesoID); err != nil {
		return apperror.FromDB(err, "Proceso")
	}

	ids := make([]uint, 0, len(in.Items))
	seen := map[uint]bool{}
	for _, it := range in.Items {
		if !seen[it.InventarioID] {
			seen[it.InventarioID] = true
			ids = append(ids, it.InventarioID)
		}
	}
	found, err := s.Inventario.FindByIDs(ctx, ids)
	if err != nil {
		return apperror.FromDB(err, "Inventario")
	}
	if len(found) != len(ids) {
		existing := map[uint]bool{}
		for _, inv := range found {
			existing[inv.ID] = true
		}
		var missing []string
		for _, id := range ids {
			if !existing[id] {
				missing = append(missing, fmt.Sprint(id))
			}
		}
		return apperror.NotFound("Activos no encontrados: " + strings.Join(missing, ", "))
	}
	return nil
}

func (s *entregaService) Create(ctx context.Context, actor Actor, in EntregaInput, firmaEntrega SignatureSource, firmaRecibe *Upload) (*model.CpEntregaActivosFijos, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, &in); err != nil {
		return nil, err
	}

	entregaPath, err := s.Signatures.Resolve(ctx, FolderFirmasEntregas, "entrega", actor.UserID, firmaEntrega)
	if err != nil {
		return nil, err
	}
	recibePath, err := s.Signatures.Resolve(ctx, FolderFirmasEntregas, "recibe", actor.UserID, SignatureSource{Upload: firmaRecibe})
	if err != nil {
		s.Signatures.Discard(ctx, entregaPath)
		return nil, err
	}

	fecha := s.now()
	if in.FechaEntrega != "" {
		fecha, _ = time.Parse("2006-01-02", in.FechaEntrega)
	}
	entrega := model.CpEntregaActivosFijos{
		PersonalID:    in.PersonalID,
		SedeID:        in.SedeID,
		ProcesoID:     in.ProcesoID,
		CoordinadorID: actor.UserID,
		FechaEntrega:  fecha,
		Observacion:   strings.TrimSpace(in.Observacion),
		FirmaEntrega:  entregaPath,
		FirmaRecibe:   recibePath,
	}
	for _, it := range in.Items {
		entrega.Items = append(entrega.Items, model.CpEntregaActivosFijosItem{
			InventarioID: it.InventarioID,
			EsAccesorio:  it.EsAccesorio,
			Accesorio:    strings.TrimSpace(it.Accesorio),
		})
	}

	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Entregas.Create(txCtx, &entrega); err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, model.ActionCreateEntrega, entrega.ID, fmt.Sprintf("Entrega #%d", entrega.ID), map[string]interface{}{
			"personal_id": entrega.PersonalID,
			"sede_id":     entrega.SedeID,
			"items":       len(entrega.Items),
		})
	})
	if err != nil {
		s.Signatures.Discard(ctx, entregaPath, recibePath)
		return nil, apperror.FromDB(err, "Entrega")
	}
	return s.Get(ctx, entrega.ID)
}

func (s *entregaService) Delete(ctx context.Context, actor Actor, id uint) error {
	entrega, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Entregas.Delete(txCtx, id); err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, model.ActionDeleteEntrega, id, fmt.Sprintf("Entrega #%d", id), map[string]interface{}{
			"personal_id": entrega.PersonalID,
			"items":       len(entrega.Items),
		})
	})
	if err != nil {
		return apperror.FromDB(err, "Entrega")
	}
	s.Signatures.DiscardOwned(ctx, FolderFirmasEntregas, entrega.FirmaEntrega, entrega.FirmaRecibe)
	return nil
}
