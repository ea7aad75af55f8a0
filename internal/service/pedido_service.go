package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/config"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/export"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
)

// --- DTOs ---

type PedidoItemInput struct {
	Nombre       string `json:"nombre" binding:"required"`
	Cantidad     int    `json:"cantidad" binding:"required,min=1"`
	UnidadMedida string `json:"unidad_medida" binding:"required"`
	Referencia   string `json:"referencia_items"`
	ProductoID   *uint  `json:"producto_id"`
}

type PedidoInput struct {
	ProcesoSolicitanteID uint              `json:"proceso_solicitante_id" binding:"required"`
	TipoSolicitudID      uint              `json:"tipo_solicitud_id" binding:"required"`
	SedeID               uint              `json:"sede_id" binding:"required"`
	ElaboradoPorID       uint              `json:"elaborado_por_id"`
	FechaSolicitud       string            `json:"fecha_solicitud" binding:"omitempty,datetime=2006-01-02"`
	Observacion          string            `json:"observacion"`
	Items                []PedidoItemInput `json:"items" binding:"required,min=1,dive"`
}

type ReviewInput struct {
	Motivo string `json:"motivo"`
}

type MarkPurchasedInput struct {
	ItemIDs []uint `json:"item_ids" binding:"required,min=1"`
}

// validate repeats the binding rules for callers that skip the HTTP layer
func (in *PedidoInput) validate() error {
	fields := map[string][]string{}
	if in.ProcesoSolicitanteID == 0 {
		fields["proceso_solicitante_id"] = append(fields["proceso_solicitante_id"], "el proceso solicitante es obligatorio")
	}
	if in.TipoSolicitudID == 0 {
		fields["tipo_solicitud_id"] = append(fields["tipo_solicitud_id"], "el tipo de solicitud es obligatorio")
	}
	if in.SedeID == 0 {
		fields["sede_id"] = append(fields["sede_id"], "la sede es obligatoria")
	}
	if in.FechaSolicitud != "" {
		if _, err := time.Parse("2006-01-02", in.FechaSolicitud); err != nil {
			fields["fecha_solicitud"] = append(fields["fecha_solicitud"], "la fecha debe tener el formato AAAA-MM-DD")
		}
	}
	if len(in.Items) == 0 {
		fields["items"] = append(fields["items"], "el pedido debe tener al menos un item")
	}
	for i := range in.Items {
		item := &in.Items[i]
		item.Nombre = strings.TrimSpace(item.Nombre)
		key := fmt.Sprintf("items.%d", i)
		if item.Nombre == "" {
			fields[key+".nombre"] = append(fields[key+".nombre"], "el nombre es obligatorio")
		}
		if item.Cantidad < 1 {
			fields[key+".cantidad"] = append(fields[key+".cantidad"], "la cantidad debe ser al menos 1")
		}
		if strings.TrimSpace(item.UnidadMedida) == "" {
			fields[key+".unidad_medida"] = append(fields[key+".unidad_medida"], "la unidad de medida es obligatoria")
		}
	}
	if len(fields) > 0 {
		return apperror.ValidationFields("Los datos del pedido no son válidos", fields)
	}
	return nil
}

func (in *PedidoInput) fecha(now time.Time) time.Time {
	if in.FechaSolicitud == "" {
		return now
	}
	t, _ := time.Parse("2006-01-02", in.FechaSolicitud)
	return t
}

func (in *PedidoInput) items() []model.CpItemPedido {
	items := make([]model.CpItemPedido, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, model.CpItemPedido{
			Nombre:       it.Nombre,
			Cantidad:     it.Cantidad,
			UnidadMedida: strings.TrimSpace(it.UnidadMedida),
			Referencia:   it.Referencia,
			ProductoID:   it.ProductoID,
		})
	}
	return items
}

// --- Ports ---

// PedidoNotifier sends workflow emails. Implementations never fail the caller.
type PedidoNotifier interface {
	PedidoCreado(ctx context.Context, p *model.CpPedido, recipients []model.User)
	PedidoAprobado(ctx context.Context, p *model.CpPedido, etapa model.Etapa)
	PedidoRechazado(ctx context.Context, p *model.CpPedido, etapa model.Etapa)
}

type PedidoExporter interface {
	Export(ctx context.Context, p *model.CpPedido) (*export.Document, error)
}

// --- Interface ---

type PedidoService interface {
	List(ctx context.Context, filter repository.PedidoFilter, page, limit int) ([]model.CpPedido, int64, error)
	ListMine(ctx context.Context, actor Actor, page, limit int) ([]model.CpPedido, int64, error)
	Get(ctx context.Context, id uint) (*model.CpPedido, error)
	Create(ctx context.Context, actor Actor, in PedidoInput, firma SignatureSource) (*model.CpPedido, error)
	Update(ctx context.Context, actor Actor, id uint, in PedidoInput, firma SignatureSource) (*model.CpPedido, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	ApprovePurchasing(ctx context.Context, actor Actor, id uint, in ReviewInput, firma SignatureSource) (*model.CpPedido, error)
	RejectPurchasing(ctx context.Context, actor Actor, id uint, in ReviewInput) (*model.CpPedido, error)
	ApproveManagement(ctx context.Context, actor Actor, id uint, in ReviewInput, firma SignatureSource) (*model.CpPedido, error)
	RejectManagement(ctx context.Context, actor Actor, id uint, in ReviewInput) (*model.CpPedido, error)
	MarkItemsPurchased(ctx context.Context, actor Actor, id uint, itemIDs []uint) (*model.CpPedido, error)
	MarkSeen(ctx context.Context, actor Actor, id uint) (*model.CpPedido, error)
	Export(ctx context.Context, id uint) (*export.Document, error)
}

// PedidoDeps groups the collaborators of the pedido workflow
type PedidoDeps struct {
	TxManager    repository.TransactionManager
	Pedidos      repository.PedidoRepository
	Users        repository.UserRepository
	Audit        repository.AuditRepository
	Sedes        repository.CatalogRepository[model.Sede]
	Dependencias repository.CatalogRepository[model.Dependencia]
	Tipos        repository.CatalogRepository[model.TipoSolicitud]
	Productos    repository.CatalogRepository[model.Producto]
	Signatures   *SignatureResolver
	Notifier     PedidoNotifier
	Events       EventPublisher
	Exporter     PedidoExporter
	Policy       config.WorkflowPolicy
}

type pedidoService struct {
	PedidoDeps
	now func() time.Time
}

func NewPedidoService(deps PedidoDeps) PedidoService {
	if deps.Events == nil {
		deps.Events = noopPublisher{}
	}
	return &pedidoService{PedidoDeps: deps, now: time.Now}
}

// --- Queries ---

func (s *pedidoService) List(ctx context.Context, filter repository.PedidoFilter, page, limit int) ([]model.CpPedido, int64, error) {
	if filter.EstadoCompras != "" && !filter.EstadoCompras.Valid() {
		return nil, 0, apperror.Validation("estado_compras no es válido")
	}
	if filter.EstadoGerencia != "" && !filter.EstadoGerencia.Valid() {
		return nil, 0, apperror.Validation("estado_gerencia no es válido")
	}
	pedidos, total, err := s.Pedidos.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "Pedido")
	}
	return pedidos, total, nil
}

func (s *pedidoService) ListMine(ctx context.Context, actor Actor, page, limit int) ([]model.CpPedido, int64, error) {
	return s.List(ctx, repository.PedidoFilter{CreadorPorID: actor.UserID}, page, limit)
}

func (s *pedidoService) Get(ctx context.Context, id uint) (*model.CpPedido, error) {
	pedido, err := s.Pedidos.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "Pedido")
	}
	return pedido, nil
}

func (s *pedidoService) Export(ctx context.Context, id uint) (*export.Document, error) {
	pedido, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.Exporter.Export(ctx, pedido)
	if err != nil {
		return nil, apperror.Internal("no se pudo generar el documento del pedido", err)
	}
	return doc, nil
}

// checkReferences verifies that every catalog row named by in exists
func (s *pedidoService) checkReferences(ctx context.Context, in *PedidoInput) error {
	if _, err := s.Dependencias.FindByID(ctx, in.ProcesoSolicitanteID); err != nil {
		return apperror.FromDB(err, "Proceso solicitante")
	}
	if _, err := s.Tipos.FindByID(ctx, in.TipoSolicitudID); err != nil {
		return apperror.FromDB(err, "Tipo de solicitud")
	}
	if _, err := s.Sedes.FindByID(ctx, in.SedeID); err != nil {
		return apperror.FromDB(err, "Sede")
	}
	if in.ElaboradoPorID != 0 {
		if _, err := s.Users.GetByID(ctx, in.ElaboradoPorID); err != nil {
			return apperror.FromDB(err, "Usuario elaborador")
		}
	}

	var productIDs []uint
	seen := map[uint]bool{}
	for _, it := range in.Items {
		if it.ProductoID != nil && !seen[*it.ProductoID] {
			seen[*it.ProductoID] = true
			productIDs = append(productIDs, *it.ProductoID)
		}
	}
	if len(productIDs) == 0 {
		return nil
	}
	found, err := s.Productos.FindByIDs(ctx, productIDs)
	if err != nil {
		return apperror.FromDB(err, "Producto")
	}
	if len(found) != len(productIDs) {
		return apperror.NotFound("Uno o más productos no existen")
	}
	return nil
}

// --- Create / Update / Delete ---

func (s *pedidoService) Create(ctx context.Context, actor Actor, in PedidoInput, firma SignatureSource) (*model.CpPedido, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if firma.Empty() {
		return nil, apperror.ValidationFields("La firma es obligatoria", map[string][]string{
			"firma": {"envíe una firma o use la firma guardada"},
		})
	}
	if err := s.checkReferences(ctx, &in); err != nil {
		return nil, err
	}

	firmaPath, err := s.Signatures.Resolve(ctx, FolderFirmasPedidos, string(model.EtapaElaborado), actor.UserID, firma)
	if err != nil {
		return nil, err
	}

	elaboradoPor := in.ElaboradoPorID
	if elaboradoPor == 0 {
		elaboradoPor = actor.UserID
	}
	pedido := model.CpPedido{
		EstadoCompras:        model.ComprasPendiente,
		EstadoGerencia:       model.GerenciaPendiente,
		FechaSolicitud:       in.fecha(s.now()),
		Observacion:          strings.TrimSpace(in.Observacion),
		ProcesoSolicitanteID: in.ProcesoSolicitanteID,
		TipoSolicitudID:      in.TipoSolicitudID,
		SedeID:               in.SedeID,
		ElaboradoPorID:       elaboradoPor,
		ElaboradoPorFirma:    firmaPath,
		CreadorPorID:         actor.UserID,
		Items:                in.items(),
	}

	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		next, err := s.Pedidos.NextConsecutivo(txCtx)
		if err != nil {
			return fmt.Errorf("failed to assign consecutivo: %w", err)
		}
		pedido.Consecutivo = next

		if err := s.Pedidos.Create(txCtx, &pedido); err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, model.ActionCreatePedido, pedido.ID, fmt.Sprintf("Pedido #%d", pedido.Consecutivo), map[string]interface{}{
			"consecutivo": pedido.Consecutivo,
			"sede_id":     pedido.SedeID,
			"items":       len(pedido.Items),
		})
	})
	if err != nil {
		s.Signatures.Discard(ctx, firmaPath)
		return nil, apperror.FromDB(err, "Pedido")
	}

	created, err := s.Get(ctx, pedido.ID)
	if err != nil {
		return nil, err
	}

	recipients, err := s.Users.ListActiveWithPermission(ctx, model.PermListarCompras)
	if err != nil {
		logging.Error("failed to load pedido notification recipients", err, map[string]interface{}{"pedido_id": created.ID})
		recipients = nil
	}
	s.Notifier.PedidoCreado(ctx, created, recipients)
	s.Events.Publish(EventPedidoCreado, created)
	return created, nil
}

// canEdit allows the creator and admins to change or remove a pedido
func canEdit(actor Actor, p *model.CpPedido) bool {
	return actor.Role == model.RoleAdmin || p.CreadorPorID == actor.UserID
}

func (s *pedidoService) Update(ctx context.Context, actor Actor, id uint, in PedidoInput, firma SignatureSource) (*model.CpPedido, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(actor, current) {
		return nil, apperror.Forbidden("Solo el creador del pedido puede modificarlo")
	}
	if !current.Pending() {
		return nil, apperror.BusinessRule("No se puede modificar un pedido que ya fue procesado")
	}
	if err := s.checkReferences(ctx, &in); err != nil {
		return nil, err
	}

	newFirma, err := s.Signatures.Resolve(ctx, FolderFirmasPedidos, string(model.EtapaElaborado), actor.UserID, firma)
	if err != nil {
		return nil, err
	}

	var oldFirma model.StoragePath
	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		pedido, err := s.Pedidos.FindForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		// Re-checked under the row lock
		if !pedido.Pending() {
			return apperror.BusinessRule("No se puede modificar un pedido que ya fue procesado")
		}

		pedido.FechaSolicitud = in.fecha(pedido.FechaSolicitud)
		pedido.Observacion = strings.TrimSpace(in.Observacion)
		pedido.ProcesoSolicitanteID = in.ProcesoSolicitanteID
		pedido.TipoSolicitudID = in.TipoSolicitudID
		pedido.SedeID = in.SedeID
		if in.ElaboradoPorID != 0 {
			pedido.ElaboradoPorID = in.ElaboradoPorID
		}
		if !newFirma.IsZero() {
			oldFirma = pedido.ElaboradoPorFirma
			pedido.ElaboradoPorFirma = newFirma
		}
		items := in.items()
		pedido.Items = nil

		if err := s.Pedidos.Update(txCtx, pedido); err != nil {
			return err
		}
		if err := s.Pedidos.ReplaceItems(txCtx, pedido.ID, items); err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, model.ActionUpdatePedido, pedido.ID, fmt.Sprintf("Pedido #%d", pedido.Consecutivo), map[string]interface{}{
			"items":          len(items),
			"firma_cambiada": !newFirma.IsZero(),
		})
	})
	if err != nil {
		s.Signatures.Discard(ctx, newFirma)
		return nil, apperror.FromDB(err, "Pedido")
	}
	s.Signatures.DiscardOwned(ctx, FolderFirmasPedidos, oldFirma)

	return s.Get(ctx, id)
}

func (s *pedidoService) Delete(ctx context.Context, actor Actor, id uint) error {
	var deleted model.CpPedido
	err := s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		pedido, err := s.Pedidos.FindForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !canEdit(actor, pedido) {
			return apperror.Forbidden("Solo el creador del pedido puede eliminarlo")
		}
		if !pedido.Pending() {
			return apperror.BusinessRule("No se puede eliminar un pedido que ya fue procesado")
		}
		if err := s.Pedidos.Delete(txCtx, pedido.ID); err != nil {
			return err
		}
		deleted = *pedido
		return writeAudit(txCtx, s.Audit, actor, model.ActionDeletePedido, pedido.ID, fmt.Sprintf("Pedido #%d", pedido.Consecutivo), map[string]interface{}{
			"consecutivo": pedido.Consecutivo,
			"items":       len(pedido.Items),
		})
	})
	if err != nil {
		return apperror.FromDB(err, "Pedido")
	}

	s.Signatures.DiscardOwned(ctx, FolderFirmasPedidos, deleted.ElaboradoPorFirma)
	s.Events.Publish(EventPedidoEliminado, map[string]interface{}{"id": deleted.ID, "consecutivo": deleted.Consecutivo})
	return nil
}

// --- Workflow transitions ---

func (s *pedidoService) ApprovePurchasing(ctx context.Context, actor Actor, id uint, in ReviewInput, firma SignatureSource) (*model.CpPedido, error) {
	return s.review(ctx, actor, id, model.EtapaCompras, model.DecisionAprobar, in, firma, true, false)
}

func (s *pedidoService) RejectPurchasing(ctx context.Context, actor Actor, id uint, in ReviewInput) (*model.CpPedido, error) {
	return s.review(ctx, actor, id, model.EtapaCompras, model.DecisionRechazar, in, SignatureSource{}, false, s.Policy.RequirePurchasingRejectReason)
}

func (s *pedidoService) ApproveManagement(ctx context.Context, actor Actor, id uint, in ReviewInput, firma SignatureSource) (*model.CpPedido, error) {
	return s.review(ctx, actor, id, model.EtapaGerencia, model.DecisionAprobar, in, firma, s.Policy.RequireManagementSignature, false)
}

func (s *pedidoService) RejectManagement(ctx context.Context, actor Actor, id uint, in ReviewInput) (*model.CpPedido, error) {
	return s.review(ctx, actor, id, model.EtapaGerencia, model.DecisionRechazar, in, SignatureSource{}, false, true)
}

func reviewAction(etapa model.Etapa, d model.Decision) string {
	switch {
	case etapa == model.EtapaCompras && d == model.DecisionAprobar:
		return model.ActionApprovePedidoCompras
	case etapa == model.EtapaCompras:
		return model.ActionRejectPedidoCompras
	case d == model.DecisionAprobar:
		return model.ActionApprovePedidoGerencia
	default:
		return model.ActionRejectPedidoGerencia
	}
}

func (s *pedidoService) review(ctx context.Context, actor Actor, id uint, etapa model.Etapa, decision model.Decision, in ReviewInput, firma SignatureSource, requireFirma, requireMotivo bool) (*model.CpPedido, error) {
	motivo := strings.TrimSpace(in.Motivo)
	if requireMotivo && motivo == "" {
		return nil, apperror.ValidationFields("El motivo es obligatorio", map[string][]string{
			"motivo": {"indique el motivo del rechazo"},
		})
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if requireFirma && firma.Empty() {
		return nil, apperror.BusinessRule("La firma es obligatoria para aprobar el pedido")
	}

	newFirma, err := s.Signatures.Resolve(ctx, FolderFirmasPedidos, string(etapa), actor.UserID, firma)
	if err != nil {
		return nil, err
	}
	if requireFirma && newFirma.IsZero() {
		return nil, apperror.BusinessRule("La firma es obligatoria para aprobar el pedido")
	}

	var replaced model.StoragePath
	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		pedido, err := s.Pedidos.FindForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		prev, err := pedido.ApplyReview(model.Review{
			Etapa:    etapa,
			Decision: decision,
			UserID:   actor.UserID,
			Firma:    newFirma,
			Motivo:   motivo,
			At:       s.now(),
		})
		if err != nil {
			return apperror.BusinessRule(err.Error())
		}
		replaced = prev
		pedido.Items = nil
		if err := s.Pedidos.Update(txCtx, pedido); err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, reviewAction(etapa, decision), pedido.ID, fmt.Sprintf("Pedido #%d", pedido.Consecutivo), map[string]interface{}{
			"etapa":           etapa,
			"decision":        decision,
			"motivo":          motivo,
			"estado_compras":  pedido.EstadoCompras,
			"estado_gerencia": pedido.EstadoGerencia,
		})
	})
	if err != nil {
		s.Signatures.Discard(ctx, newFirma)
		return nil, apperror.FromDB(err, "Pedido")
	}
	s.Signatures.DiscardOwned(ctx, FolderFirmasPedidos, replaced)

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision == model.DecisionAprobar {
		s.Notifier.PedidoAprobado(ctx, updated, etapa)
		s.Events.Publish(EventPedidoAprobado, updated)
	} else {
		s.Notifier.PedidoRechazado(ctx, updated, etapa)
		s.Events.Publish(EventPedidoRechazado, updated)
	}
	return updated, nil
}

func (s *pedidoService) MarkItemsPurchased(ctx context.Context, actor Actor, id uint, itemIDs []uint) (*model.CpPedido, error) {
	if len(itemIDs) == 0 {
		return nil, apperror.ValidationFields("Debe indicar los items comprados", map[string][]string{
			"item_ids": {"seleccione al menos un item"},
		})
	}
	err := s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		pedido, err := s.Pedidos.FindForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		// ids of other pedidos are filtered out by the update itself
		affected, err := s.Pedidos.MarkItemsPurchased(txCtx, pedido.ID, itemIDs)
		if err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, model.ActionMarkItemsPurchased, pedido.ID, fmt.Sprintf("Pedido #%d", pedido.Consecutivo), map[string]interface{}{
			"solicitados":  itemIDs,
			"actualizados": affected,
		})
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Pedido")
	}
	return s.Get(ctx, id)
}

func (s *pedidoService) MarkSeen(ctx context.Context, actor Actor, id uint) (*model.CpPedido, error) {
	err := s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		pedido, err := s.Pedidos.FindForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		before := pedido.EstadoCompras
		pedido.PedidoVisto = true
		pedido.EstadoCompras = pedido.EstadoCompras.Seen()
		pedido.Items = nil
		if err := s.Pedidos.Update(txCtx, pedido); err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, model.ActionMarkPedidoSeen, pedido.ID, fmt.Sprintf("Pedido #%d", pedido.Consecutivo), map[string]interface{}{
			"estado_anterior": before,
			"estado_compras":  pedido.EstadoCompras,
		})
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Pedido")
	}
	return s.Get(ctx, id)
}
