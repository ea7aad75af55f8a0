package repository

import (
	"context"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PedidoFilter narrows the pedido listing. Zero values are ignored.
type PedidoFilter struct {
	EstadoCompras  model.EstadoCompras
	EstadoGerencia model.EstadoGerencia
	SedeID         uint
	CreadorPorID   uint
	Consecutivo    int
}

type PedidoRepository interface {
	// NextConsecutivo must run inside a transaction. It serializes concurrent
	// callers until commit and never returns a number issued before.
	NextConsecutivo(ctx context.Context) (int, error)
	Create(ctx context.Context, pedido *model.CpPedido) error
	Update(ctx context.Context, pedido *model.CpPedido) error
	ReplaceItems(ctx context.Context, pedidoID uint, items []model.CpItemPedido) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.CpPedido, error)
	// FindForUpdate loads the pedido with its items and locks the row
	FindForUpdate(ctx context.Context, id uint) (*model.CpPedido, error)
	List(ctx context.Context, filter PedidoFilter, page, limit int) ([]model.CpPedido, int64, error)
	MarkItemsPurchased(ctx context.Context, pedidoID uint, itemIDs []uint) (int64, error)
}

type pedidoRepository struct {
	db *gorm.DB
}

func NewPedidoRepository(db *gorm.DB) PedidoRepository {
	return &pedidoRepository{db: db}
}

func (r *pedidoRepository) NextConsecutivo(ctx context.Context) (int, error) {
	db := GetDB(ctx, r.db)

	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", model.SecuenciaPedidos).Error; err != nil {
		return 0, err
	}

	seq := model.Consecutivo{Nombre: model.SecuenciaPedidos}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return 0, err
	}
	if err := db.First(&seq, "nombre = ?", model.SecuenciaPedidos).Error; err != nil {
		return 0, err
	}

	var maxActual int
	if err := db.Model(&model.CpPedido{}).Select("COALESCE(MAX(consecutivo), 0)").Scan(&maxActual).Error; err != nil {
		return 0, err
	}

	next := seq.Next(maxActual)
	if err := db.Model(&model.Consecutivo{}).Where("nombre = ?", seq.Nombre).Update("ultimo", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (r *pedidoRepository) Create(ctx context.Context, pedido *model.CpPedido) error {
	// Items are created through the has-many association, belongs-to rows are left alone
	return GetDB(ctx, r.db).
		Omit("ProcesoSolicitante", "TipoSolicitud", "Sede", "ElaboradoPor", "ProcesoCompra", "ResponsableAprobacion", "CreadorPor", "Items.Producto").
		Create(pedido).Error
}

func (r *pedidoRepository) Update(ctx context.Context, pedido *model.CpPedido) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(pedido).Error
}

func (r *pedidoRepository) ReplaceItems(ctx context.Context, pedidoID uint, items []model.CpItemPedido) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("cp_pedido_id = ?", pedidoID).Delete(&model.CpItemPedido{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].CpPedidoID = pedidoID
	}
	return db.Omit(clause.Associations).Create(&items).Error
}

func (r *pedidoRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("cp_pedido_id = ?", id).Delete(&model.CpItemPedido{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.CpPedido{}, id).Error
}

func (r *pedidoRepository) preloadAll(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.Producto").
		Preload("ProcesoSolicitante").
		Preload("TipoSolicitud").
		Preload("Sede").
		Preload("ElaboradoPor").
		Preload("ProcesoCompra").
		Preload("ResponsableAprobacion").
		Preload("CreadorPor")
}

func (r *pedidoRepository) FindByID(ctx context.Context, id uint) (*model.CpPedido, error) {
	var pedido model.CpPedido
	if err := r.preloadAll(GetDB(ctx, r.db)).First(&pedido, id).Error; err != nil {
		return nil, err
	}
	return &pedido, nil
}

func (r *pedidoRepository) FindForUpdate(ctx context.Context, id uint) (*model.CpPedido, error) {
	var pedido model.CpPedido
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&pedido, id).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("cp_pedido_id = ?", id).Order("id asc").Find(&pedido.Items).Error; err != nil {
		return nil, err
	}
	return &pedido, nil
}

func (r *pedidoRepository) List(ctx context.Context, filter PedidoFilter, page, limit int) ([]model.CpPedido, int64, error) {
	var pedidos []model.CpPedido
	var total int64

	query := GetDB(ctx, r.db).Model(&model.CpPedido{})
	if filter.EstadoCompras != "" {
		query = query.Where("estado_compras = ?", filter.EstadoCompras)
	}
	if filter.EstadoGerencia != "" {
		query = query.Where("estado_gerencia = ?", filter.EstadoGerencia)
	}
	if filter.SedeID != 0 {
		query = query.Where("sede_id = ?", filter.SedeID)
	}
	if filter.CreadorPorID != 0 {
		query = query.Where("creador_por_id = ?", filter.CreadorPorID)
	}
	if filter.Consecutivo != 0 {
		query = query.Where("consecutivo = ?", filter.Consecutivo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := r.preloadAll(query).Order("consecutivo desc").Offset(offset).Limit(limit).Find(&pedidos).Error; err != nil {
		return nil, 0, err
	}
	return pedidos, total, nil
}

func (r *pedidoRepository) MarkItemsPurchased(ctx context.Context, pedidoID uint, itemIDs []uint) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	result := GetDB(ctx, r.db).Model(&model.CpItemPedido{}).
		Where("cp_pedido_id = ? AND id IN ?", pedidoID, itemIDs).
		Update("comprado", true)
	return result.RowsAffected, result.Error
}
