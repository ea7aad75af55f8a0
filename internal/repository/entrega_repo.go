package repository

import (
	"context"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"

	"gorm.io/gorm"
)

// EntregaFilter narrows the handover listing. Zero values are ignored.
type EntregaFilter struct {
	SedeID     uint
	PersonalID uint
}

type EntregaRepository interface {
	Create(ctx context.Context, entrega *model.CpEntregaActivosFijos) error
	FindByID(ctx context.Context, id uint) (*model.CpEntregaActivosFijos, error)
	List(ctx context.Context, filter EntregaFilter, page, limit int) ([]model.CpEntregaActivosFijos, int64, error)
	Delete(ctx context.Context, id uint) error
}

type entregaRepository struct {
	db *gorm.DB
}

func NewEntregaRepository(db *gorm.DB) EntregaRepository {
	return &entregaRepository{db: db}
}

func (r *entregaRepository) Create(ctx context.Context, entrega *model.CpEntregaActivosFijos) error {
	return GetDB(ctx, r.db).
		Omit("Personal", "Sede", "Proceso", "Coordinador", "Items.Inventario").
		Create(entrega).Error
}

func (r *entregaRepository) preloadAll(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.Inventario").
		Preload("Personal").
		Preload("Sede").
		Preload("Proceso").
		Preload("Coordinador")
}

func (r *entregaRepository) FindByID(ctx context.Context, id uint) (*model.CpEntregaActivosFijos, error) {
	var entrega model.CpEntregaActivosFijos
	if err := r.preloadAll(GetDB(ctx, r.db)).First(&entrega, id).Error; err != nil {
		return nil, err
	}
	return &entrega, nil
}

func (r *entregaRepository) List(ctx context.Context, filter EntregaFilter, page, limit int) ([]model.CpEntregaActivosFijos, int64, error) {
	var entregas []model.CpEntregaActivosFijos
	var total int64

	query := GetDB(ctx, r.db).Model(&model.CpEntregaActivosFijos{})
	if filter.SedeID != 0 {
		query = query.Where("sede_id = ?", filter.SedeID)
	}
	if filter.PersonalID != 0 {
		query = query.Where("personal_id = ?", filter.PersonalID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := r.preloadAll(query).Order("fecha_entrega desc, id desc").Offset(offset).Limit(limit).Find(&entregas).Error; err != nil {
		return nil, 0, err
	}
	return entregas, total, nil
}

func (r *entregaRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("entrega_id = ?", id).Delete(&model.CpEntregaActivosFijosItem{}).Error; err != nil {
		return err
	}
	result := db.Delete(&model.CpEntregaActivosFijos{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
