package repository

import (
	"context"
	"strings"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogEntity constrains PT to be the pointer type of a catalog table T
type CatalogEntity[T any] interface {
	*T
	model.Catalog
}

// CatalogRepository serves the simple reference tables
type CatalogRepository[T any] interface {
	List(ctx context.Context, search string, page, limit int) ([]T, int64, error)
	FindByID(ctx context.Context, id uint) (*T, error)
	FindByIDs(ctx context.Context, ids []uint) ([]T, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uint) error
}

type catalogRepository[T any, PT CatalogEntity[T]] struct {
	db *gorm.DB
}

func NewCatalogRepository[T any, PT CatalogEntity[T]](db *gorm.DB) CatalogRepository[T] {
	return &catalogRepository[T, PT]{db: db}
}

func (r *catalogRepository[T, PT]) withPreloads(db *gorm.DB) *gorm.DB {
	var zero T
	for _, p := range PT(&zero).Preloads() {
		db = db.Preload(p)
	}
	return db
}

func (r *catalogRepository[T, PT]) List(ctx context.Context, search string, page, limit int) ([]T, int64, error) {
	var items []T
	var total int64

	var zero T
	query := GetDB(ctx, r.db).Model(new(T))
	if search = strings.TrimSpace(search); search != "" {
		cols := PT(&zero).SearchColumns()
		conds := make([]string, 0, len(cols))
		args := make([]interface{}, 0, len(cols))
		for _, col := range cols {
			conds = append(conds, col+" ILIKE ?")
			args = append(args, "%"+search+"%")
		}
		if len(conds) > 0 {
			query = query.Where(strings.Join(conds, " OR "), args...)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := r.withPreloads(query).Order("id asc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *catalogRepository[T, PT]) FindByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := r.withPreloads(GetDB(ctx, r.db)).First(&entity, id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *catalogRepository[T, PT]) FindByIDs(ctx context.Context, ids []uint) ([]T, error) {
	var items []T
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.withPreloads(GetDB(ctx, r.db)).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *catalogRepository[T, PT]) Create(ctx context.Context, entity *T) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(entity).Error
}

func (r *catalogRepository[T, PT]) Update(ctx context.Context, entity *T) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(entity).Error
}

func (r *catalogRepository[T, PT]) Delete(ctx context.Context, id uint) error {
	result := GetDB(ctx, r.db).Delete(new(T), id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
