package repository

import (
	"context"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByUsuario(ctx context.Context, usuario string) (*model.User, error)
	GetByCorreo(ctx context.Context, correo string) (*model.User, error)
	List(ctx context.Context, search string, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
	// ListActiveWithPermission returns active users whose role holds the permission
	ListActiveWithPermission(ctx context.Context, permission string) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Role").Preload("Sede").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsuario(ctx context.Context, usuario string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Role").First(&user, "usuario = ?", usuario).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByCorreo(ctx context.Context, correo string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "correo = ?", correo).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, search string, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := GetDB(ctx, r.db).Model(&model.User{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("nombre ILIKE ? OR usuario ILIKE ? OR correo ILIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Role").Preload("Sede").Order("nombre asc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.User{}, id).Error
}

func (r *userRepository) ListActiveWithPermission(ctx context.Context, permission string) ([]model.User, error) {
	var users []model.User
	err := GetDB(ctx, r.db).
		Joins("INNER JOIN rol_permisos rp ON rp.role_id = usuarios.role_id").
		Joins("INNER JOIN permisos p ON p.id = rp.permission_id").
		Where("p.nombre = ? AND usuarios.estado = ?", permission, true).
		Distinct("usuarios.*").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
