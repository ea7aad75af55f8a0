package repository

import (
	"context"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)
	CountUsers(ctx context.Context, roleID uint) (int64, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	FindPermissionsByIDs(ctx context.Context, ids []uint) ([]model.Permission, error)
	ReplacePermissions(ctx context.Context, roleID uint, perms []model.Permission) error
	PermissionNamesByRole(ctx context.Context, roleName string) ([]string, error)
	FindOrCreatePermission(ctx context.Context, perm *model.Permission) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Omit("Permisos").Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(role).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	role := model.Role{Base: model.Base{ID: id}}
	if err := db.Model(&role).Association("Permisos").Clear(); err != nil {
		return err
	}
	return db.Delete(&model.Role{}, id).Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permisos").First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permisos").Where("nombre = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Preload("Permisos").Order("nombre asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) CountUsers(ctx context.Context, roleID uint) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("grupo asc, nombre asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) FindPermissionsByIDs(ctx context.Context, ids []uint) ([]model.Permission, error) {
	var perms []model.Permission
	if len(ids) == 0 {
		return perms, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) ReplacePermissions(ctx context.Context, roleID uint, perms []model.Permission) error {
	role := model.Role{Base: model.Base{ID: roleID}}
	return GetDB(ctx, r.db).Model(&role).Association("Permisos").Replace(perms)
}

func (r *roleRepository) PermissionNamesByRole(ctx context.Context, roleName string) ([]string, error) {
	var names []string
	err := GetDB(ctx, r.db).Raw(`
		SELECT p.nombre FROM permisos p
		INNER JOIN rol_permisos rp ON rp.permission_id = p.id
		INNER JOIN roles r ON r.id = rp.role_id
		WHERE r.nombre = ?
	`, roleName).Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *roleRepository) FindOrCreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).
		Where("nombre = ?", perm.Nombre).
		Assign(model.Permission{Descripcion: perm.Descripcion, Grupo: perm.Grupo}).
		FirstOrCreate(perm).Error
}
