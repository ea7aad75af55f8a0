package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"

	"gorm.io/gorm"
)

// --- DTOs ---

type RoleInput struct {
	Nombre      string `json:"nombre" binding:"required"`
	Descripcion string `json:"descripcion"`
	PermisoIDs  []uint `json:"permiso_ids"`
}

type RolePermissionsInput struct {
	PermisoIDs []uint `json:"permiso_ids" binding:"required"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]model.Role, error)
	GetRole(ctx context.Context, id uint) (*model.Role, error)
	CreateRole(ctx context.Context, actor Actor, in RoleInput) (*model.Role, error)
	UpdateRole(ctx context.Context, actor Actor, id uint, in RoleInput) (*model.Role, error)
	DeleteRole(ctx context.Context, actor Actor, id uint) error
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	UpdateRolePermissions(ctx context.Context, actor Actor, id uint, in RolePermissionsInput) (*model.Role, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	repo      repository.RoleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	perms     PermissionService
}

func NewRoleService(repo repository.RoleRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, perms PermissionService) RoleService {
	return &roleService{repo: repo, auditRepo: auditRepo, txManager: txManager, perms: perms}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperror.FromDB(err, "Rol")
	}
	return roles, nil
}

func (s *roleService) GetRole(ctx context.Context, id uint) (*model.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "Rol")
	}
	return role, nil
}

// findPermissions resolves ids and fails when any of them does not exist
func (s *roleService) findPermissions(ctx context.Context, ids []uint) ([]model.Permission, error) {
	perms, err := s.repo.FindPermissionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	unique := map[uint]bool{}
	for _, id := range ids {
		unique[id] = true
	}
	if len(perms) != len(unique) {
		return nil, apperror.NotFound("Uno o más permisos no existen")
	}
	return perms, nil
}

func (s *roleService) CreateRole(ctx context.Context, actor Actor, in RoleInput) (*model.Role, error) {
	nombre := strings.ToLower(strings.TrimSpace(in.Nombre))
	if nombre == "" {
		return nil, apperror.ValidationFields("El nombre es obligatorio", map[string][]string{"nombre": {"el nombre es obligatorio"}})
	}
	role := model.Role{Nombre: nombre, Descripcion: in.Descripcion}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &role); err != nil {
			return err
		}
		if len(in.PermisoIDs) > 0 {
			perms, err := s.findPermissions(txCtx, in.PermisoIDs)
			if err != nil {
				return err
			}
			if err := s.repo.ReplacePermissions(txCtx, role.ID, perms); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateRole, role.ID, role.Nombre, map[string]interface{}{
			"permisos": in.PermisoIDs,
		})
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Rol")
	}
	return s.GetRole(ctx, role.ID)
}

func (s *roleService) UpdateRole(ctx context.Context, actor Actor, id uint, in RoleInput) (*model.Role, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	nombre := strings.ToLower(strings.TrimSpace(in.Nombre))
	if nombre == "" {
		return nil, apperror.ValidationFields("El nombre es obligatorio", map[string][]string{"nombre": {"el nombre es obligatorio"}})
	}
	if role.EsSistema && nombre != role.Nombre {
		return nil, apperror.BusinessRule("No se puede renombrar un rol del sistema")
	}
	oldName := role.Nombre
	role.Nombre = nombre
	role.Descripcion = in.Descripcion
	role.Permisos = nil

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, role); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateRole, role.ID, role.Nombre, map[string]interface{}{
			"nombre_anterior": oldName,
		})
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Rol")
	}
	s.perms.ClearCache(oldName)
	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, actor Actor, id uint) error {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.EsSistema {
		return apperror.BusinessRule(fmt.Sprintf("No se puede eliminar el rol del sistema '%s'", role.Nombre))
	}
	users, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return apperror.FromDB(err, "Rol")
	}
	if users > 0 {
		return apperror.Conflict(fmt.Sprintf("El rol '%s' tiene %d usuarios asignados", role.Nombre, users))
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteRole, id, role.Nombre, nil)
	})
	if err != nil {
		return apperror.FromDB(err, "Rol")
	}
	s.perms.ClearCache(role.Nombre)
	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, apperror.FromDB(err, "Permiso")
	}
	return perms, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, actor Actor, id uint, in RolePermissionsInput) (*model.Role, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		perms, err := s.findPermissions(txCtx, in.PermisoIDs)
		if err != nil {
			return err
		}
		if err := s.repo.ReplacePermissions(txCtx, role.ID, perms); err != nil {
			return fmt.Errorf("failed to update permissions: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateRolePermissions, role.ID, role.Nombre, map[string]interface{}{
			"permisos": in.PermisoIDs,
		})
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Rol")
	}
	s.perms.ClearCache(role.Nombre)
	return s.GetRole(ctx, id)
}

// DefaultPermissions lists every permission the API checks
func DefaultPermissions() []model.Permission {
	perms := []model.Permission{
		{Nombre: model.PermDashboardVer, Descripcion: "Ver dashboard", Grupo: "dashboard"},
		{Nombre: model.PermAuditoriaVer, Descripcion: "Ver auditoría", Grupo: "auditoria"},
		{Nombre: model.PermUsuariosListar, Descripcion: "Listar usuarios", Grupo: "usuarios"},
		{Nombre: model.PermUsuariosGestionar, Descripcion: "Gestionar usuarios", Grupo: "usuarios"},
		{Nombre: model.PermRolesGestionar, Descripcion: "Gestionar roles y permisos", Grupo: "roles"},
		{Nombre: model.PermCrearPedidos, Descripcion: "Crear y consultar pedidos propios", Grupo: "pedidos"},
		{Nombre: model.PermListarCompras, Descripcion: "Listar pedidos de compra", Grupo: "pedidos"},
		{Nombre: model.PermAprobarCompras, Descripcion: "Aprobar o rechazar en compras", Grupo: "pedidos"},
		{Nombre: model.PermAprobarGerencia, Descripcion: "Aprobar o rechazar en gerencia", Grupo: "pedidos"},
		{Nombre: model.PermEntregasListar, Descripcion: "Listar entregas de activos", Grupo: "entregas"},
		{Nombre: model.PermEntregasGestionar, Descripcion: "Registrar entregas de activos", Grupo: "entregas"},
	}
	for _, recurso := range model.CatalogResources {
		listar, gestionar := model.CatalogPermissions(recurso)
		perms = append(perms,
			model.Permission{Nombre: listar, Descripcion: "Listar " + recurso, Grupo: recurso},
			model.Permission{Nombre: gestionar, Descripcion: "Gestionar " + recurso, Grupo: recurso},
		)
	}
	return perms
}

func catalogListar(recursos ...string) []string {
	out := make([]string, 0, len(recursos))
	for _, r := range recursos {
		listar, _ := model.CatalogPermissions(r)
		out = append(out, listar)
	}
	return out
}

func catalogGestionar(recursos ...string) []string {
	out := make([]string, 0, len(recursos))
	for _, r := range recursos {
		_, gestionar := model.CatalogPermissions(r)
		out = append(out, gestionar)
	}
	return out
}

// defaultRoles maps each system role to its initial permission names.
// admin is handled separately and always holds every permission.
func defaultRoles() map[string]struct {
	Descripcion string
	Permisos    []string
} {
	all := model.CatalogResources
	pedidoCatalogs := []string{model.RecursoSedes, model.RecursoDependencias, model.RecursoTiposSolicitud, model.RecursoProductos}

	return map[string]struct {
		Descripcion string
		Permisos    []string
	}{
		model.RoleCompras: {
			Descripcion: "Compras: revisa y aprueba pedidos en primera instancia",
			Permisos: append(append([]string{
				model.PermDashboardVer, model.PermCrearPedidos, model.PermListarCompras, model.PermAprobarCompras,
			}, catalogListar(all...)...), catalogGestionar(model.RecursoProductos, model.RecursoTiposSolicitud)...),
		},
		model.RoleGerencia: {
			Descripcion: "Gerencia: aprobación final de pedidos",
			Permisos: append([]string{
				model.PermDashboardVer, model.PermAuditoriaVer, model.PermCrearPedidos,
				model.PermListarCompras, model.PermAprobarGerencia, model.PermEntregasListar,
			}, catalogListar(all...)...),
		},
		model.RoleSistemas: {
			Descripcion: "Sistemas: inventario y entregas de activos",
			Permisos: append(append([]string{
				model.PermDashboardVer, model.PermCrearPedidos, model.PermUsuariosListar,
				model.PermEntregasListar, model.PermEntregasGestionar,
			}, catalogListar(all...)...), catalogGestionar(model.RecursoInventario, model.RecursoPersonal)...),
		},
		model.RoleFuncionario: {
			Descripcion: "Funcionario: crea y consulta sus pedidos",
			Permisos:    append([]string{model.PermCrearPedidos}, catalogListar(pedidoCatalogs...)...),
		},
	}
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles.
// Existing roles keep their permissions, except admin which is resynced.
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		defaults := DefaultPermissions()
		permByName := make(map[string]model.Permission, len(defaults))
		for i := range defaults {
			p := &defaults[i]
			if err := s.repo.FindOrCreatePermission(txCtx, p); err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", p.Nombre, err)
			}
			permByName[p.Nombre] = *p
		}

		admin, err := s.ensureRole(txCtx, model.RoleAdmin, "Administrador: acceso total")
		if err != nil {
			return err
		}
		if err := s.repo.ReplacePermissions(txCtx, admin.ID, defaults); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", admin.Nombre, err)
		}

		for name, def := range defaultRoles() {
			existing, err := s.repo.FindByName(txCtx, name)
			if err == nil {
				if !existing.EsSistema {
					logging.LogKV("warn", "role name reserved for a system role already exists", map[string]interface{}{"role": name})
				}
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			role, err := s.ensureRole(txCtx, name, def.Descripcion)
			if err != nil {
				return err
			}
			perms := make([]model.Permission, 0, len(def.Permisos))
			for _, n := range def.Permisos {
				if p, ok := permByName[n]; ok {
					perms = append(perms, p)
				}
			}
			if err := s.repo.ReplacePermissions(txCtx, role.ID, perms); err != nil {
				return fmt.Errorf("failed to assign permissions to role '%s': %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.perms.ClearCache("")
	return nil
}

func (s *roleService) ensureRole(ctx context.Context, name, descripcion string) (*model.Role, error) {
	role, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	role = &model.Role{Nombre: name, Descripcion: descripcion, EsSistema: true}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to seed role '%s': %w", name, err)
	}
	return role, nil
}
