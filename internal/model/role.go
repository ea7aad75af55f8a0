package model

// Role groups permissions. System roles are seeded and cannot be deleted.
type Role struct {
	Base
	Nombre      string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"nombre"`
	Descripcion string       `gorm:"type:text" json:"descripcion"`
	EsSistema   bool         `gorm:"default:false" json:"es_sistema"`
	Permisos    []Permission `gorm:"many2many:rol_permisos;" json:"permisos"`
}

func (Role) TableName() string { return "roles" }

// Permission is identified by its dotted name, e.g. "listar.compras"
type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Nombre      string `gorm:"type:varchar(100);uniqueIndex;not null" json:"nombre"`
	Descripcion string `gorm:"type:varchar(255);not null" json:"descripcion"`
	Grupo       string `gorm:"type:varchar(50);not null;index" json:"grupo"`
}

func (Permission) TableName() string { return "permisos" }

const (
	RoleAdmin       = "admin"
	RoleCompras     = "compras"
	RoleGerencia    = "gerencia"
	RoleSistemas    = "sistemas"
	RoleFuncionario = "funcionario"
)

const (
	PermDashboardVer      = "dashboard.ver"
	PermAuditoriaVer      = "auditoria.ver"
	PermUsuariosListar    = "usuarios.listar"
	PermUsuariosGestionar = "usuarios.gestionar"
	PermRolesGestionar    = "roles.gestionar"
	PermCrearPedidos      = "crear.pedidos"
	PermListarCompras     = "listar.compras"
	PermAprobarCompras    = "aprobar.compras"
	PermAprobarGerencia   = "aprobar.gerencia"
	PermEntregasListar    = "entregas.listar"
	PermEntregasGestionar = "entregas.gestionar"
)

// CatalogPermissions returns the list/manage permission names of a catalog resource
func CatalogPermissions(recurso string) (listar, gestionar string) {
	return recurso + ".listar", recurso + ".gestionar"
}

// Catalog resources, used as route segments and permission prefixes
const (
	RecursoSedes          = "sedes"
	RecursoDependencias   = "dependencias"
	RecursoTiposSolicitud = "tipos-solicitud"
	RecursoProductos      = "productos"
	RecursoPersonal       = "personal"
	RecursoInventario     = "inventario"
)

var CatalogResources = []string{
	RecursoSedes, RecursoDependencias, RecursoTiposSolicitud,
	RecursoProductos, RecursoPersonal, RecursoInventario,
}
