package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActionCreatePedido          = "CREATE_PEDIDO"
	ActionUpdatePedido          = "UPDATE_PEDIDO"
	ActionDeletePedido          = "DELETE_PEDIDO"
	ActionApprovePedidoCompras  = "APPROVE_PEDIDO_COMPRAS"
	ActionRejectPedidoCompras   = "REJECT_PEDIDO_COMPRAS"
	ActionApprovePedidoGerencia = "APPROVE_PEDIDO_GERENCIA"
	ActionRejectPedidoGerencia  = "REJECT_PEDIDO_GERENCIA"
	ActionMarkItemsPurchased    = "MARK_ITEMS_PURCHASED"
	ActionMarkPedidoSeen        = "MARK_PEDIDO_SEEN"
	ActionCreateEntrega         = "CREATE_ENTREGA"
	ActionDeleteEntrega         = "DELETE_ENTREGA"
	ActionCreateCatalog         = "CREATE_CATALOG"
	ActionUpdateCatalog         = "UPDATE_CATALOG"
	ActionDeleteCatalog         = "DELETE_CATALOG"
	ActionCreateUser            = "CREATE_USER"
	ActionUpdateUser            = "UPDATE_USER"
	ActionDeleteUser            = "DELETE_USER"
	ActionUpdateUserSignature   = "UPDATE_USER_SIGNATURE"
	ActionCreateRole            = "CREATE_ROLE"
	ActionUpdateRole            = "UPDATE_ROLE"
	ActionDeleteRole            = "DELETE_ROLE"
	ActionUpdateRolePermissions = "UPDATE_ROLE_PERMISSIONS"
)

// AuditLog tracks who changed what and when
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     *uint          `gorm:"index" json:"user_id"`
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "auditoria" }
