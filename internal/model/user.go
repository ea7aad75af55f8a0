package model

import (
	"gorm.io/gorm"
)

// User is a back-office account. FirmaDigital is the profile signature image.
type User struct {
	Base
	Nombre       string         `gorm:"type:varchar(255);not null" json:"nombre"`
	Usuario      string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"usuario"`
	Correo       string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"correo"`
	Contrasena   string         `gorm:"type:varchar(255);not null" json:"-"`
	Telefono     string         `gorm:"type:varchar(30)" json:"telefono"`
	RoleID       uint           `gorm:"not null;index" json:"rol_id"`
	Role         *Role          `gorm:"foreignKey:RoleID" json:"rol,omitempty"`
	SedeID       *uint          `gorm:"index" json:"sede_id"`
	Sede         *Sede          `gorm:"foreignKey:SedeID" json:"sede,omitempty"`
	FirmaDigital StoragePath    `gorm:"type:varchar(255)" json:"firma_digital"`
	Estado       bool           `gorm:"default:true;not null" json:"estado"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "usuarios" }

// RoleName returns the preloaded role name or ""
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Nombre
}
