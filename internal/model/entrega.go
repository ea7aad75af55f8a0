package model

import (
	"time"
)

// CpEntregaActivosFijos records the handover of fixed assets to a person
type CpEntregaActivosFijos struct {
	Base
	PersonalID    uint         `gorm:"not null;index" json:"personal_id"`
	Personal      *Personal    `gorm:"foreignKey:PersonalID" json:"personal,omitempty"`
	SedeID        uint         `gorm:"not null;index" json:"sede_id"`
	Sede          *Sede        `gorm:"foreignKey:SedeID" json:"sede,omitempty"`
	ProcesoID     uint         `gorm:"not null;index" json:"proceso_id"`
	Proceso       *Dependencia `gorm:"foreignKey:ProcesoID" json:"proceso,omitempty"`
	CoordinadorID uint         `gorm:"not null;index" json:"coordinador_id"`
	Coordinador   *User        `gorm:"foreignKey:CoordinadorID" json:"coordinador,omitempty"`
	FechaEntrega  time.Time    `gorm:"not null" json:"fecha_entrega"`
	Observacion   string       `gorm:"type:text" json:"observacion"`
	FirmaEntrega  StoragePath  `gorm:"type:varchar(255)" json:"firma_entrega"`
	FirmaRecibe   StoragePath  `gorm:"type:varchar(255)" json:"firma_recibe"`

	Items []CpEntregaActivosFijosItem `gorm:"foreignKey:EntregaID" json:"items"`
}

func (CpEntregaActivosFijos) TableName() string { return "cp_entrega_activos_fijos" }

type CpEntregaActivosFijosItem struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	EntregaID    uint        `gorm:"not null;index" json:"entrega_id"`
	InventarioID uint        `gorm:"not null;index" json:"inventario_id"`
	Inventario   *Inventario `gorm:"foreignKey:InventarioID" json:"inventario,omitempty"`
	EsAccesorio  bool        `gorm:"default:false;not null" json:"es_accesorio"`
	Accesorio    string      `gorm:"type:varchar(255)" json:"accesorio"`
}

func (CpEntregaActivosFijosItem) TableName() string { return "cp_entrega_activos_fijos_items" }
