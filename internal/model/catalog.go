package model

import (
	"errors"
	"strings"
)

// Catalog is implemented by the pointer type of every reference table served
// by the generic catalog repository and service.
type Catalog interface {
	GetID() uint
	SetID(id uint)
	// Validate checks required fields and normalizes values before persisting
	Validate() error
	SearchColumns() []string
	Preloads() []string
}

// Sede is a physical site
type Sede struct {
	Base
	Nombre    string `gorm:"type:varchar(150);uniqueIndex;not null" json:"nombre"`
	Direccion string `gorm:"type:varchar(255)" json:"direccion"`
	Telefono  string `gorm:"type:varchar(30)" json:"telefono"`
	Estado    bool   `gorm:"default:true;not null" json:"estado"`
}

func (Sede) TableName() string { return "sedes" }

func (s *Sede) Validate() error {
	s.Nombre = strings.TrimSpace(s.Nombre)
	if s.Nombre == "" {
		return errors.New("nombre es obligatorio")
	}
	return nil
}

func (s *Sede) SearchColumns() []string { return []string{"nombre", "direccion"} }

func (s *Sede) Preloads() []string { return nil }

// Dependencia is a requesting process or department
type Dependencia struct {
	Base
	Nombre string `gorm:"type:varchar(150);uniqueIndex;not null" json:"nombre"`
	Codigo string `gorm:"type:varchar(30)" json:"codigo"`
	SedeID *uint  `gorm:"index" json:"sede_id"`
	Sede   *Sede  `gorm:"foreignKey:SedeID" json:"sede,omitempty"`
}

func (Dependencia) TableName() string { return "dependencias" }

func (d *Dependencia) Validate() error {
	d.Nombre = strings.TrimSpace(d.Nombre)
	if d.Nombre == "" {
		return errors.New("nombre es obligatorio")
	}
	d.Sede = nil
	return nil
}

func (d *Dependencia) SearchColumns() []string { return []string{"nombre", "codigo"} }

func (d *Dependencia) Preloads() []string { return []string{"Sede"} }

type TipoSolicitud struct {
	Base
	Nombre      string `gorm:"type:varchar(150);uniqueIndex;not null" json:"nombre"`
	Descripcion string `gorm:"type:text" json:"descripcion"`
}

func (TipoSolicitud) TableName() string { return "cp_tipos_solicitud" }

func (t *TipoSolicitud) Validate() error {
	t.Nombre = strings.TrimSpace(t.Nombre)
	if t.Nombre == "" {
		return errors.New("nombre es obligatorio")
	}
	return nil
}

func (t *TipoSolicitud) SearchColumns() []string { return []string{"nombre"} }

func (t *TipoSolicitud) Preloads() []string { return nil }

// Producto is an item that can be requested in a purchase order
type Producto struct {
	Base
	Codigo       string `gorm:"type:varchar(50);uniqueIndex;not null" json:"codigo"`
	Nombre       string `gorm:"type:varchar(255);not null" json:"nombre"`
	UnidadMedida string `gorm:"type:varchar(50)" json:"unidad_medida"`
	Descripcion  string `gorm:"type:text" json:"descripcion"`
}

func (Producto) TableName() string { return "cp_productos" }

func (p *Producto) Validate() error {
	p.Codigo = strings.TrimSpace(p.Codigo)
	p.Nombre = strings.TrimSpace(p.Nombre)
	if p.Codigo == "" {
		return errors.New("codigo es obligatorio")
	}
	if p.Nombre == "" {
		return errors.New("nombre es obligatorio")
	}
	return nil
}

func (p *Producto) SearchColumns() []string { return []string{"codigo", "nombre"} }

func (p *Producto) Preloads() []string { return nil }

// Personal is staff that can receive assets. Not every person has an account.
type Personal struct {
	Base
	Nombre        string       `gorm:"type:varchar(255);not null" json:"nombre"`
	Cedula        string       `gorm:"type:varchar(30);uniqueIndex;not null" json:"cedula"`
	Cargo         string       `gorm:"type:varchar(150)" json:"cargo"`
	Telefono      string       `gorm:"type:varchar(30)" json:"telefono"`
	SedeID        *uint        `gorm:"index" json:"sede_id"`
	Sede          *Sede        `gorm:"foreignKey:SedeID" json:"sede,omitempty"`
	DependenciaID *uint        `gorm:"index" json:"dependencia_id"`
	Dependencia   *Dependencia `gorm:"foreignKey:DependenciaID" json:"dependencia,omitempty"`
}

func (Personal) TableName() string { return "personal" }

func (p *Personal) Validate() error {
	p.Nombre = strings.TrimSpace(p.Nombre)
	p.Cedula = strings.TrimSpace(p.Cedula)
	if p.Nombre == "" {
		return errors.New("nombre es obligatorio")
	}
	if p.Cedula == "" {
		return errors.New("cedula es obligatoria")
	}
	p.Sede = nil
	p.Dependencia = nil
	return nil
}

func (p *Personal) SearchColumns() []string { return []string{"nombre", "cedula", "cargo"} }

func (p *Personal) Preloads() []string { return []string{"Sede", "Dependencia"} }
