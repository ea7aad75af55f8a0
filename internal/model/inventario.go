package model

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TipoActivo string

const (
	TipoEquipoComputo TipoActivo = "equipo_computo"
	TipoMobiliario    TipoActivo = "mobiliario"
	TipoOtro          TipoActivo = "otro"
)

func (t TipoActivo) Valid() bool {
	switch t {
	case TipoEquipoComputo, TipoMobiliario, TipoOtro:
		return true
	}
	return false
}

type EstadoActivo string

const (
	EstadoBueno   EstadoActivo = "bueno"
	EstadoRegular EstadoActivo = "regular"
	EstadoMalo    EstadoActivo = "malo"
)

func (e EstadoActivo) Valid() bool {
	switch e {
	case EstadoBueno, EstadoRegular, EstadoMalo:
		return true
	}
	return false
}

// Inventario is a fixed asset
type Inventario struct {
	Base
	Codigo        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"codigo"`
	Nombre        string          `gorm:"type:varchar(255);not null" json:"nombre"`
	Marca         string          `gorm:"type:varchar(100)" json:"marca"`
	Modelo        string          `gorm:"type:varchar(100)" json:"modelo"`
	Serial        string          `gorm:"type:varchar(100);index" json:"serial"`
	Tipo          TipoActivo      `gorm:"type:varchar(30);not null;default:'otro'" json:"tipo"`
	Estado        EstadoActivo    `gorm:"type:varchar(20);not null;default:'bueno'" json:"estado"`
	SedeID        *uint           `gorm:"index" json:"sede_id"`
	Sede          *Sede           `gorm:"foreignKey:SedeID" json:"sede,omitempty"`
	ResponsableID *uint           `gorm:"index" json:"responsable_id"`
	Responsable   *Personal       `gorm:"foreignKey:ResponsableID" json:"responsable,omitempty"`
	ValorCompra   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"valor_compra"`
	FechaCompra   *time.Time      `json:"fecha_compra"`
}

func (Inventario) TableName() string { return "inventario" }

func (i *Inventario) Validate() error {
	i.Codigo = strings.TrimSpace(i.Codigo)
	i.Nombre = strings.TrimSpace(i.Nombre)
	if i.Codigo == "" {
		return errors.New("codigo es obligatorio")
	}
	if i.Nombre == "" {
		return errors.New("nombre es obligatorio")
	}
	if i.Tipo == "" {
		i.Tipo = TipoOtro
	}
	if !i.Tipo.Valid() {
		return errors.New("tipo debe ser equipo_computo, mobiliario u otro")
	}
	if i.Estado == "" {
		i.Estado = EstadoBueno
	}
	if !i.Estado.Valid() {
		return errors.New("estado debe ser bueno, regular o malo")
	}
	if i.ValorCompra.IsNegative() {
		return errors.New("valor_compra no puede ser negativo")
	}
	i.Sede = nil
	i.Responsable = nil
	return nil
}

func (i *Inventario) SearchColumns() []string {
	return []string{"codigo", "nombre", "serial", "marca"}
}

func (i *Inventario) Preloads() []string { return []string{"Sede", "Responsable"} }
