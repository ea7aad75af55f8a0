package model

import (
	"fmt"
	"time"
)

// EstadoCompras is the purchasing stage status of a pedido
type EstadoCompras string

const (
	ComprasPendiente EstadoCompras = "pendiente"
	ComprasAprobado  EstadoCompras = "aprobado"
	ComprasRechazado EstadoCompras = "rechazado"
	ComprasEnProceso EstadoCompras = "en proceso"
)

func (e EstadoCompras) Valid() bool {
	switch e {
	case ComprasPendiente, ComprasAprobado, ComprasRechazado, ComprasEnProceso:
		return true
	}
	return false
}

// EstadoGerencia is the management stage status of a pedido
type EstadoGerencia string

const (
	GerenciaPendiente EstadoGerencia = "pendiente"
	GerenciaAprobado  EstadoGerencia = "aprobado"
	GerenciaRechazado EstadoGerencia = "rechazado"
)

func (e EstadoGerencia) Valid() bool {
	switch e {
	case GerenciaPendiente, GerenciaAprobado, GerenciaRechazado:
		return true
	}
	return false
}

// Decision is the outcome of a review at either stage
type Decision string

const (
	DecisionAprobar  Decision = "aprobar"
	DecisionRechazar Decision = "rechazar"
)

// Etapa names an approval stage. It is also the signature file prefix.
type Etapa string

const (
	EtapaElaborado Etapa = "elaborado"
	EtapaCompras   Etapa = "compras"
	EtapaGerencia  Etapa = "gerencia"
)

// Decide returns the purchasing status after d. Reviews are accepted from
// every status and overwrite the previous outcome.
func (e EstadoCompras) Decide(d Decision) (EstadoCompras, error) {
	if !e.Valid() {
		return e, fmt.Errorf("estado de compras desconocido: %q", e)
	}
	switch d {
	case DecisionAprobar:
		return ComprasAprobado, nil
	case DecisionRechazar:
		return ComprasRechazado, nil
	}
	return e, fmt.Errorf("decision desconocida: %q", d)
}

// Seen returns the status after purchasing opens the pedido
func (e EstadoCompras) Seen() EstadoCompras {
	if e == ComprasPendiente {
		return ComprasEnProceso
	}
	return e
}

func (e EstadoGerencia) Decide(d Decision) (EstadoGerencia, error) {
	if !e.Valid() {
		return e, fmt.Errorf("estado de gerencia desconocido: %q", e)
	}
	switch d {
	case DecisionAprobar:
		return GerenciaAprobado, nil
	case DecisionRechazar:
		return GerenciaRechazado, nil
	}
	return e, fmt.Errorf("decision desconocida: %q", d)
}

// CpPedido is a purchase order
type CpPedido struct {
	Base
	Consecutivo    int            `gorm:"uniqueIndex;not null" json:"consecutivo"`
	EstadoCompras  EstadoCompras  `gorm:"type:varchar(20);not null;default:'pendiente';index" json:"estado_compras"`
	EstadoGerencia EstadoGerencia `gorm:"type:varchar(20);not null;default:'pendiente';index" json:"estado_gerencia"`
	FechaSolicitud time.Time      `gorm:"not null" json:"fecha_solicitud"`
	Observacion    string         `gorm:"type:text" json:"observacion"`
	PedidoVisto    bool           `gorm:"default:false;not null" json:"pedido_visto"`

	ProcesoSolicitanteID uint           `gorm:"not null;index" json:"proceso_solicitante_id"`
	ProcesoSolicitante   *Dependencia   `gorm:"foreignKey:ProcesoSolicitanteID" json:"proceso_solicitante,omitempty"`
	TipoSolicitudID      uint           `gorm:"not null;index" json:"tipo_solicitud_id"`
	TipoSolicitud        *TipoSolicitud `gorm:"foreignKey:TipoSolicitudID" json:"tipo_solicitud,omitempty"`
	SedeID               uint           `gorm:"not null;index" json:"sede_id"`
	Sede                 *Sede          `gorm:"foreignKey:SedeID" json:"sede,omitempty"`

	ElaboradoPorID    uint        `gorm:"not null;index" json:"elaborado_por_id"`
	ElaboradoPor      *User       `gorm:"foreignKey:ElaboradoPorID" json:"elaborado_por,omitempty"`
	ElaboradoPorFirma StoragePath `gorm:"type:varchar(255)" json:"elaborado_por_firma"`

	ProcesoCompraID      *uint       `gorm:"index" json:"proceso_compra_id"`
	ProcesoCompra        *User       `gorm:"foreignKey:ProcesoCompraID" json:"proceso_compra,omitempty"`
	ProcesoCompraFirma   StoragePath `gorm:"type:varchar(255)" json:"proceso_compra_firma"`
	MotivoCompras        string      `gorm:"type:text" json:"motivo_compras"`
	FechaRespuestaCompra *time.Time  `json:"fecha_respuesta_compras"`

	ResponsableAprobacionID    *uint       `gorm:"index" json:"responsable_aprobacion_id"`
	ResponsableAprobacion      *User       `gorm:"foreignKey:ResponsableAprobacionID" json:"responsable_aprobacion,omitempty"`
	ResponsableAprobacionFirma StoragePath `gorm:"type:varchar(255)" json:"responsable_aprobacion_firma"`
	MotivoGerencia             string      `gorm:"type:text" json:"motivo_gerencia"`
	FechaRespuestaGerencia     *time.Time  `json:"fecha_respuesta_gerencia"`

	CreadorPorID uint  `gorm:"not null;index" json:"creador_por_id"`
	CreadorPor   *User `gorm:"foreignKey:CreadorPorID" json:"creador_por,omitempty"`

	Items []CpItemPedido `gorm:"foreignKey:CpPedidoID" json:"items"`
}

func (CpPedido) TableName() string { return "cp_pedidos" }

// Pending reports whether neither stage has acted on the pedido yet
func (p *CpPedido) Pending() bool {
	return p.EstadoCompras == ComprasPendiente && p.EstadoGerencia == GerenciaPendiente
}

// Review records a stage decision. The reviewer fields of a stage are always
// written together.
type Review struct {
	Etapa    Etapa
	Decision Decision
	UserID   uint
	Firma    StoragePath
	Motivo   string
	At       time.Time
}

// ApplyReview moves the stage status and overwrites its reviewer fields.
// It returns the signature path that was replaced, if any.
func (p *CpPedido) ApplyReview(r Review) (StoragePath, error) {
	userID := r.UserID
	at := r.At
	switch r.Etapa {
	case EtapaCompras:
		next, err := p.EstadoCompras.Decide(r.Decision)
		if err != nil {
			return "", err
		}
		prev := p.ProcesoCompraFirma
		p.EstadoCompras = next
		p.ProcesoCompraID = &userID
		p.ProcesoCompraFirma = r.Firma
		p.MotivoCompras = r.Motivo
		p.FechaRespuestaCompra = &at
		if prev == r.Firma {
			return "", nil
		}
		return prev, nil
	case EtapaGerencia:
		next, err := p.EstadoGerencia.Decide(r.Decision)
		if err != nil {
			return "", err
		}
		prev := p.ResponsableAprobacionFirma
		p.EstadoGerencia = next
		p.ResponsableAprobacionID = &userID
		p.ResponsableAprobacionFirma = r.Firma
		p.MotivoGerencia = r.Motivo
		p.FechaRespuestaGerencia = &at
		if prev == r.Firma {
			return "", nil
		}
		return prev, nil
	}
	return "", fmt.Errorf("etapa desconocida: %q", r.Etapa)
}

// CpItemPedido is one requested product line
type CpItemPedido struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CpPedidoID   uint      `gorm:"not null;index" json:"cp_pedido_id"`
	Nombre       string    `gorm:"type:varchar(255);not null" json:"nombre"`
	Cantidad     int       `gorm:"not null" json:"cantidad"`
	UnidadMedida string    `gorm:"type:varchar(50)" json:"unidad_medida"`
	Referencia   string    `gorm:"type:text" json:"referencia_items"`
	ProductoID   *uint     `gorm:"index" json:"producto_id"`
	Producto     *Producto `gorm:"foreignKey:ProductoID" json:"producto,omitempty"`
	Comprado     bool      `gorm:"default:false;not null" json:"comprado"`
}

func (CpItemPedido) TableName() string { return "cp_items_pedidos" }

// Consecutivo keeps the highest number handed out per sequence so that
// numbers of deleted rows are never issued again.
type Consecutivo struct {
	Nombre string `gorm:"type:varchar(50);primaryKey" json:"nombre"`
	Ultimo int    `gorm:"not null;default:0" json:"ultimo"`
}

func (Consecutivo) TableName() string { return "consecutivos" }

// Next returns the number that follows both the counter and maxActual, the
// highest number currently stored.
func (c Consecutivo) Next(maxActual int) int {
	return max(c.Ultimo, maxActual) + 1
}

// SecuenciaPedidos is the Consecutivo row used by cp_pedidos
const SecuenciaPedidos = "cp_pedidos"
