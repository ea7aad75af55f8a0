package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardResponse aggregates pedido, inventory and handover figures
type DashboardResponse struct {
	PedidosPorEstadoCompras  []StatusCount    `json:"pedidos_por_estado_compras"`
	PedidosPorEstadoGerencia []StatusCount    `json:"pedidos_por_estado_gerencia"`
	PedidosPorSede           []SedeCount      `json:"pedidos_por_sede"`
	ItemsPendientesCompra    int64            `json:"items_pendientes_compra"`
	InventarioPorSede        []InventarioSede `json:"inventario_por_sede"`
	InventarioTotal          int64            `json:"inventario_total"`
	ValorInventarioTotal     decimal.Decimal  `json:"valor_inventario_total"`
	EntregasMes              int64            `json:"entregas_mes"`
	PedidosPorMes            []PeriodCount    `json:"pedidos_por_mes"`
	GeneradoEn               time.Time        `json:"generado_en"`
}

type StatusCount struct {
	Estado string `json:"estado"`
	Total  int64  `json:"total"`
}

type SedeCount struct {
	SedeID uint   `json:"sede_id"`
	Sede   string `json:"sede"`
	Total  int64  `json:"total"`
}

// InventarioSede is the asset count and purchase value of one sede
type InventarioSede struct {
	SedeID *uint           `json:"sede_id"`
	Sede   string          `json:"sede"`
	Total  int64           `json:"total"`
	Valor  decimal.Decimal `json:"valor"`
}

// PeriodCount is the pedido activity of one month, periodo formatted YYYY-MM
type PeriodCount struct {
	Periodo    string `gorm:"column:periodo" json:"periodo"`
	Total      int64  `gorm:"column:total" json:"total"`
	Aprobados  int64  `gorm:"column:aprobados" json:"aprobados"`
	Rechazados int64  `gorm:"column:rechazados" json:"rechazados"`
}
