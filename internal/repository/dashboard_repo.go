package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardRepository interface {
	PedidosPorEstadoCompras(ctx context.Context) ([]model.StatusCount, error)
	PedidosPorEstadoGerencia(ctx context.Context) ([]model.StatusCount, error)
	PedidosPorSede(ctx context.Context) ([]model.SedeCount, error)
	ItemsPendientesCompra(ctx context.Context) (int64, error)
	InventarioPorSede(ctx context.Context) ([]model.InventarioSede, error)
	EntregasEntre(ctx context.Context, start, end time.Time) (int64, error)
	// PedidosPorMes counts pedidos and approvals per calendar month of fecha_solicitud
	PedidosPorMes(ctx context.Context, start, end time.Time) ([]model.PeriodCount, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) PedidosPorEstadoCompras(ctx context.Context) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := GetDB(ctx, r.db).Table("cp_pedidos").
		Select("estado_compras as estado, COUNT(*) as total").
		Group("estado_compras").
		Order("estado_compras").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count pedidos by estado_compras: %w", err)
	}
	return rows, nil
}

func (r *dashboardRepository) PedidosPorEstadoGerencia(ctx context.Context) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := GetDB(ctx, r.db).Table("cp_pedidos").
		Select("estado_gerencia as estado, COUNT(*) as total").
		Group("estado_gerencia").
		Order("estado_gerencia").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count pedidos by estado_gerencia: %w", err)
	}
	return rows, nil
}

func (r *dashboardRepository) PedidosPorSede(ctx context.Context) ([]model.SedeCount, error) {
	var rows []model.SedeCount
	if err := GetDB(ctx, r.db).Table("cp_pedidos").
		Select("sedes.id as sede_id, sedes.nombre as sede, COUNT(cp_pedidos.id) as total").
		Joins("JOIN sedes ON sedes.id = cp_pedidos.sede_id").
		Group("sedes.id, sedes.nombre").
		Order("total DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count pedidos by sede: %w", err)
	}
	return rows, nil
}

func (r *dashboardRepository) ItemsPendientesCompra(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.CpItemPedido{}).
		Joins("JOIN cp_pedidos ON cp_pedidos.id = cp_items_pedidos.cp_pedido_id").
		Where("cp_items_pedidos.comprado = ? AND cp_pedidos.estado_compras = ?", false, model.ComprasAprobado).
		Count(&total).Error
	return total, err
}

func (r *dashboardRepository) InventarioPorSede(ctx context.Context) ([]model.InventarioSede, error) {
	var raw []struct {
		SedeID *uint
		Sede   string
		Total  int64
		Valor  string
	}
	if err := GetDB(ctx, r.db).Table("inventario").
		Select("inventario.sede_id as sede_id, COALESCE(sedes.nombre, 'Sin sede') as sede, COUNT(inventario.id) as total, COALESCE(CAST(SUM(inventario.valor_compra) AS TEXT), '0') as valor").
		Joins("LEFT JOIN sedes ON sedes.id = inventario.sede_id").
		Group("inventario.sede_id, sedes.nombre").
		Order("total DESC").
		Scan(&raw).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate inventario by sede: %w", err)
	}

	rows := make([]model.InventarioSede, 0, len(raw))
	for _, row := range raw {
		valor, err := decimal.NewFromString(row.Valor)
		if err != nil {
			valor = decimal.Zero
		}
		rows = append(rows, model.InventarioSede{SedeID: row.SedeID, Sede: row.Sede, Total: row.Total, Valor: valor})
	}
	return rows, nil
}

func (r *dashboardRepository) EntregasEntre(ctx context.Context, start, end time.Time) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.CpEntregaActivosFijos{}).
		Where("fecha_entrega >= ? AND fecha_entrega < ?", start, end).
		Count(&total).Error
	return total, err
}

func (r *dashboardRepository) PedidosPorMes(ctx context.Context, start, end time.Time) ([]model.PeriodCount, error) {
	query := `
		SELECT
			TO_CHAR(DATE_TRUNC('month', p.fecha_solicitud), 'YYYY-MM') AS periodo,
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN p.estado_gerencia = $3 THEN 1 ELSE 0 END), 0) AS aprobados,
			COALESCE(SUM(CASE WHEN p.estado_compras = $4 OR p.estado_gerencia = $5 THEN 1 ELSE 0 END), 0) AS rechazados
		FROM cp_pedidos p
		WHERE p.fecha_solicitud >= $1
		  AND p.fecha_solicitud < $2
		GROUP BY DATE_TRUNC('month', p.fecha_solicitud)
		ORDER BY periodo
	`

	var rows []model.PeriodCount
	if err := GetDB(ctx, r.db).Raw(query,
		start, end, model.GerenciaAprobado, model.ComprasRechazado, model.GerenciaRechazado,
	).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count pedidos by month: %w", err)
	}
	return rows, nil
}
