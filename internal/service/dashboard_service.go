package service

import (
	"context"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"

	"github.com/shopspring/decimal"
)

// DashboardMonths is the length of the monthly pedido series, current month included
const DashboardMonths = 6

type DashboardService interface {
	GetDashboard(ctx context.Context) (*model.DashboardResponse, error)
}

type dashboardService struct {
	repo repository.DashboardRepository
	now  func() time.Time
}

func NewDashboardService(repo repository.DashboardRepository) DashboardService {
	return &dashboardService{repo: repo, now: time.Now}
}

func (s *dashboardService) GetDashboard(ctx context.Context) (*model.DashboardResponse, error) {
	res := &model.DashboardResponse{GeneradoEn: s.now()}
	var err error

	if res.PedidosPorEstadoCompras, err = s.repo.PedidosPorEstadoCompras(ctx); err != nil {
		return nil, apperror.FromDB(err, "Dashboard")
	}
	if res.PedidosPorEstadoGerencia, err = s.repo.PedidosPorEstadoGerencia(ctx); err != nil {
		return nil, apperror.FromDB(err, "Dashboard")
	}
	if res.PedidosPorSede, err = s.repo.PedidosPorSede(ctx); err != nil {
		return nil, apperror.FromDB(err, "Dashboard")
	}
	if res.ItemsPendientesCompra, err = s.repo.ItemsPendientesCompra(ctx); err != nil {
		return nil, apperror.FromDB(err, "Dashboard")
	}
	if res.InventarioPorSede, err = s.repo.InventarioPorSede(ctx); err != nil {
		return nil, apperror.FromDB(err, "Dashboard")
	}

	total := decimal.Zero
	for _, row := range res.InventarioPorSede {
		res.InventarioTotal += row.Total
		total = total.Add(row.Valor)
	}
	res.ValorInventarioTotal = total

	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if res.EntregasMes, err = s.repo.EntregasEntre(ctx, start, start.AddDate(0, 1, 0)); err != nil {
		return nil, apperror.FromDB(err, "Dashboard")
	}
	seriesStart := start.AddDate(0, -(DashboardMonths - 1), 0)
	if res.PedidosPorMes, err = s.repo.PedidosPorMes(ctx, seriesStart, start.AddDate(0, 1, 0)); err != nil {
		return nil, apperror.FromDB(err, "Dashboard")
	}
	return res, nil
}
