package handler

import (
	"net/http"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/middleware"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/service"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	auth             *middleware.Auth
}

func NewDashboardHandler(dashboardService service.DashboardService, auth *middleware.Auth) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, auth: auth}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.auth.RequirePermission(model.PermDashboardVer), h.GetDashboard)
}

// @Summary      Get dashboard
// @Description  Pedido counts per status and sede, pending purchases, inventory value per sede and handovers this month
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} response.Response{objeto=model.DashboardResponse}
// @Failure      401 {object} response.Response
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Dashboard obtenido", dashboard))
}
