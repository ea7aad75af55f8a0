package handler

import (
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/middleware"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/service"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	auth         *middleware.Auth
}

func NewAuditHandler(auditService service.AuditService, auth *middleware.Auth) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/auditoria")
	group.Use(h.auth.RequirePermission(model.PermAuditoriaVer))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns audit rows, newest first, with the acting user's name
// @Summary      Get audit logs
// @Tags         auditoria
// @Security     BearerAuth
// @Produce      json
// @Param        user_id  query     int     false  "Filter by user"
// @Param        action   query     string  false  "Filter by action, e.g. CREATE_PEDIDO"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Success      200      {object}  response.Response{objeto=pagination.Page[service.AuditLogResponse]}
// @Router       /auditoria [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.AuditFilter{
		UserID: queryUint(c, "user_id"),
		Action: c.Query("action"),
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "Auditoría obtenida", logs, p, total)
}
