package handler

import (
	"net/http"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/middleware"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/service"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/pagination"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

type EntregaHandler struct {
	entregaService service.EntregaService
	auth           *middleware.Auth
}

func NewEntregaHandler(entregaService service.EntregaService, auth *middleware.Auth) *EntregaHandler {
	return &EntregaHandler{entregaService: entregaService, auth: auth}
}

func (h *EntregaHandler) RegisterRoutes(router *gin.RouterGroup) {
	listar := h.auth.RequirePermission(model.PermEntregasListar)
	gestionar := h.auth.RequirePermission(model.PermEntregasGestionar)

	entregas := router.Group("/entregas-activos")
	{
		entregas.GET("", listar, h.List)
		entregas.GET("/:id", listar, h.Get)
		entregas.GET("/:id/excel", listar, h.Export)
		entregas.POST("", gestionar, h.Create)
		entregas.DELETE("/:id", gestionar, h.Delete)
	}
}

// List returns fixed-asset handovers
// @Summary      List handovers
// @Tags         entregas
// @Produce      json
// @Security     BearerAuth
// @Param        sede_id      query     int  false  "Sede"
// @Param        personal_id  query     int  false  "Receiver"
// @Param        page         query     int  false  "Page number"
// @Param        limit        query     int  false  "Items per page"
// @Success      200          {object}  response.Response{objeto=pagination.Page[model.CpEntregaActivosFijos]}
// @Router       /entregas-activos [get]
func (h *EntregaHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.EntregaFilter{
		SedeID:     queryUint(c, "sede_id"),
		PersonalID: queryUint(c, "personal_id"),
	}
	entregas, total, err := h.entregaService.List(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "Entregas obtenidas", entregas, p, total)
}

// Get returns one handover with its items
// @Summary      Get handover
// @Tags         entregas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Entrega ID"
// @Success      200  {object}  response.Response{objeto=model.CpEntregaActivosFijos}
// @Failure      404  {object}  response.Response
// @Router       /entregas-activos/{id} [get]
func (h *EntregaHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entrega, err := h.entregaService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Entrega obtenida", entrega))
}

// Create registers a handover signed by the current user and the receiver
// @Summary      Create handover
// @Tags         entregas
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        payload              formData  string  true   "service.EntregaInput as JSON"
// @Param        firma_entrega        formData  file    false  "Delivering user signature"
// @Param        firma_recibe         formData  file    false  "Receiver signature"
// @Param        usar_firma_guardada  formData  bool    false  "Use the stored profile signature for firma_entrega"
// @Success      201                  {object}  response.Response{objeto=model.CpEntregaActivosFijos}
// @Failure      404                  {object}  response.Response
// @Failure      422                  {object}  response.Response
// @Router       /entregas-activos [post]
func (h *EntregaHandler) Create(c *gin.Context) {
	files := &uploads{}
	defer files.Close()

	var in service.EntregaInput
	if err := bindPayload(c, &in); err != nil {
		respondError(c, err)
		return
	}
	firmaEntrega, err := files.signature(c, "firma_entrega")
	if err != nil {
		respondError(c, err)
		return
	}
	firmaRecibe, err := files.get(c, "firma_recibe")
	if err != nil {
		respondError(c, err)
		return
	}

	entrega, err := h.entregaService.Create(c.Request.Context(), actorFrom(c), in, firmaEntrega, firmaRecibe)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, "Entrega registrada", entrega))
}

// Delete removes a handover and its signature files
// @Summary      Delete handover
// @Tags         entregas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Entrega ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /entregas-activos/{id} [delete]
func (h *EntregaHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.entregaService.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Entrega eliminada", nil))
}

// Export downloads the handover act as Excel
// @Summary      Export handover to Excel
// @Tags         entregas
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id   path      int  true  "Entrega ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /entregas-activos/{id}/excel [get]
func (h *EntregaHandler) Export(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.entregaService.Export(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	sendDocument(c, doc)
}
