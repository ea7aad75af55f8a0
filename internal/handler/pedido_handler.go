package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/middleware"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/service"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/pagination"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

type PedidoHandler struct {
	pedidoService service.PedidoService
	auth          *middleware.Auth
}

func NewPedidoHandler(pedidoService service.PedidoService, auth *middleware.Auth) *PedidoHandler {
	return &PedidoHandler{pedidoService: pedidoService, auth: auth}
}

func (h *PedidoHandler) RegisterRoutes(router *gin.RouterGroup) {
	crear := h.auth.RequirePermission(model.PermCrearPedidos)
	listar := h.auth.RequirePermission(model.PermListarCompras)

	pedidos := router.Group("/pedidos")
	{
		pedidos.GET("", listar, h.List)
		pedidos.GET("/mios", crear, h.ListMine)
		pedidos.GET("/:id", crear, h.Get)
		pedidos.GET("/:id/excel", crear, h.Export)
		pedidos.POST("", crear, h.Create)
		pedidos.PUT("/:id", crear, h.Update)
		pedidos.DELETE("/:id", crear, h.Delete)

		compras := h.auth.RequirePermission(model.PermAprobarCompras)
		pedidos.PUT("/:id/compras/aprobar", compras, h.ApprovePurchasing)
		pedidos.PUT("/:id/compras/rechazar", compras, h.RejectPurchasing)

		gerencia := h.auth.RequirePermission(model.PermAprobarGerencia)
		pedidos.PUT("/:id/gerencia/aprobar", gerencia, h.ApproveManagement)
		pedidos.PUT("/:id/gerencia/rechazar", gerencia, h.RejectManagement)

		pedidos.PUT("/:id/items/comprados", listar, h.MarkItemsPurchased)
		pedidos.PUT("/:id/visto", listar, h.MarkSeen)
	}
}

// List returns pedidos for the purchasing inbox
// @Summary      List pedidos
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        estado_compras   query     string  false  "Purchasing status"  Enums(pendiente, aprobado, rechazado, en proceso)
// @Param        estado_gerencia  query     string  false  "Management status"  Enums(pendiente, aprobado, rechazado)
// @Param        sede_id          query     int     false  "Sede"
// @Param        consecutivo      query     int     false  "Consecutivo"
// @Param        page             query     int     false  "Page number"
// @Param        limit            query     int     false  "Items per page"
// @Success      200              {object}  response.Response{objeto=pagination.Page[model.CpPedido]}
// @Failure      422              {object}  response.Response
// @Router       /pedidos [get]
func (h *PedidoHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.PedidoFilter{
		EstadoCompras:  model.EstadoCompras(c.Query("estado_compras")),
		EstadoGerencia: model.EstadoGerencia(c.Query("estado_gerencia")),
		SedeID:         queryUint(c, "sede_id"),
	}
	if v, err := strconv.Atoi(c.Query("consecutivo")); err == nil {
		filter.Consecutivo = v
	}

	pedidos, total, err := h.pedidoService.List(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "Pedidos obtenidos", pedidos, p, total)
}

// ListMine returns the pedidos created by the current user
// @Summary      List my pedidos
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200    {object}  response.Response{objeto=pagination.Page[model.CpPedido]}
// @Router       /pedidos/mios [get]
func (h *PedidoHandler) ListMine(c *gin.Context) {
	p := pagination.Parse(c)
	pedidos, total, err := h.pedidoService.ListMine(c.Request.Context(), actorFrom(c), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "Pedidos obtenidos", pedidos, p, total)
}

// Get returns one pedido with its items
// @Summary      Get pedido
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Pedido ID"
// @Success      200  {object}  response.Response{objeto=model.CpPedido}
// @Failure      404  {object}  response.Response
// @Router       /pedidos/{id} [get]
func (h *PedidoHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	pedido, err := h.pedidoService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Pedido obtenido", pedido))
}

// Create registers a pedido with its items and the author's signature
// @Summary      Create pedido
// @Description  Multipart: JSON in "payload", signature in "firma" or usar_firma_guardada=true. Without a file a JSON body with "usar_firma_guardada" is accepted.
// @Tags         pedidos
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        payload              formData  string  true   "service.PedidoInput as JSON"
// @Param        firma                formData  file    false  "Author signature"
// @Param        usar_firma_guardada  formData  bool    false  "Use the stored profile signature"
// @Success      201                  {object}  response.Response{objeto=model.CpPedido}
// @Failure      404                  {object}  response.Response
// @Failure      422                  {object}  response.Response
// @Router       /pedidos [post]
func (h *PedidoHandler) Create(c *gin.Context) {
	files := &uploads{}
	defer files.Close()

	var in service.PedidoInput
	if err := bindPayload(c, &in); err != nil {
		respondError(c, err)
		return
	}
	firma, err := files.signature(c, "firma")
	if err != nil {
		respondError(c, err)
		return
	}

	pedido, err := h.pedidoService.Create(c.Request.Context(), actorFrom(c), in, firma)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, "Pedido creado", pedido))
}

// Update replaces the header and items of a pending pedido
// @Summary      Update pedido
// @Tags         pedidos
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id                   path      int     true   "Pedido ID"
// @Param        payload              formData  string  true   "service.PedidoInput as JSON"
// @Param        firma                formData  file    false  "New author signature"
// @Param        usar_firma_guardada  formData  bool    false  "Use the stored profile signature"
// @Success      200                  {object}  response.Response{objeto=model.CpPedido}
// @Failure      400                  {object}  response.Response
// @Failure      403                  {object}  response.Response
// @Router       /pedidos/{id} [put]
func (h *PedidoHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	files := &uploads{}
	defer files.Close()

	var in service.PedidoInput
	if err := bindPayload(c, &in); err != nil {
		respondError(c, err)
		return
	}
	firma, err := files.signature(c, "firma")
	if err != nil {
		respondError(c, err)
		return
	}

	pedido, err := h.pedidoService.Update(c.Request.Context(), actorFrom(c), id, in, firma)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Pedido actualizado", pedido))
}

// Delete removes a pedido that has not been reviewed yet
// @Summary      Delete pedido
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Pedido ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /pedidos/{id} [delete]
func (h *PedidoHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.pedidoService.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Pedido eliminado", nil))
}

// reviewInput reads the optional motivo from a multipart field, the
// multipart payload or a JSON body.
func reviewInput(c *gin.Context) (service.ReviewInput, error) {
	var in service.ReviewInput
	if isMultipart(c) {
		if strings.TrimSpace(c.PostForm("payload")) != "" {
			return in, bindPayload(c, &in)
		}
		in.Motivo = c.PostForm("motivo")
		return in, nil
	}
	if c.Request.ContentLength == 0 {
		return in, nil
	}
	return in, bindPayload(c, &in)
}

type approveFunc func(c *gin.Context, id uint, in service.ReviewInput, firma service.SignatureSource) (*model.CpPedido, error)

type rejectFunc func(c *gin.Context, id uint, in service.ReviewInput) (*model.CpPedido, error)

func (h *PedidoHandler) approve(c *gin.Context, msg string, fn approveFunc) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	files := &uploads{}
	defer files.Close()

	in, err := reviewInput(c)
	if err != nil {
		respondError(c, err)
		return
	}
	firma, err := files.signature(c, "firma")
	if err != nil {
		respondError(c, err)
		return
	}

	pedido, err := fn(c, id, in, firma)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, msg, pedido))
}

func (h *PedidoHandler) reject(c *gin.Context, msg string, fn rejectFunc) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	in, err := reviewInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	pedido, err := fn(c, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, msg, pedido))
}

// ApprovePurchasing records the purchasing approval with its signature
// @Summary      Approve pedido (compras)
// @Tags         pedidos
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id                   path      int     true   "Pedido ID"
// @Param        motivo               formData  string  false  "Comment"
// @Param        firma                formData  file    false  "Reviewer signature"
// @Param        usar_firma_guardada  formData  bool    false  "Use the stored profile signature"
// @Success      200                  {object}  response.Response{objeto=model.CpPedido}
// @Failure      400                  {object}  response.Response
// @Failure      404                  {object}  response.Response
// @Router       /pedidos/{id}/compras/aprobar [put]
func (h *PedidoHandler) ApprovePurchasing(c *gin.Context) {
	h.approve(c, "Pedido aprobado por compras", func(c *gin.Context, id uint, in service.ReviewInput, firma service.SignatureSource) (*model.CpPedido, error) {
		return h.pedidoService.ApprovePurchasing(c.Request.Context(), actorFrom(c), id, in, firma)
	})
}

// RejectPurchasing records the purchasing rejection
// @Summary      Reject pedido (compras)
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                  true   "Pedido ID"
// @Param        payload  body      service.ReviewInput  false  "Reason"
// @Success      200      {object}  response.Response{objeto=model.CpPedido}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /pedidos/{id}/compras/rechazar [put]
func (h *PedidoHandler) RejectPurchasing(c *gin.Context) {
	h.reject(c, "Pedido rechazado por compras", func(c *gin.Context, id uint, in service.ReviewInput) (*model.CpPedido, error) {
		return h.pedidoService.RejectPurchasing(c.Request.Context(), actorFrom(c), id, in)
	})
}

// ApproveManagement records the management approval
// @Summary      Approve pedido (gerencia)
// @Tags         pedidos
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id                   path      int     true   "Pedido ID"
// @Param        motivo               formData  string  false  "Comment"
// @Param        firma                formData  file    false  "Reviewer signature"
// @Param        usar_firma_guardada  formData  bool    false  "Use the stored profile signature"
// @Success      200                  {object}  response.Response{objeto=model.CpPedido}
// @Failure      400                  {object}  response.Response
// @Failure      404                  {object}  response.Response
// @Router       /pedidos/{id}/gerencia/aprobar [put]
func (h *PedidoHandler) ApproveManagement(c *gin.Context) {
	h.approve(c, "Pedido aprobado por gerencia", func(c *gin.Context, id uint, in service.ReviewInput, firma service.SignatureSource) (*model.CpPedido, error) {
		return h.pedidoService.ApproveManagement(c.Request.Context(), actorFrom(c), id, in, firma)
	})
}

// RejectManagement records the management rejection; motivo is required
// @Summary      Reject pedido (gerencia)
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                  true  "Pedido ID"
// @Param        payload  body      service.ReviewInput  true  "Reason"
// @Success      200      {object}  response.Response{objeto=model.CpPedido}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /pedidos/{id}/gerencia/rechazar [put]
func (h *PedidoHandler) RejectManagement(c *gin.Context) {
	h.reject(c, "Pedido rechazado por gerencia", func(c *gin.Context, id uint, in service.ReviewInput) (*model.CpPedido, error) {
		return h.pedidoService.RejectManagement(c.Request.Context(), actorFrom(c), id, in)
	})
}

// MarkItemsPurchased flags items of the pedido as bought
// @Summary      Mark items purchased
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "Pedido ID"
// @Param        payload  body      service.MarkPurchasedInput  true  "Item ids"
// @Success      200      {object}  response.Response{objeto=model.CpPedido}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /pedidos/{id}/items/comprados [put]
func (h *PedidoHandler) MarkItemsPurchased(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in service.MarkPurchasedInput
	if err := bindPayload(c, &in); err != nil {
		respondError(c, err)
		return
	}

	pedido, err := h.pedidoService.MarkItemsPurchased(c.Request.Context(), actorFrom(c), id, in.ItemIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Items marcados como comprados", pedido))
}

// MarkSeen flags the pedido as opened by purchasing
// @Summary      Mark pedido seen
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Pedido ID"
// @Success      200  {object}  response.Response{objeto=model.CpPedido}
// @Failure      404  {object}  response.Response
// @Router       /pedidos/{id}/visto [put]
func (h *PedidoHandler) MarkSeen(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	pedido, err := h.pedidoService.MarkSeen(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Pedido marcado como visto", pedido))
}

// Export downloads the pedido as a filled-in Excel document
// @Summary      Export pedido to Excel
// @Tags         pedidos
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id   path      int  true  "Pedido ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /pedidos/{id}/excel [get]
func (h *PedidoHandler) Export(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.pedidoService.Export(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	sendDocument(c, doc)
}
