package handler

import (
	"net/http"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/middleware"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/service"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/pagination"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes CRUD routes for one reference table under /{recurso}.
// Reads need "{recurso}.listar" and writes "{recurso}.gestionar".
type CatalogHandler[T any] struct {
	recurso string
	label   string
	service service.CatalogService[T]
	auth    *middleware.Auth
}

// NewCatalogHandler builds the handler; label is the singular name used in messages
func NewCatalogHandler[T any](recurso, label string, svc service.CatalogService[T], auth *middleware.Auth) *CatalogHandler[T] {
	return &CatalogHandler[T]{recurso: recurso, label: label, service: svc, auth: auth}
}

func (h *CatalogHandler[T]) RegisterRoutes(router *gin.RouterGroup) {
	listar, gestionar := model.CatalogPermissions(h.recurso)

	group := router.Group("/" + h.recurso)
	{
		group.GET("", h.auth.RequirePermission(listar), h.List)
		group.GET("/:id", h.auth.RequirePermission(listar), h.Get)
		group.POST("", h.auth.RequirePermission(gestionar), h.Create)
		group.PUT("/:id", h.auth.RequirePermission(gestionar), h.Update)
		group.DELETE("/:id", h.auth.RequirePermission(gestionar), h.Delete)
	}
}

// List returns a paginated, searchable page of catalog rows
// @Summary      List catalog rows
// @Tags         catalogos
// @Produce      json
// @Security     BearerAuth
// @Param        recurso  path      string  true   "Catalog"  Enums(sedes, dependencias, tipos-solicitud, productos, personal, inventario)
// @Param        search   query     string  false  "Search text"
// @Param        page     query     int     false  "Page number"
// @Param        limit    query     int     false  "Items per page"
// @Success      200      {object}  response.Response
// @Router       /{recurso} [get]
func (h *CatalogHandler[T]) List(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.service.List(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, h.label+": listado obtenido", items, p, total)
}

// Get returns one catalog row
// @Summary      Get catalog row
// @Tags         catalogos
// @Produce      json
// @Security     BearerAuth
// @Param        recurso  path      string  true  "Catalog"
// @Param        id       path      int     true  "ID"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /{recurso}/{id} [get]
func (h *CatalogHandler[T]) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.label+" obtenido", item))
}

// Create inserts a catalog row
// @Summary      Create catalog row
// @Tags         catalogos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        recurso  path      string  true  "Catalog"
// @Success      201      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /{recurso} [post]
func (h *CatalogHandler[T]) Create(c *gin.Context) {
	entity := new(T)
	if err := bindPayload(c, entity); err != nil {
		respondError(c, err)
		return
	}
	item, err := h.service.Create(c.Request.Context(), actorFrom(c), entity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, h.label+" creado", item))
}

// Update replaces a catalog row
// @Summary      Update catalog row
// @Tags         catalogos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        recurso  path      string  true  "Catalog"
// @Param        id       path      int     true  "ID"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /{recurso}/{id} [put]
func (h *CatalogHandler[T]) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entity := new(T)
	if err := bindPayload(c, entity); err != nil {
		respondError(c, err)
		return
	}
	item, err := h.service.Update(c.Request.Context(), actorFrom(c), id, entity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.label+" actualizado", item))
}

// Delete removes a catalog row; rows still referenced answer 409
// @Summary      Delete catalog row
// @Tags         catalogos
// @Produce      json
// @Security     BearerAuth
// @Param        recurso  path      string  true  "Catalog"
// @Param        id       path      int     true  "ID"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /{recurso}/{id} [delete]
func (h *CatalogHandler[T]) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.label+" eliminado", nil))
}
