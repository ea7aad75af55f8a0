package handler

import (
	"errors"
	"mime"
	"net/http"
	"path"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/middleware"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

// StorageHandler serves stored files under /storage to authenticated users
type StorageHandler struct {
	disk storage.Disk
	auth *middleware.Auth
}

func NewStorageHandler(disk storage.Disk, auth *middleware.Auth) *StorageHandler {
	return &StorageHandler{disk: disk, auth: auth}
}

func (h *StorageHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/storage/*path", h.auth.RequireAuth(), h.Serve)
}

// Serve streams a stored file
// @Summary      Download stored file
// @Tags         storage
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        path  path      string  true  "Relative path, e.g. firmas_pedidos/elaborado_20250101120000_ab12cd34.png"
// @Success      200   {file}    file
// @Failure      404   {object}  response.Response
// @Router       /storage/{path} [get]
func (h *StorageHandler) Serve(c *gin.Context) {
	name, err := storage.Clean(c.Param("path")[1:])
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Archivo no encontrado"))
		return
	}

	rc, err := h.disk.Open(c.Request.Context(), name)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.Error("storage read failed", err, map[string]interface{}{"path": name})
		}
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Archivo no encontrado"))
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
