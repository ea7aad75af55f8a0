package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/export"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/middleware"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/service"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/validation"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/pagination"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// respondError writes err as an envelope. Unclassified and internal errors
// are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal("Error interno del servidor", err)
	}
	status := appErr.Kind.HTTPStatus()

	switch appErr.Kind {
	case apperror.KindInternal:
		logging.Error("request failed", err, map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString(logging.RequestIDKey),
		})
		c.JSON(status, response.Error(status, "Error interno del servidor"))
	case apperror.KindValidation:
		if len(appErr.Fields) > 0 {
			c.JSON(status, response.ValidationError(status, appErr.Message, appErr.Fields))
			return
		}
		c.JSON(status, response.Error(status, appErr.Message))
	default:
		c.JSON(status, response.Error(status, appErr.Message))
	}
}

func respondPage[T any](c *gin.Context, msg string, items []T, p pagination.Params, total int64) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, msg, pagination.NewPage(items, p, total)))
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Identificador inválido"))
		return 0, false
	}
	return uint(id), true
}

// queryUint reads an optional numeric filter, 0 when absent or malformed
func queryUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// actorFrom returns the authenticated user set by the auth middleware
func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		UserID: c.GetUint(middleware.ContextUserID),
		Role:   c.GetString(middleware.ContextUserRole),
	}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// bindPayload decodes the request body into dst. Multipart requests carry
// the JSON document in the "payload" form field. JSON bodies are cached so
// the signature flag can be read from the same body.
func bindPayload(c *gin.Context, dst interface{}) error {
	if isMultipart(c) {
		raw := c.PostForm("payload")
		if strings.TrimSpace(raw) == "" {
			return apperror.ValidationFields("Los datos enviados no son válidos", map[string][]string{
				"payload": {"es obligatorio"},
			})
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return apperror.Validation("El campo payload no contiene un JSON válido")
		}
		return nil
	}
	if err := c.ShouldBindBodyWithJSON(dst); err != nil {
		return validation.Translate(err)
	}
	return nil
}

// uploads opens multipart files and closes them once the handler is done
type uploads struct {
	files []multipart.File
}

func (u *uploads) Close() {
	for _, f := range u.files {
		_ = f.Close()
	}
}

// get returns the file sent in field, nil when the field is absent
func (u *uploads) get(c *gin.Context, field string) (*service.Upload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Validation("No se pudo leer el archivo " + field)
	}
	f, err := header.Open()
	if err != nil {
		return nil, apperror.Internal("No se pudo abrir el archivo", err)
	}
	u.files = append(u.files, f)
	return &service.Upload{Filename: header.Filename, Size: header.Size, Content: f}, nil
}

// signature combines the uploaded file with the usar_firma_guardada flag
func (u *uploads) signature(c *gin.Context, field string) (service.SignatureSource, error) {
	up, err := u.get(c, field)
	if err != nil {
		return service.SignatureSource{}, err
	}
	return service.SignatureSource{Upload: up, UseStored: useStoredSignature(c)}, nil
}

// useStoredSignature reads usar_firma_guardada from the multipart form, a
// JSON body or the query string, in that order
func useStoredSignature(c *gin.Context) bool {
	if isMultipart(c) {
		if raw := c.PostForm("usar_firma_guardada"); raw != "" {
			v, _ := strconv.ParseBool(raw)
			return v
		}
	} else if c.Request.ContentLength != 0 {
		var flag struct {
			UsarFirmaGuardada *bool `json:"usar_firma_guardada"`
		}
		if err := c.ShouldBindBodyWithJSON(&flag); err == nil && flag.UsarFirmaGuardada != nil {
			return *flag.UsarFirmaGuardada
		}
	}
	v, _ := strconv.ParseBool(c.Query("usar_firma_guardada"))
	return v
}

// sendDocument streams a generated workbook as an attachment
func sendDocument(c *gin.Context, doc *export.Document) {
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, doc.Content)
}
