package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/middleware"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/service"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("handler-secret")

type allowAll struct{}

func (allowAll) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	return true, nil
}

func bearer(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "1",
		"role": model.RoleCompras,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

// stubPedidoService overrides the calls under test. Other methods panic.
type stubPedidoService struct {
	service.PedidoService

	gotActor  service.Actor
	gotInput  service.PedidoInput
	gotReview service.ReviewInput
	gotFirma  []byte
	useStored bool
	err       error
}

func (s *stubPedidoService) Create(ctx context.Context, actor service.Actor, in service.PedidoInput, firma service.SignatureSource) (*model.CpPedido, error) {
	s.gotActor, s.gotInput, s.useStored = actor, in, firma.UseStored
	if firma.Upload != nil {
		s.gotFirma, _ = io.ReadAll(firma.Upload.Content)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &model.CpPedido{Base: model.Base{ID: 8}, Consecutivo: 3}, nil
}

func (s *stubPedidoService) Get(ctx context.Context, id uint) (*model.CpPedido, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.CpPedido{Base: model.Base{ID: id}}, nil
}

func (s *stubPedidoService) RejectManagement(ctx context.Context, actor service.Actor, id uint, in service.ReviewInput) (*model.CpPedido, error) {
	s.gotReview = in
	if s.err != nil {
		return nil, s.err
	}
	return &model.CpPedido{Base: model.Base{ID: id}, EstadoGerencia: model.GerenciaRechazado}, nil
}

func setupPedidoRouter(svc service.PedidoService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewPedidoHandler(svc, middleware.NewAuth(testSecret, allowAll{})).RegisterRoutes(r.Group("/api"))
	return r
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestCreatePedidoMultipart(t *testing.T) {
	svc := &stubPedidoService{}
	r := setupPedidoRouter(svc)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("payload", `{"proceso_solicitante_id":1,"tipo_solicitud_id":2,"sede_id":3,"items":[{"nombre":"Resma","cantidad":4,"unidad_medida":"paquete"}]}`)
	_ = mw.WriteField("usar_firma_guardada", "false")
	part, err := mw.CreateFormFile("firma", "firma.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/pedidos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Status != http.StatusCreated || env.Mensaje != "Pedido creado" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if svc.gotActor.UserID != 1 || svc.gotActor.Role != model.RoleCompras {
		t.Fatalf("unexpected actor %+v", svc.gotActor)
	}
	if svc.gotInput.SedeID != 3 || len(svc.gotInput.Items) != 1 || svc.gotInput.Items[0].Cantidad != 4 {
		t.Fatalf("payload not decoded: %+v", svc.gotInput)
	}
	if string(svc.gotFirma) != "png-bytes" || svc.useStored {
		t.Fatalf("unexpected signature %q stored=%v", svc.gotFirma, svc.useStored)
	}
}

func TestCreatePedidoMissingPayload(t *testing.T) {
	r := setupPedidoRouter(&stubPedidoService{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("usar_firma_guardada", "true")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/pedidos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	fields, ok := env.Objeto.(map[string]interface{})
	if !ok || fields["payload"] == nil {
		t.Fatalf("expected payload field error, got %+v", env.Objeto)
	}
}

func TestGetPedidoErrors(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		err     error
		want    int
		mensaje string
	}{
		{"bad id", "/api/pedidos/abc", nil, http.StatusBadRequest, "Identificador inválido"},
		{"not found", "/api/pedidos/5", apperror.NotFound("Pedido no encontrado"), http.StatusNotFound, "Pedido no encontrado"},
		{"internal", "/api/pedidos/5", errors.New("pq: connection reset"), http.StatusInternalServerError, "Error interno del servidor"},
	}
	for _, tc := range cases {
		r := setupPedidoRouter(&stubPedidoService{err: tc.err})
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set("Authorization", bearer(t))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
		env := decodeEnvelope(t, w)
		if env.Mensaje != tc.mensaje || env.Status != tc.want {
			t.Fatalf("%s: unexpected envelope %+v", tc.name, env)
		}
	}
}

func TestRejectManagementBodies(t *testing.T) {
	svc := &stubPedidoService{}
	r := setupPedidoRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/pedidos/4/gerencia/rechazar", strings.NewReader(`{"motivo":"sin presupuesto"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || svc.gotReview.Motivo != "sin presupuesto" {
		t.Fatalf("expected 200 with motivo, got %d %q", w.Code, svc.gotReview.Motivo)
	}

	// an empty body reaches the service, which decides whether motivo is required
	svc.err = apperror.ValidationFields("El motivo es obligatorio", map[string][]string{"motivo": {"indique el motivo del rechazo"}})
	req = httptest.NewRequest(http.MethodPut, "/api/pedidos/4/gerencia/rechazar", nil)
	req.Header.Set("Authorization", bearer(t))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestStorageServe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	disk, err := storage.NewLocalDisk(t.TempDir())
	if err != nil {
		t.Fatalf("disk: %v", err)
	}
	if err := disk.Store(context.Background(), "firmas_pedidos/a.png", strings.NewReader("imagen")); err != nil {
		t.Fatalf("store: %v", err)
	}
	r := gin.New()
	NewStorageHandler(disk, middleware.NewAuth(testSecret, allowAll{})).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/storage/firmas_pedidos/a.png", nil)
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "imagen" {
		t.Fatalf("expected file content, got %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}

	for _, p := range []string{"/storage/firmas_pedidos/b.png", "/storage/../secret"} {
		req = httptest.NewRequest(http.MethodGet, p, nil)
		req.Header.Set("Authorization", bearer(t))
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", p, w.Code)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/storage/firmas_pedidos/a.png", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestCreatePedidoJSONWithStoredSignature(t *testing.T) {
	svc := &stubPedidoService{}
	r := setupPedidoRouter(svc)

	body := `{"proceso_solicitante_id":1,"tipo_solicitud_id":2,"sede_id":3,"usar_firma_guardada":true,"items":[{"nombre":"Resma","cantidad":1,"unidad_medida":"paquete"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/pedidos", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !svc.useStored || svc.gotFirma != nil || svc.gotInput.SedeID != 3 {
		t.Fatalf("expected stored signature flag from the body, got stored=%v input=%+v", svc.useStored, svc.gotInput)
	}

	// the query string still works for clients that send the flag there
	svc.useStored = false
	body = `{"proceso_solicitante_id":1,"tipo_solicitud_id":2,"sede_id":3,"items":[{"nombre":"Resma","cantidad":1,"unidad_medida":"paquete"}]}`
	req = httptest.NewRequest(http.MethodPost, "/api/pedidos?usar_firma_guardada=true", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated || !svc.useStored {
		t.Fatalf("expected stored signature flag from the query, got %d stored=%v", w.Code, svc.useStored)
	}
}
