package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

type staticChecker struct {
	grants map[string][]string
	err    error
}

func (s staticChecker) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, p := range s.grants[role] {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

func signToken(t *testing.T, secret []byte, sub, role string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func setupRouter(checker PermissionChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewAuth(testSecret, checker)
	r := gin.New()
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetUint(ContextUserID), "role": c.GetString(ContextUserRole)})
	})
	r.GET("/pedidos", auth.RequirePermission("listar.compras"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestRequireAuthMissingToken(t *testing.T) {
	r := setupRouter(staticChecker{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	body := decode(t, w)
	if body.Status != http.StatusUnauthorized || body.Mensaje == "" || body.Objeto != nil {
		t.Fatalf("unexpected envelope %+v", body)
	}
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	r := setupRouter(staticChecker{})
	tokens := map[string]string{
		"expired":      "Bearer " + signToken(t, testSecret, "5", "compras", time.Now().Add(-time.Minute)),
		"wrong secret": "Bearer " + signToken(t, []byte("other"), "5", "compras", time.Now().Add(time.Hour)),
		"bad subject":  "Bearer " + signToken(t, testSecret, "abc", "compras", time.Now().Add(time.Hour)),
		"bad scheme":   "Basic dXNlcjpwYXNz",
	}
	for name, header := range tokens {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestRequireAuthHeaderAndCookie(t *testing.T) {
	r := setupRouter(staticChecker{})
	token := signToken(t, testSecret, "5", "compras", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with header, got %d: %s", w.Code, w.Body.String())
	}
	var got struct {
		User uint   `json:"user"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.User != 5 || got.Role != "compras" {
		t.Fatalf("unexpected identity %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with cookie, got %d", w.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	checker := staticChecker{grants: map[string][]string{"compras": {"listar.compras"}}}
	r := setupRouter(checker)

	cases := []struct {
		role string
		want int
	}{
		{"compras", http.StatusOK},
		{"sistemas", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/pedidos", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "9", tc.role, time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("role %s: expected %d, got %d", tc.role, tc.want, w.Code)
		}
	}

	r = setupRouter(staticChecker{err: errors.New("db down")})
	req := httptest.NewRequest(http.MethodGet, "/pedidos", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "9", "compras", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on lookup failure, got %d", w.Code)
	}
}
