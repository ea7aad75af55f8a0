package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by RequireAuth
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

const accessTokenCookie = "access_token"

// PermissionChecker answers whether a role holds a permission
type PermissionChecker interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

// Auth validates JWTs and permission requirements
type Auth struct {
	secret  []byte
	checker PermissionChecker
}

func NewAuth(secret []byte, checker PermissionChecker) *Auth {
	return &Auth{secret: secret, checker: checker}
}

// SetTokenCookie stores the access token as an HttpOnly cookie
func SetTokenCookie(c *gin.Context, token string, maxAge int, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, token, maxAge, "/", "", secure, true)
}

// ClearTokenCookie removes the access_token cookie
func ClearTokenCookie(c *gin.Context, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", secure, true)
}

// tokenFromRequest reads the Bearer header first, then the cookie
func tokenFromRequest(c *gin.Context) (string, string) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", "Formato de autorización inválido. Se espera 'Bearer <token>'"
		}
		return strings.TrimSpace(parts[1]), ""
	}
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie, ""
	}
	return "", "No se envió el token de autenticación"
}

// authenticate parses the token and stores the user in the context. It
// aborts the request and returns false on failure.
func (a *Auth) authenticate(c *gin.Context) bool {
	if _, ok := c.Get(ContextUserID); ok {
		return true
	}

	tokenString, problem := tokenFromRequest(c)
	if problem != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
		return false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Token inválido o expirado"))
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Token inválido"))
		return false
	}
	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || userID == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Token inválido"))
		return false
	}
	role, _ := claims["role"].(string)

	c.Set(ContextUserID, uint(userID))
	c.Set(ContextUserRole, role)
	return true
}

// RequireAuth validates the JWT and sets userID and userRole
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// RequirePermission authenticates the request and checks that the user's
// role holds every permission listed.
func (a *Auth) RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		role := c.GetString(ContextUserRole)

		for _, required := range requiredPerms {
			ok, err := a.checker.HasPermission(c.Request.Context(), role, required)
			if err != nil {
				logging.Error("permission lookup failed", err, map[string]interface{}{"role": role, "permission": required})
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "No se pudieron verificar los permisos"))
				return
			}
			if !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Acceso denegado: falta el permiso '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}
