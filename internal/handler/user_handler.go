package handler

import (
	"net/http"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/middleware"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/service"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/pagination"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService  service.UserService
	auth         *middleware.Auth
	secureCookie bool
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(userService service.UserService, auth *middleware.Auth, secureCookie bool) *UserHandler {
	return &UserHandler{userService: userService, auth: auth, secureCookie: secureCookie}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public routes
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)

	me := router.Group("/me", h.auth.RequireAuth())
	{
		me.GET("", h.GetMe)
		me.PUT("/firma", h.UploadSignature)
	}

	users := router.Group("/usuarios")
	{
		users.GET("", h.auth.RequirePermission(model.PermUsuariosListar), h.ListUsers)
		users.GET("/:id", h.auth.RequirePermission(model.PermUsuariosListar), h.GetUser)
		users.POST("", h.auth.RequirePermission(model.PermUsuariosGestionar), h.CreateUser)
		users.PUT("/:id", h.auth.RequirePermission(model.PermUsuariosGestionar), h.UpdateUser)
		users.DELETE("/:id", h.auth.RequirePermission(model.PermUsuariosGestionar), h.DeleteUser)
	}
}

// Login handles POST /login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Authenticates a user by usuario (or correo) and contrasena, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest   true  "Login Credentials"
// @Success      200      {object}  response.Response{objeto=service.LoginResponse}
// @Failure      401      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := bindPayload(c, &req); err != nil {
		respondError(c, err)
		return
	}

	res, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	maxAge := int(time.Until(res.ExpiresAt).Seconds())
	middleware.SetTokenCookie(c, res.Token, maxAge, h.secureCookie)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Inicio de sesión exitoso", res))
}

// Logout clears the session cookie
// @Summary      Logout user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Sesión cerrada", nil))
}

// GetMe returns the authenticated user and the permissions of its role
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{objeto=service.Profile}
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	profile, err := h.userService.Me(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Perfil obtenido", profile))
}

// UploadSignature replaces the profile signature of the current user
// @Summary      Upload profile signature
// @Tags         auth
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        firma  formData  file  true  "Signature image (png, jpg, jpeg; max 2 MiB)"
// @Success      200    {object}  response.Response{objeto=model.User}
// @Failure      422    {object}  response.Response
// @Router       /me/firma [put]
func (h *UserHandler) UploadSignature(c *gin.Context) {
	files := &uploads{}
	defer files.Close()

	up, err := files.get(c, "firma")
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.UploadSignature(c.Request.Context(), actorFrom(c), up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Firma actualizada", user))
}

// ListUsers returns a paginated list of users
// @Summary      List users
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Search by nombre, usuario or correo"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Success      200     {object}  response.Response{objeto=pagination.Page[model.User]}
// @Router       /usuarios [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "Usuarios obtenidos", users, p, total)
}

// GetUser returns a single user
// @Summary      Get user
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Response{objeto=model.User}
// @Failure      404  {object}  response.Response
// @Router       /usuarios/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Usuario obtenido", user))
}

// CreateUser creates a user with a hashed password
// @Summary      Create a new user
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{objeto=model.User}
// @Failure      422      {object}  response.Response
// @Router       /usuarios [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := bindPayload(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, "Usuario creado", user))
}

// UpdateUser updates a user; an empty contrasena keeps the current password
// @Summary      Update user
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Update User Payload"
// @Success      200      {object}  response.Response{objeto=model.User}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /usuarios/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if err := bindPayload(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Usuario actualizado", user))
}

// DeleteUser removes a user
// @Summary      Delete user
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /usuarios/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Usuario eliminado", nil))
}
