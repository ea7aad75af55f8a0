package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/config"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Nombre     string `json:"nombre" binding:"required"`
	Usuario    string `json:"usuario" binding:"required"`
	Correo     string `json:"correo" binding:"required,email"`
	Contrasena string `json:"contrasena" binding:"required,min=6"`
	Telefono   string `json:"telefono"`
	RoleID     uint   `json:"rol_id" binding:"required"`
	SedeID     *uint  `json:"sede_id"`
}

type UpdateUserRequest struct {
	Nombre     string `json:"nombre" binding:"required"`
	Usuario    string `json:"usuario" binding:"required"`
	Correo     string `json:"correo" binding:"required,email"`
	Contrasena string `json:"contrasena" binding:"omitempty,min=6"`
	Telefono   string `json:"telefono"`
	RoleID     uint   `json:"rol_id" binding:"required"`
	SedeID     *uint  `json:"sede_id"`
	Estado     *bool  `json:"estado"`
}

type LoginRequest struct {
	Usuario    string `json:"usuario" binding:"required"`
	Contrasena string `json:"contrasena" binding:"required"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expira_en"`
	Usuario   *model.User `json:"usuario"`
	Permisos  []string    `json:"permisos"`
}

// Profile is the authenticated user with the permission names of its role
type Profile struct {
	Usuario  *model.User `json:"usuario"`
	Permisos []string    `json:"permisos"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Me(ctx context.Context, actor Actor) (*Profile, error)
	ListUsers(ctx context.Context, search string, page, limit int) ([]model.User, int64, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, actor Actor, id uint, req UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, actor Actor, id uint) error
	// UploadSignature replaces the actor's profile signature
	UploadSignature(ctx context.Context, actor Actor, up *Upload) (*model.User, error)
	// EnsureAdmin creates the bootstrap admin account when it does not exist
	EnsureAdmin(ctx context.Context, seed config.AdminSeed) error
}

type UserDeps struct {
	TxManager  repository.TransactionManager
	Users      repository.UserRepository
	Roles      repository.RoleRepository
	Audit      repository.AuditRepository
	Perms      PermissionService
	Signatures *SignatureResolver
	JWTSecret  []byte
	JWTTTL     time.Duration
}

type userService struct {
	UserDeps
	now func() time.Time
}

// NewUserService returns a new instance of UserService
func NewUserService(deps UserDeps) UserService {
	if deps.JWTTTL <= 0 {
		deps.JWTTTL = 24 * time.Hour
	}
	return &userService{UserDeps: deps, now: time.Now}
}

var errInvalidCredentials = apperror.Unauthorized("Usuario o contraseña incorrectos")

func (s *userService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	login := strings.TrimSpace(req.Usuario)
	user, err := s.Users.GetByUsuario(ctx, login)
	if errors.Is(err, gorm.ErrRecordNotFound) && strings.Contains(login, "@") {
		user, err = s.Users.GetByCorreo(ctx, strings.ToLower(login))
		if err == nil {
			user, err = s.Users.GetByID(ctx, user.ID)
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, apperror.FromDB(err, "Usuario")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Contrasena), []byte(req.Contrasena)); err != nil {
		return nil, errInvalidCredentials
	}
	if !user.Estado {
		return nil, apperror.Unauthorized("El usuario está inactivo")
	}

	role := user.RoleName()
	expiresAt := s.now().Add(s.JWTTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"role": role,
		"iat":  s.now().Unix(),
		"exp":  expiresAt.Unix(),
	})
	tokenString, err := token.SignedString(s.JWTSecret)
	if err != nil {
		return nil, apperror.Internal("no se pudo generar el token", err)
	}

	perms, err := s.Perms.Permissions(ctx, role)
	if err != nil {
		return nil, apperror.FromDB(err, "Permiso")
	}
	return &LoginResponse{Token: tokenString, ExpiresAt: expiresAt, Usuario: user, Permisos: perms}, nil
}

func (s *userService) Me(ctx context.Context, actor Actor) (*Profile, error) {
	user, err := s.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	perms, err := s.Perms.Permissions(ctx, user.RoleName())
	if err != nil {
		return nil, apperror.FromDB(err, "Permiso")
	}
	return &Profile{Usuario: user, Permisos: perms}, nil
}

func (s *userService) ListUsers(ctx context.Context, search string, page, limit int) ([]model.User, int64, error) {
	users, total, err := s.Users.List(ctx, strings.TrimSpace(search), page, limit)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "Usuario")
	}
	return users, total, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "Usuario")
	}
	return user, nil
}

// checkUnique fails when usuario or correo belong to a user other than id
func (s *userService) checkUnique(ctx context.Context, id uint, usuario, correo string) error {
	fields := map[string][]string{}
	if u, err := s.Users.GetByUsuario(ctx, usuario); err == nil && u.ID != id {
		fields["usuario"] = []string{"el usuario ya está registrado"}
	}
	if u, err := s.Users.GetByCorreo(ctx, correo); err == nil && u.ID != id {
		fields["correo"] = []string{"el correo ya está registrado"}
	}
	if len(fields) > 0 {
		return apperror.ValidationFields("Los datos enviados no son válidos", fields)
	}
	return nil
}

func (s *userService) checkRole(ctx context.Context, roleID uint) (*model.Role, error) {
	role, err := s.Roles.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ValidationFields("Los datos enviados no son válidos", map[string][]string{
				"rol_id": {"el rol no existe"},
			})
		}
		return nil, apperror.FromDB(err, "Rol")
	}
	return role, nil
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*model.User, error) {
	req.Usuario = strings.TrimSpace(req.Usuario)
	req.Correo = strings.ToLower(strings.TrimSpace(req.Correo))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.checkRole(ctx, req.RoleID); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, 0, req.Usuario, req.Correo); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Contrasena), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("no se pudo procesar la contraseña", err)
	}
	user := &model.User{
		Nombre:     strings.TrimSpace(req.Nombre),
		Usuario:    req.Usuario,
		Correo:     req.Correo,
		Contrasena: string(hashed),
		Telefono:   req.Telefono,
		RoleID:     req.RoleID,
		SedeID:     req.SedeID,
		Estado:     true,
	}

	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Users.Create(txCtx, user); err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, model.ActionCreateUser, user.ID, user.Usuario, map[string]interface{}{
			"rol_id": user.RoleID,
		})
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Usuario")
	}
	return s.GetUser(ctx, user.ID)
}

func (s *userService) UpdateUser(ctx context.Context, actor Actor, id uint, req UpdateUserRequest) (*model.User, error) {
	req.Usuario = strings.TrimSpace(req.Usuario)
	req.Correo = strings.ToLower(strings.TrimSpace(req.Correo))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.checkRole(ctx, req.RoleID); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, id, req.Usuario, req.Correo); err != nil {
		return nil, err
	}
	if id == actor.UserID && req.Estado != nil && !*req.Estado {
		return nil, apperror.BusinessRule("No puede desactivar su propio usuario")
	}

	oldRole := user.RoleName()
	user.Nombre = strings.TrimSpace(req.Nombre)
	user.Usuario = req.Usuario
	user.Correo = req.Correo
	user.Telefono = req.Telefono
	user.RoleID = req.RoleID
	user.SedeID = req.SedeID
	if req.Estado != nil {
		user.Estado = *req.Estado
	}
	if req.Contrasena != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Contrasena), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperror.Internal("no se pudo procesar la contraseña", err)
		}
		user.Contrasena = string(hashed)
	}
	user.Role = nil
	user.Sede = nil

	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Users.Update(txCtx, user); err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, model.ActionUpdateUser, user.ID, user.Usuario, map[string]interface{}{
			"rol_anterior":        oldRole,
			"rol_id":              user.RoleID,
			"estado":              user.Estado,
			"contrasena_cambiada": req.Contrasena != "",
		})
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Usuario")
	}
	return s.GetUser(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, actor Actor, id uint) error {
	if id == actor.UserID {
		return apperror.BusinessRule("No puede eliminar su propio usuario")
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Users.Delete(txCtx, id); err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, model.ActionDeleteUser, id, user.Usuario, nil)
	})
	if err != nil {
		return apperror.FromDB(err, "Usuario")
	}
	return nil
}

func (s *userService) UploadSignature(ctx context.Context, actor Actor, up *Upload) (*model.User, error) {
	if up == nil {
		return nil, apperror.ValidationFields("La firma es obligatoria", map[string][]string{
			"firma": {"adjunte la imagen de la firma"},
		})
	}
	user, err := s.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	path, err := s.Signatures.StoreProfile(ctx, user.ID, up)
	if err != nil {
		return nil, err
	}
	old := user.FirmaDigital
	user.FirmaDigital = path
	user.Role = nil
	user.Sede = nil

	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Users.Update(txCtx, user); err != nil {
			return err
		}
		return writeAudit(txCtx, s.Audit, actor, model.ActionUpdateUserSignature, user.ID, user.Usuario, map[string]interface{}{
			"firma": path.String(),
		})
	})
	if err != nil {
		s.Signatures.Discard(ctx, path)
		return nil, apperror.FromDB(err, "Usuario")
	}
	if old != path {
		s.Signatures.DiscardOwned(ctx, FolderFirmasUsuarios, old)
	}
	return s.GetUser(ctx, user.ID)
}

func (s *userService) EnsureAdmin(ctx context.Context, seed config.AdminSeed) error {
	if seed.Usuario == "" || seed.Password == "" {
		return nil
	}
	if _, err := s.Users.GetByUsuario(ctx, seed.Usuario); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	role, err := s.Roles.FindByName(ctx, model.RoleAdmin)
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := &model.User{
		Nombre:     "Administrador",
		Usuario:    seed.Usuario,
		Correo:     strings.ToLower(seed.Correo),
		Contrasena: string(hashed),
		RoleID:     role.ID,
		Estado:     true,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return err
	}
	logging.Info("bootstrap admin user created", map[string]interface{}{"usuario": user.Usuario})
	return nil
}
