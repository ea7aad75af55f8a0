package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/JuniorArias02/deparsistemasapiv2-sub000/api/swagger" // swagger docs
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/config"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/database"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/export"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/handler"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/middleware"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/notification"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/service"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/validation"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/websocket"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Pedidos de Compra API
// @version         1.0
// @description     Purchase orders with two-stage approval, fixed-asset handovers and catalogs.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		awsCfg, err = cfg.LoadAWS(ctx)
		if err != nil {
			log.Fatalf("AWS configuration failed: %v", err)
		}
	}

	dsn, err := cfg.ResolveDSN(ctx, awsCfg)
	if err != nil {
		log.Fatalf("Database credentials could not be resolved: %v", err)
	}
	db, err := database.NewConnection(dsn, cfg.GinMode != gin.ReleaseMode)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	disk, err := newDisk(cfg, awsCfg)
	if err != nil {
		log.Fatalf("Storage initialization failed: %v", err)
	}

	var mailer notification.Mailer = notification.LogMailer{}
	if cfg.Mail.Driver == "ses" {
		mailer = notification.NewSESMailer(awsCfg, cfg.Mail.From)
	}
	notifier, err := notification.NewNotifier(mailer)
	if err != nil {
		log.Fatalf("Email templates failed to load: %v", err)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.Register(v)
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	pedidoRepo := repository.NewPedidoRepository(db)
	entregaRepo := repository.NewEntregaRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	sedeRepo := repository.NewCatalogRepository[model.Sede](db)
	dependenciaRepo := repository.NewCatalogRepository[model.Dependencia](db)
	tipoRepo := repository.NewCatalogRepository[model.TipoSolicitud](db)
	productoRepo := repository.NewCatalogRepository[model.Producto](db)
	personalRepo := repository.NewCatalogRepository[model.Personal](db)
	inventarioRepo := repository.NewCatalogRepository[model.Inventario](db)

	permissionService := service.NewPermissionService(roleRepo, service.DefaultPermissionTTL)
	signatures := service.NewSignatureResolver(disk, userRepo)

	roleService := service.NewRoleService(roleRepo, auditRepo, txManager, permissionService)
	userService := service.NewUserService(service.UserDeps{
		TxManager:  txManager,
		Users:      userRepo,
		Roles:      roleRepo,
		Audit:      auditRepo,
		Perms:      permissionService,
		Signatures: signatures,
		JWTSecret:  cfg.JWTSecret,
		JWTTTL:     cfg.JWTTTL,
	})
	pedidoService := service.NewPedidoService(service.PedidoDeps{
		TxManager:    txManager,
		Pedidos:      pedidoRepo,
		Users:        userRepo,
		Audit:        auditRepo,
		Sedes:        sedeRepo,
		Dependencias: dependenciaRepo,
		Tipos:        tipoRepo,
		Productos:    productoRepo,
		Signatures:   signatures,
		Notifier:     notifier,
		Events:       wsHub,
		Exporter:     export.NewPedidoExporter(cfg.Export.PedidoTemplate, disk),
		Policy:       cfg.Workflow,
	})
	entregaService := service.NewEntregaService(service.EntregaDeps{
		TxManager:    txManager,
		Entregas:     entregaRepo,
		Audit:        auditRepo,
		Inventario:   inventarioRepo,
		Personal:     personalRepo,
		Sedes:        sedeRepo,
		Dependencias: dependenciaRepo,
		Signatures:   signatures,
		Exporter:     export.NewEntregaExporter(cfg.Export.EntregaTemplate, disk),
	})
	dashboardService := service.NewDashboardService(dashboardRepo)
	auditService := service.NewAuditService(auditRepo)

	if err := roleService.SeedDefaultRolesAndPermissions(ctx); err != nil {
		log.Fatalf("Seeding roles and permissions failed: %v", err)
	}
	if err := userService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		log.Fatalf("Admin bootstrap failed: %v", err)
	}

	auth := middleware.NewAuth(cfg.JWTSecret, permissionService)
	secureCookie := cfg.GinMode == gin.ReleaseMode

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), logging.JSONLogger())
	router.MaxMultipartMemory = 8 << 20

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", logging.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", logging.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "websocket_clients": wsHub.ClientCount()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.JWTSecret)
	})

	handler.NewStorageHandler(disk, auth).RegisterRoutes(router)

	// API Routing
	api := router.Group("/api")
	handler.NewUserHandler(userService, auth, secureCookie).RegisterRoutes(api)
	handler.NewRoleHandler(roleService, auth).RegisterRoutes(api)
	handler.NewPedidoHandler(pedidoService, auth).RegisterRoutes(api)
	handler.NewEntregaHandler(entregaService, auth).RegisterRoutes(api)
	handler.NewDashboardHandler(dashboardService, auth).RegisterRoutes(api)
	handler.NewAuditHandler(auditService, auth).RegisterRoutes(api)

	registerCatalog(api, auth, model.RecursoSedes, "Sede", sedeRepo, auditRepo, txManager)
	registerCatalog(api, auth, model.RecursoDependencias, "Dependencia", dependenciaRepo, auditRepo, txManager)
	registerCatalog(api, auth, model.RecursoTiposSolicitud, "Tipo de solicitud", tipoRepo, auditRepo, txManager)
	registerCatalog(api, auth, model.RecursoProductos, "Producto", productoRepo, auditRepo, txManager)
	registerCatalog(api, auth, model.RecursoPersonal, "Personal", personalRepo, auditRepo, txManager)
	registerCatalog(api, auth, model.RecursoInventario, "Activo", inventarioRepo, auditRepo, txManager)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("server listening", map[string]interface{}{"port": cfg.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("graceful shutdown failed", err, nil)
	}
}

func newDisk(cfg *config.Config, awsCfg aws.Config) (storage.Disk, error) {
	if cfg.Storage.Driver == "s3" {
		return storage.NewS3Disk(awsCfg, cfg.Storage.S3Bucket), nil
	}
	local, err := storage.NewLocalDisk(cfg.Storage.Root)
	if err != nil {
		return nil, err
	}
	return local, nil
}

// registerCatalog mounts CRUD routes for one reference table
func registerCatalog[T any, PT repository.CatalogEntity[T]](api *gin.RouterGroup, auth *middleware.Auth, recurso, label string, repo repository.CatalogRepository[T], auditRepo repository.AuditRepository, txManager repository.TransactionManager) {
	svc := service.NewCatalogService[T, PT](label, repo, auditRepo, txManager)
	handler.NewCatalogHandler(recurso, label, svc, auth).RegisterRoutes(api)
}
