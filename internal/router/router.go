package router

import (
	"time"

	"github.com/pirela/sistema-guia/internal/cache"
	"github.com/pirela/sistema-guia/internal/config"
	"github.com/pirela/sistema-guia/internal/handler"
	"github.com/pirela/sistema-guia/internal/infra"
	"github.com/pirela/sistema-guia/internal/middleware"
	"github.com/pirela/sistema-guia/internal/model"
	"github.com/pirela/sistema-guia/internal/repository"
	"github.com/pirela/sistema-guia/internal/service"
	"github.com/pirela/sistema-guia/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB; the request cache
// and the worker dispatcher are injected into the services that use them.
func New(cfg *config.Config, db *gorm.DB, c *cache.Cache, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	shopifyClient := infra.NewShopifyClient(cfg.ShopifyShop, cfg.ShopifyAccessToken, cfg.ShopifyAPIVersion)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	guiaRepo := repository.NewGuiaRepository(db)
	historialRepo := repository.NewHistorialRepository(db)
	novedadRepo := repository.NewNovedadRepository(db)
	reporteRepo := repository.NewReporteRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	productoSvc := service.NewProductoService(productoRepo, c)
	guiaSvc := service.NewGuiaService(guiaRepo, historialRepo, novedadRepo, usuarioRepo, productoRepo, c, dispatcher)
	importSvc := service.NewImportacionService(shopifyClient, guiaRepo, productoRepo, usuarioRepo, historialRepo, c)
	reporteSvc := service.NewReporteService(reporteRepo, c)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	guiasH := handler.NewGuiasHandler(guiaSvc, usuarioRepo)
	importH := handler.NewImportacionHandler(importSvc, usuarioRepo)
	reportesH := handler.NewReportesHandler(reporteSvc)
	healthH := handler.NewHealthHandler(db, c)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", healthH.Check)

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	ambosRoles := middleware.RequireRole(model.RolAdministrador, model.RolMotorizado)
	soloAdmin := middleware.RequireRole(model.RolAdministrador)

	v1 := r.Group("/v1", jwtMW)
	{
		// Guías — motorizados read their own and run their transitions;
		// everything else is admin territory.
		v1.GET("/guias", ambosRoles, guiasH.Listar)
		v1.GET("/guias/pdf", soloAdmin, guiasH.PDF)
		v1.GET("/guias/:id", ambosRoles, guiasH.Detalle)
		v1.PATCH("/guias/:id/estado", ambosRoles, guiasH.CambiarEstado)
		guias := v1.Group("/guias", soloAdmin)
		{
			guias.POST("", guiasH.Crear)
			guias.PATCH("/:id/motorizado", guiasH.Reasignar)
			guias.DELETE("/:id", guiasH.Eliminar)
		}

		// Productos — reads for both roles, writes admin only
		v1.GET("/productos", ambosRoles, productosH.Listar)
		v1.GET("/productos/:id", ambosRoles, productosH.Obtener)
		prods := v1.Group("/productos", soloAdmin)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
			prods.PATCH("/:id/reactivar", productosH.Reactivar)
		}

		usuarios := v1.Group("/usuarios", soloAdmin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Eliminar)
			usuarios.PATCH("/:id/desactivar", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}

		v1.POST("/shopify/importar", soloAdmin, importH.Importar)
		v1.GET("/reportes", soloAdmin, reportesH.Resumen)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
