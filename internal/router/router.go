package router

import (
	"context"
	"time"

	"merygarcia/internal/config"
	"merygarcia/internal/handler"
	"merygarcia/internal/infra"
	"merygarcia/internal/middleware"
	"merygarcia/internal/repository"
	"merygarcia/internal/service"
	"merygarcia/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// The exchange-rate service and the job dispatcher are built by the caller
// because the crons and the worker pool share them. ctx bounds the
// rate-limiter purge goroutines.
func New(
	ctx context.Context,
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	dolarCB *infra.CircuitBreaker,
	tipoCambioSvc service.TipoCambioService,
	dispatcher *worker.Dispatcher,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	apiLimiter := middleware.APIRateLimiter(1000)
	loginLimiter := middleware.LoginRateLimiter()
	apiLimiter.StartPurge(ctx, 5*time.Minute, 10*time.Minute)
	loginLimiter.StartPurge(ctx, 5*time.Minute, 10*time.Minute)

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.ErrorHandler())
	r.Use(apiLimiter.Middleware())

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	comandaRepo := repository.NewComandaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	personalRepo := repository.NewPersonalRepository(db)
	comprobanteRepo := repository.NewComprobanteRepository(db)
	borradorRepo := repository.NewBorradorRepository(rdb, cfg.BorradorTTL())

	// ── Services ─────────────────────────────────────────────────────────────
	recargo, descuento := cfg.Ajustes()
	opts := service.ComandaOpciones{
		PermitirSobrepago: cfg.PermitirSobrepago,
		Ajustes:           service.AjustesPago{RecargoTarjetaPct: recargo, DescuentoEfectivoPct: descuento},
	}

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	clienteSvc := service.NewClienteService(clienteRepo)
	productoSvc := service.NewProductoService(productoRepo, tipoCambioSvc)
	personalSvc := service.NewPersonalService(personalRepo)
	comandaSvc := service.NewComandaService(comandaRepo, clienteRepo, productoRepo, personalRepo, comprobanteRepo, tipoCambioSvc, dispatcher, opts)
	borradorSvc := service.NewBorradorService(borradorRepo, clienteRepo, productoRepo, comandaSvc, tipoCambioSvc, opts)
	comprobanteSvc := service.NewComprobanteService(comprobanteRepo, dispatcher, cfg.PDFStoragePath)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	comandasH := handler.NewComandasHandler(comandaSvc, comprobanteSvc)
	borradoresH := handler.NewBorradoresHandler(borradorSvc)
	tipoCambioH := handler.NewTipoCambioHandler(tipoCambioSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	personalH := handler.NewPersonalHandler(personalSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, dolarCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	todos := middleware.RequireRole(middleware.RolCajero, middleware.RolEncargado, middleware.RolAdministrador)
	gestion := middleware.RequireRole(middleware.RolEncargado, middleware.RolAdministrador)
	admin := middleware.RequireRole(middleware.RolAdministrador)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		tc := v1.Group("/tipo-cambio")
		{
			tc.GET("", todos, tipoCambioH.Actual)
			tc.GET("/historial", gestion, tipoCambioH.Historial)
			tc.POST("", admin, tipoCambioH.EstablecerManual)
		}

		comandas := v1.Group("/comandas")
		{
			comandas.POST("/calcular", todos, comandasH.Calcular)
			comandas.POST("", todos, comandasH.Registrar)
			comandas.GET("", todos, comandasH.Listar)
			comandas.GET("/siguiente-numero", todos, comandasH.SiguienteNumero)
			comandas.GET("/:id", todos, comandasH.ObtenerPorID)
			comandas.DELETE("/:id", gestion, comandasH.Anular)
			comandas.GET("/:id/comprobante", todos, comandasH.Comprobante)
			comandas.GET("/:id/comprobante/pdf", todos, comandasH.DescargarPDF)
			comandas.POST("/:id/comprobante/reintentar", gestion, comandasH.ReintentarComprobante)
		}

		borradores := v1.Group("/borradores", todos)
		{
			borradores.POST("", borradoresH.Crear)
			borradores.GET("/:id", borradoresH.Obtener)
			borradores.DELETE("/:id", borradoresH.Descartar)
			borradores.POST("/:id/items", borradoresH.AgregarItem)
			borradores.PUT("/:id/items/:idx", borradoresH.EditarItem)
			borradores.DELETE("/:id/items/:idx", borradoresH.QuitarItem)
			borradores.POST("/:id/pagos", borradoresH.AgregarPago)
			borradores.PUT("/:id/pagos/:idx", borradoresH.EditarPago)
			borradores.DELETE("/:id/pagos/:idx", borradoresH.QuitarPago)
			borradores.PUT("/:id/sena", borradoresH.AplicarSena)
			borradores.DELETE("/:id/sena", borradoresH.QuitarSena)
			borradores.POST("/:id/guardar", borradoresH.Guardar)
		}

		// Cashiers register clients and their deposits at the counter
		clientes := v1.Group("/clientes", todos)
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.ObtenerPorID)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.POST("/:id/senas", clientesH.RegistrarSena)
			clientes.DELETE("/:id", gestion, clientesH.Desactivar)
		}

		v1.GET("/productos", todos, productosH.Listar)
		v1.GET("/productos/:id", todos, productosH.ObtenerPorID)
		prods := v1.Group("/productos", gestion)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
		}

		v1.GET("/personal", todos, personalH.Listar)
		pers := v1.Group("/personal", admin)
		{
			pers.POST("", personalH.Crear)
			pers.DELETE("/:id", personalH.Desactivar)
			pers.PUT("/:id/reactivar", personalH.Reactivar)
		}

		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PUT("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
