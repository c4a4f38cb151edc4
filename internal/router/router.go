package router

import (
	"time"

	"backoffice/internal/config"
	"backoffice/internal/handler"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Roles allowed to run compensating or destructive operations.
var managerRoles = []string{"owner", "admin", "manager"}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil: caching, rate limiting and receipt jobs are then disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	txm := repository.NewTxManager(db)
	productRepo := repository.NewProductRepository(db)
	historyRepo := repository.NewStockHistoryRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	reportCache := service.NewReportCache(rdb, cfg.ReportCacheTTL())
	dispatcher := worker.NewDispatcher(rdb)

	productSvc := service.NewProductService(txm, productRepo, historyRepo)
	saleSvc := service.NewSaleService(txm, saleRepo, productRepo, historyRepo, dispatcher, reportCache)
	reportSvc := service.NewReportService(saleRepo, reportCache)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productsH := handler.NewProductsHandler(productSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	reportsH := handler.NewReportsHandler(reportSvc)
	receiptsH := handler.NewReceiptsHandler(saleSvc, rdb, cfg.ReceiptStoragePath)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		products := v1.Group("/products")
		{
			products.POST("", productsH.Create)
			products.GET("", productsH.List)
			products.GET("/low-stock", productsH.LowStock)
			products.GET("/top-selling", productsH.TopSelling)
			products.GET("/:id", productsH.Get)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", middleware.RequireRole(managerRoles...), productsH.Deactivate)
			products.POST("/:id/stock/add", productsH.AddStock)
			products.POST("/:id/stock/remove", productsH.RemoveStock)
			products.GET("/:id/stock-history", productsH.StockHistory)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("", salesH.Create)
			sales.GET("", salesH.List)
			sales.GET("/analytics", reportsH.Analytics)
			sales.GET("/monthly-performance", reportsH.MonthlyPerformance)
			sales.GET("/:id", salesH.Get)
			sales.PUT("/:id", salesH.Update)
			sales.POST("/:id/payments", salesH.AddPayment)
			sales.POST("/:id/cancel", middleware.RequireRole(managerRoles...), salesH.Cancel)
			sales.GET("/:id/receipt", receiptsH.Download)
		}

		v1.GET("/receipts/dead-letters", middleware.RequireRole(managerRoles...), receiptsH.DeadLetters)
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
