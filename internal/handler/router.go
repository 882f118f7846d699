package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/pdf-page-api/internal/middleware"
	"github.com/noah-isme/pdf-page-api/internal/service"
	"github.com/noah-isme/pdf-page-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pdf-page-api/pkg/middleware/cors"
	"github.com/noah-isme/pdf-page-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/pdf-page-api/pkg/middleware/requestid"
)

// RouterConfig carries everything the HTTP surface is built from. Metadata and Auth are
// optional; the admin routes are mounted only when both are set.
type RouterConfig struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	EnableDocs     bool

	Gate    readinessGate
	Limiter *ratelimit.Limiter
	Metrics *service.MetricsService
	Auth    *service.AuthService

	PDF      *PDFHandler
	Metadata *MetadataHandler
}

// NewRouter builds the gin engine with all routes configured.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))

	system := NewMetricsHandler(cfg.Metrics, cfg.Gate)
	r.GET("/health", system.Health)
	r.GET("/ready", system.Ready)
	r.GET("/metrics", system.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/", cfg.PDF.Root)
	r.GET("/api/hello", cfg.PDF.Hello)

	pdf := r.Group("/pdf", cfg.Limiter.Middleware())
	pdf.GET("", cfg.PDF.GetPDF)
	pdf.GET("/page", middleware.RequireReady(cfg.Gate), cfg.PDF.GetPage)

	if cfg.Metadata != nil && cfg.Auth.Enabled() {
		admin := r.Group("/admin", middleware.JWT(cfg.Auth), middleware.RequireReady(cfg.Gate))
		admin.GET("/pdf-metadata", cfg.Metadata.List)
		admin.GET("/pdf-metadata/:filename", cfg.Metadata.Get)
		admin.GET("/pdf-metadata/:filename/access-log.csv", cfg.Metadata.AccessLogCSV)
		admin.GET("/stats", cfg.Metadata.Stats)
	}

	return r
}
