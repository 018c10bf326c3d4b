package api

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"catalogsync/internal/api/handlers"
	"catalogsync/internal/api/middleware"
	"catalogsync/internal/config"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Reconciler is what the HTTP surface needs from the inventory reconciler.
type Reconciler interface {
	handlers.Ingestor
	handlers.PendingCounter
}

// Dependencies are the components the routes delegate to.
type Dependencies struct {
	Reconciler Reconciler
	Workflow   handlers.ContentWorkflow
	IgnoreList handlers.IgnoreStore
	Journal    handlers.JournalReader
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer

	// LogPollInterval defaults to one second.
	LogPollInterval time.Duration
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, deps Dependencies) (*Server, error) {
	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	// Middleware
	router.Use(middleware.Logger(logger, "/healthz", "/metrics", "/logs/stream"))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(deps.Reconciler, cfg.ShopifyWebhookSecret, deps.Metrics, logger)
	productHandler := handlers.NewProductHandler(deps.Workflow, logger)
	ignoreHandler := handlers.NewIgnoreHandler(deps.IgnoreList, logger)
	logHandler := handlers.NewLogHandler(logger.Buffer(), deps.LogPollInterval)
	reconciliationHandler := handlers.NewReconciliationHandler(deps.Journal, logger)
	healthHandler := handlers.NewHealthHandler(deps.Reconciler)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// Routes
	router.GET("/", productHandler.Home)
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Inventory webhook
	router.POST("/webhook", webhookHandler.Inventory)

	// Bulk content
	router.POST("/generate_for_vendor", productHandler.GenerateForVendor)
	router.POST("/upload_content", productHandler.UploadContent)
	router.GET("/upload_success", productHandler.UploadSuccess)

	// Ignore list
	ignore := router.Group("/ignore")
	{
		ignore.GET("", ignoreHandler.List)
		ignore.POST("", ignoreHandler.Add)
		ignore.POST("/remove/*product_name", ignoreHandler.Remove)
	}

	// Logs
	router.GET("/logs", logHandler.Page)
	router.GET("/logs/stream", logHandler.Stream)

	// Journal
	router.GET("/reconciliations", reconciliationHandler.List)

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}, nil
}

func (s *Server) Start() error {
	addr := s.config.Address()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Bulk generation and the log stream outlive a short write timeout.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on %s", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
