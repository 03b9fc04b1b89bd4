package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videorelay/internal/config"
	"videorelay/internal/middleware"
	"videorelay/internal/observability"
	"videorelay/internal/service"
)

// Server is the HTTP boundary: routing, multipart parsing, CORS, rate
// limiting and JSON envelopes. Everything with a design decision in it lives
// behind the relay.
type Server struct {
	cfg     *config.Config
	relay   *service.Relay
	metrics *observability.Metrics
	logger  *zap.Logger

	engine     *gin.Engine
	httpServer *http.Server
	startTime  time.Time
}

func New(cfg *config.Config, relay *service.Relay, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogging(logger))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	engine.Use(cors.New(corsConfig))

	s := &Server{
		cfg:       cfg,
		relay:     relay,
		metrics:   metrics,
		logger:    logger,
		engine:    engine,
		startTime: time.Now(),
	}
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.PATCH("/fix-video-mime/*fileId", s.handleFixVideoMime)

	uploads := s.engine.Group("/", middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerMinute: s.cfg.RateLimitPerMinute,
		Burst:             s.cfg.RateLimitBurst,
	}))
	uploads.POST("/upload-video", s.handleUploadVideo)
	uploads.POST("/upload-video/:personName", s.handleUploadVideoNamed)
	uploads.POST("/upload-video-chunked", s.handleUploadVideoChunked)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    ":" + s.cfg.Port,
		Handler: s.engine,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
