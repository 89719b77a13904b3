package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smarttro/smarttro/internal/config"
	"github.com/smarttro/smarttro/internal/payment/qr"
	"github.com/smarttro/smarttro/internal/payment/reconcile"
	"github.com/smarttro/smarttro/internal/payment/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Params struct {
	fx.In

	Engine       *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	QRSvc        *qr.Service
	WebhookSvc   *webhook.Service
	ReconcileSvc *reconcile.Service
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	qrSvc        *qr.Service
	webhookSvc   *webhook.Service
	reconcileSvc *reconcile.Service
	qrLimiter    *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		engine:       p.Engine,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("server"),
		qrSvc:        p.QRSvc,
		webhookSvc:   p.WebhookSvc,
		reconcileSvc: p.ReconcileSvc,
		qrLimiter:    newRateLimiter(30, time.Minute),
	}
}

func (s *Server) RegisterRoutes() {
	s.engine.POST("/webhooks/sepay", s.HandleSepayWebhook)

	api := s.engine.Group("/api")
	api.POST("/payments/qr", s.CreatePaymentQR)
	if !s.cfg.IsProduction() {
		api.POST("/payments/test-settle", s.TestSettle)
	}
}

func registerRoutes(s *Server) {
	s.RegisterRoutes()
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
