// Package server exposes the billing relay over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	checkoutdomain "github.com/zalingo/billing/internal/checkout/domain"
	"github.com/zalingo/billing/internal/config"
	entitlementdomain "github.com/zalingo/billing/internal/entitlement/domain"
	"github.com/zalingo/billing/internal/observability/logger"
	"github.com/zalingo/billing/internal/observability/metrics"
	paymentdomain "github.com/zalingo/billing/internal/payment/domain"
)

type Params struct {
	fx.In

	Config         config.Config
	Log            *zap.Logger
	DB             *gorm.DB
	CheckoutSvc    checkoutdomain.Service
	EntitlementSvc entitlementdomain.Service
	PaymentSvc     paymentdomain.Service
	HTTPMetrics    *metrics.HTTPMetrics `optional:"true"`
}

type Server struct {
	cfg             config.Config
	log             *zap.Logger
	db              *gorm.DB
	checkoutSvc     checkoutdomain.Service
	entitlementSvc  entitlementdomain.Service
	paymentSvc      paymentdomain.Service
	httpMetrics     *metrics.HTTPMetrics
	checkoutLimiter *rateLimiter
}

func New(p Params) *Server {
	return &Server{
		cfg:             p.Config,
		log:             p.Log.Named("server"),
		db:              p.DB,
		checkoutSvc:     p.CheckoutSvc,
		entitlementSvc:  p.EntitlementSvc,
		paymentSvc:      p.PaymentSvc,
		httpMetrics:     p.HTTPMetrics,
		checkoutLimiter: newRateLimiter(p.Config.CheckoutRateLimit, p.Config.CheckoutRateWindow),
	}
}

func NewEngine(s *Server) *gin.Engine {
	if s.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	if s.httpMetrics != nil {
		engine.Use(metrics.GinMiddleware(s.httpMetrics))
	}
	s.RegisterRoutes(engine)
	return engine
}

func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.POST("/checkout-sessions", s.CreateCheckoutSession)
	engine.POST("/payment-events", s.HandlePaymentEvent)
	engine.GET("/entitlements/:customerId", s.GetEntitlement)
	engine.POST("/entitlements/:customerId/consume", s.ConsumeEntitlement)
}

// RunHTTP binds the engine to the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Provide(NewEngine),
	fx.Invoke(RunHTTP),
)
