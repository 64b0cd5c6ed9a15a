package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	calendardomain "github.com/paycalhq/paycal/internal/calendar/domain"
	"github.com/paycalhq/paycal/internal/clock"
	"github.com/paycalhq/paycal/internal/config"
	obligationdomain "github.com/paycalhq/paycal/internal/obligation/domain"
	"github.com/paycalhq/paycal/internal/observability/logger"
	"github.com/paycalhq/paycal/internal/observability/metrics"
	"github.com/paycalhq/paycal/internal/observability/tracing"
	paymentdomain "github.com/paycalhq/paycal/internal/payment/domain"
	scheduledomain "github.com/paycalhq/paycal/internal/schedule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module assembles the HTTP surface.
var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Config        config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	Engine        *gin.Engine
	ScheduleSvc   scheduledomain.Service
	ObligationSvc obligationdomain.Service
	CalendarSvc   calendardomain.Service
	PaymentSvc    paymentdomain.Service
}

// Server owns route registration and request handling.
type Server struct {
	cfg           config.Config
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	engine        *gin.Engine
	scheduleSvc   scheduledomain.Service
	obligationSvc obligationdomain.Service
	calendarSvc   calendardomain.Service
	paymentSvc    paymentdomain.Service
	limiter       *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:           p.Config,
		db:            p.DB,
		log:           p.Log.Named("server"),
		clock:         p.Clock,
		engine:        p.Engine,
		scheduleSvc:   p.ScheduleSvc,
		obligationSvc: p.ObligationSvc,
		calendarSvc:   p.CalendarSvc,
		paymentSvc:    p.PaymentSvc,
		limiter:       newRateLimiter(120, time.Minute),
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(tracing.GinMiddleware(cfg.Tracing.ServiceName))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{SkipPaths: []string{"/healthz"}}))
	return engine
}

// RunHTTP binds the engine to the configured address for the process
// lifetime.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
