package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/subdash/subdash/docs"
	"github.com/subdash/subdash/internal/app/api/handlers"
	mw "github.com/subdash/subdash/internal/app/api/middleware"
	plansvc "github.com/subdash/subdash/internal/app/service/plan"
	issuesvc "github.com/subdash/subdash/internal/app/service/paymentissue"
	"github.com/subdash/subdash/internal/app/service/realtime"
	"github.com/subdash/subdash/internal/app/service/statistics"
	subsvc "github.com/subdash/subdash/internal/app/service/subscription"
	stripeclient "github.com/subdash/subdash/internal/platform/stripe"
	cfgpkg "github.com/subdash/subdash/pkg/config"
	metrics "github.com/subdash/subdash/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	sc *stripeclient.Client,
	webhook *handlers.WebhookHandler,
	hub *realtime.Hub,
	plans *plansvc.Service,
	subs *subsvc.Service,
	issues *issuesvc.Service,
	stats *statistics.Service,
) {
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Dashboard API
	api := r.Group("/api")
	api.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())

	handlers.RegisterPlanRoutes(api, plans)
	handlers.RegisterSubscriptionRoutes(api, subs)
	handlers.RegisterPaymentIssueRoutes(api, issues)
	handlers.RegisterDashboardRoutes(api, stats)
	handlers.RegisterCheckoutRoutes(api, sc, plans, subs)
	handlers.RegisterWebhookRoutes(api, webhook)
	handlers.RegisterRealtimeRoutes(api, cfg, hub, log)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Provide(handlers.NewWebhookHandler),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
