// Package server wires the HTTP surface: routing, auth middleware and the
// process lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	analyticsservice "github.com/insightdeck/insightdeck/internal/analytics/service"
	"github.com/insightdeck/insightdeck/internal/authorization"
	"github.com/insightdeck/insightdeck/internal/config"
	"github.com/insightdeck/insightdeck/internal/observability"
	"github.com/insightdeck/insightdeck/internal/observability/logger"
	"github.com/insightdeck/insightdeck/internal/observability/metrics"
	"github.com/insightdeck/insightdeck/internal/observability/tracing"
	orgservice "github.com/insightdeck/insightdeck/internal/organization/service"
	uploaddomain "github.com/insightdeck/insightdeck/internal/upload/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(Run),
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Cfg         config.Config
	ObsCfg      observability.Config
	HTTPMetrics *metrics.HTTPMetrics
	Orgs        orgservice.Service
	Authz       authorization.Service
	Uploads     uploaddomain.Service
	Analytics   analyticsservice.Service
}

// Server holds the handler dependencies.
type Server struct {
	log       *zap.Logger
	cfg       config.Config
	obsCfg    observability.Config
	httpMet   *metrics.HTTPMetrics
	orgs      orgservice.Service
	authz     authorization.Service
	uploads   uploaddomain.Service
	analytics analyticsservice.Service
}

func New(p Params) *Server {
	return &Server{
		log:       p.Log.Named("server"),
		cfg:       p.Cfg,
		obsCfg:    p.ObsCfg,
		httpMet:   p.HTTPMetrics,
		orgs:      p.Orgs,
		authz:     p.Authz,
		uploads:   p.Uploads,
		analytics: p.Analytics,
	}
}

// Engine builds the gin engine with the full middleware chain and routes.
func (s *Server) Engine() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		logger.GinMiddleware(logger.MiddlewareConfig{
			Debug:           s.obsCfg.Debug(),
			ErrorClassifier: classifyError,
		}),
		tracing.GinMiddleware(),
		metrics.GinMiddleware(s.httpMet),
		ErrorHandlingMiddleware(),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": s.cfg.AppName,
			"version": s.cfg.AppVersion,
		})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.registerRoutes(engine)
	return engine
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	api := engine.Group("/api", TokenRequired(s.orgs))

	admin := api.Group("", s.requireSuperAdmin)
	admin.POST("/orgs", s.createOrganization)
	admin.GET("/orgs", s.listOrganizations)
	admin.POST("/users", s.createUser)

	org := api.Group("", OrgRequired())
	org.GET("/me", s.me)

	uploads := org.Group("/uploads")
	uploads.GET("", RequireAccess(s.authz, authorization.ObjectUpload, authorization.ActionRead), s.listUploads)
	uploads.GET("/template/:source", RequireAccess(s.authz, authorization.ObjectUpload, authorization.ActionRead), s.uploadTemplate)
	uploads.GET("/:id", RequireAccess(s.authz, authorization.ObjectUpload, authorization.ActionRead), s.getUpload)
	uploads.POST("/:source", RequireAccess(s.authz, authorization.ObjectUpload, authorization.ActionWrite), s.ingestUpload)
	uploads.POST("/:source/preview", RequireAccess(s.authz, authorization.ObjectUpload, authorization.ActionWrite), s.previewUpload)
	uploads.DELETE("/:id", RequireAccess(s.authz, authorization.ObjectUpload, authorization.ActionDelete), s.deleteUpload)

	dashboard := org.Group("/dashboard", RequireAccess(s.authz, authorization.ObjectDashboard, authorization.ActionRead))
	dashboard.GET("/ads", s.adsDashboard)
	dashboard.GET("/shipping", s.shippingDashboard)
	dashboard.GET("/commerce", s.commerceDashboard)

	exports := org.Group("/exports", RequireAccess(s.authz, authorization.ObjectExport, authorization.ActionRead))
	exports.GET("/:source", s.exportRecords)
}

// Run attaches the HTTP server to the fx lifecycle.
func Run(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down http server")
			return srv.Shutdown(ctx)
		},
	})
}
