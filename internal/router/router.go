package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/session"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	// Mode is the gin mode; empty keeps the current one.
	Mode         string
	CSRFEnabled  bool
	TLS          bool
	MaxBodyBytes int64
}

type Router struct {
	engine   *gin.Engine
	sessions *session.Manager
	users    middleware.UserLoader
	config   RouterConfig
	ops      Handler
	pages    []Handler
}

// NewRouter builds the engine. ops routes (health, metrics) skip sessions;
// pages get the session, the current user and CSRF checks.
func NewRouter(
	config RouterConfig,
	views render.HTMLRender,
	sessions *session.Manager,
	users middleware.UserLoader,
	m *metrics.Metrics,
	ops Handler,
	pages ...Handler,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	engine.HTMLRender = views

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if config.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = config.MaxBodyBytes
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.Recovery(handler.ErrorPage),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig(config.TLS)),
		middleware.SizeLimit(sizeLimit),
	)

	return &Router{
		engine:   engine,
		sessions: sessions,
		users:    users,
		config:   config,
		ops:      ops,
		pages:    pages,
	}
}

func (r *Router) pageMiddleware() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		r.sessions.Middleware(),
		middleware.ErrorPages(handler.ErrorPage),
		middleware.LoadPrincipal(r.users),
	}
}

func (r *Router) Setup() {
	if r.ops != nil {
		r.ops.RegisterRoutes(&r.engine.RouterGroup)
	}

	pages := r.engine.Group("", r.pageMiddleware()...)
	pages.Use(middleware.CSRF(r.config.CSRFEnabled))
	for _, h := range r.pages {
		h.RegisterRoutes(pages)
	}

	notFound := append(r.pageMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	r.engine.NoRoute(notFound...)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
