// Package router assembles the gin engines: the public community API and the
// separate moderation API. Endpoints are registered as ez actions so handlers
// stay plain functions.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"agora/internal/core/auth"
	"agora/internal/core/cache"
	"agora/internal/core/config"
	"agora/internal/domain"
	"agora/internal/governance"
	"agora/internal/realtime"
	"agora/internal/transport/http/middleware"
)

// Deps is everything the handlers close over.
type Deps struct {
	Cfg      *config.Config
	Log      *zap.Logger
	Engine   *governance.Engine
	Users    domain.UserRepository
	Messages domain.MessageRepository
	Leads    domain.BookingLeadRepository
	Cache    *cache.Cache
	JWT      *auth.JWTer
	Mail     governance.Sender
	RT       *realtime.Broadcaster
}

// NewAPIEngine builds the public community API.
func NewAPIEngine(d Deps) *gin.Engine {
	if d.Cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	e := gin.New()
	e.Use(
		middleware.RequestID(),
		middleware.RateLimitPerIP(200, 400),
		middleware.ConcurrencyLimit(300),
		middleware.MaxBodyBytes(16<<20),
		middleware.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(d.Log, true),
		middleware.Metrics(),
		middleware.AccessLog(d.Log),
		cors.Default(),
	)

	e.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := e.Group("/api/v1")
	mountAuthActions(d, v1)
	mountGovernanceActions(d, v1)
	mountCommunityActions(d, v1)
	return e
}

// NewAdminEngine builds the moderation API. Every route requires a valid
// token belonging to a currently elected admin.
func NewAdminEngine(d Deps) *gin.Engine {
	if d.Cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	e := gin.New()
	e.Use(
		middleware.RequestID(),
		middleware.RateLimitPerIP(50, 100),
		middleware.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(d.Log, true),
		middleware.AccessLog(d.Log),
	)
	e.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	g := e.Group("/admin", middleware.AuthJWT(d.JWT), requireElectedAdmin(d))
	mountAdminActions(d, g)
	return e
}
