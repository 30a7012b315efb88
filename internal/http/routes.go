package http

import (
	"time"

	"stream_ledger/internal/http/handlers"
	"stream_ledger/internal/http/middleware"
	"stream_ledger/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// Deps are the collaborators the routes need. Redis and Hub may be nil.
type Deps struct {
	Handler *handlers.Handler
	Health  *handlers.HealthHandler
	Tokens  middleware.TokenParser
	Bans    middleware.BanChecker
	Hub     *ws.Hub
	Redis   *redis.Client

	RateLimit     int
	RateWindow    time.Duration
	AllowedOrigin string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if d.Hub != nil {
		r.GET("/ws", handlers.WS(d.Hub, d.Tokens, d.AllowedOrigin))
	}

	v1 := r.Group("/api/v1")
	fn := v1.Group("/fn")
	fn.Use(middleware.JWT(d.Tokens), middleware.RateLimit(d.Redis, d.RateLimit, d.RateWindow))

	h := d.Handler

	// readable while banned
	fn.POST("/checkBanStatus", h.CheckBanStatus)

	guarded := fn.Group("")
	guarded.Use(middleware.BanGuard(d.Bans))
	{
		guarded.POST("/sendGift", h.SendGift)
		guarded.POST("/requestPayout", h.RequestPayout)
		guarded.POST("/sendFriendRequest", h.SendFriendRequest)
		guarded.POST("/respondToFriendRequest", h.RespondToFriendRequest)
		guarded.POST("/removeFriend", h.RemoveFriend)
		guarded.POST("/submitReport", h.SubmitReport)
		guarded.POST("/postMessage", h.PostMessage)

		// admin
		guarded.POST("/assignPremium", h.AssignPremium)
		guarded.POST("/unassignPremium", h.UnassignPremium)
		guarded.POST("/processPayout", h.ProcessPayout)
		guarded.POST("/unbanUser", h.UnbanUser)
		guarded.POST("/initializeSettings", h.InitializeSettings)
	}
}
