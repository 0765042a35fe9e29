package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"reservpark/config"
	"reservpark/internal/metrics"
	"reservpark/internal/mw"
)

// NewRouter creates and configures a new Gin router. m may be nil. history
// caches the activity history endpoint; when nil a private cache is used.
func NewRouter(h *Handler, cfg config.ServerConfig, m *metrics.Metrics, history *mw.ResponseCache) *gin.Engine {
	r := gin.Default()
	r.Use(mw.CORS(cfg.AllowOrigins))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	if history == nil {
		history = mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	}

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/activity", h.GetActivity)
		api.POST("/activity", h.StartActivity)
		api.POST("/activity/extend", h.ExtendActivity)
		api.DELETE("/activity", h.EndActivity)
		api.GET("/activity/history", history.Middleware(), h.GetActivityHistory)

		api.POST("/deeplinks", h.PostDeepLink)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
