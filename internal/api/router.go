package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"aereco-dxr-backend/config"
	"aereco-dxr-backend/internal/mw"
	"aereco-dxr-backend/internal/poller"
	"aereco-dxr-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, webpushOptions *webpush.Options, manager *poller.Manager) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, manager)

	// Rate limit: configured requests per second with a burst of 5
	limit := rate.Limit(10)
	if cfg.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.RateLimitPerSec)
	}
	rateLimiter := mw.RateLimiter(limit, 5)

	// Status answers come straight out of the poller snapshot, so only
	// the slow live reads (info, rooms) go through the response cache.
	cacheTTL := 30 * time.Second
	if cfg.CacheTTLSeconds > 0 {
		cacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second
	}
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/devices", caching, handler.GetDevices)
		api.PUT("/devices", handler.PutDevice)
		api.DELETE("/devices/:device_id", handler.DeleteDevice)

		api.GET("/devices/:device_id/status", handler.GetStatus)
		api.POST("/devices/:device_id/refresh", handler.PostRefresh)
		api.GET("/devices/:device_id/rooms", caching, handler.GetRooms)
		api.GET("/devices/:device_id/info", caching, handler.GetInfo)

		api.POST("/devices/:device_id/mode", handler.PostMode)
		api.POST("/devices/:device_id/modes/:mode/timeout", handler.PostModeTimeout)
		api.POST("/devices/:device_id/modes/:mode/airflow", handler.PostModeAirflow)
		api.POST("/devices/:device_id/filter/reset", handler.PostFilterReset)
		api.POST("/devices/:device_id/filter/test", handler.PostFilterTest)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
