package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"puripilot/config"
	"puripilot/internal/mw"
	"puripilot/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, cfg *config.ServerConfig, webpushOptions *webpush.Options, notifier ModeNotifier) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, notifier)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(rateLimiter, caching)
	{
		api.GET("/health", handler.GetHealth)

		api.GET("/devices", handler.ListDevices)
		api.GET("/devices/:id", handler.GetDevice)
		api.POST("/devices", handler.CreateDevice)
		api.PUT("/devices/:id", handler.UpsertDevice)
		api.PATCH("/devices/:id/mode", handler.SetDeviceMode)
		api.DELETE("/devices/:id", handler.DeleteDevice)

		api.GET("/floorplans", handler.ListFloorplans)
		api.GET("/floorplans/latest/current", handler.GetLatestFloorplan)
		api.GET("/floorplans/:id", handler.GetFloorplan)
		api.POST("/floorplans", handler.CreateFloorplan)
		api.PUT("/floorplans/:id", handler.UpsertFloorplan)
		api.DELETE("/floorplans/:id", handler.DeleteFloorplan)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
