package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"

	"aereco-dxr-backend/internal/poller"
	"aereco-dxr-backend/internal/store"
)

// roomNameCacheTTL bounds how long the per-device room names are served
// from cache. Room names change only when someone reconfigures the unit.
const roomNameCacheTTL = 10 * time.Minute

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	webpush *webpush.Options
	manager *poller.Manager
	rooms   *cache.Cache
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options, manager *poller.Manager) *Handler {
	return &Handler{
		store:   s,
		webpush: webpushOptions,
		manager: manager,
		rooms:   cache.New(roomNameCacheTTL, 2*roomNameCacheTTL),
	}
}
