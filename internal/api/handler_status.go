package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aereco-dxr-backend/internal/dxr"
	"aereco-dxr-backend/internal/poller"
	"aereco-dxr-backend/internal/state"
)

// derivedState carries the reconciled values computed from a snapshot.
type derivedState struct {
	IsOn            bool            `json:"isOn"`
	SpeedPercentage int             `json:"speedPercentage"`
	PresetMode      string          `json:"presetMode"`
	Timeout         *displayTimeout `json:"timeout,omitempty"`
}

type displayTimeout struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// statusResponse is the full answer to a device status request.
type statusResponse struct {
	DeviceID          int64            `json:"deviceId"`
	LastUpdateSuccess bool             `json:"lastUpdateSuccess"`
	Snapshot          *poller.Snapshot `json:"snapshot"`
	Derived           *derivedState    `json:"derived,omitempty"`
}

// GetStatus handles GET /api/devices/{device_id}/status.
func (h *Handler) GetStatus(c *gin.Context) {
	runtime, ok := h.runtimeFor(c)
	if !ok {
		return
	}

	snapshot := runtime.Poller.Snapshot()
	response := statusResponse{
		DeviceID:          runtime.Device.ID,
		LastUpdateSuccess: runtime.Poller.LastUpdateSuccess(),
		Snapshot:          snapshot,
	}

	if snapshot != nil && snapshot.Mode != nil {
		mode := snapshot.Mode
		derived := &derivedState{
			IsOn:            mode.CurrentMode != dxr.ModeStop,
			SpeedPercentage: state.SpeedPercentage(mode.CurrentMode, mode.Airflow),
			PresetMode:      mode.CurrentMode.String(),
		}
		if value, unit, ok := state.DisplayTimeout(mode.CurrentMode, mode.Timeout, mode.TimeoutUnit); ok {
			derived.Timeout = &displayTimeout{Value: value, Unit: unit}
		}
		response.Derived = derived
	}

	c.JSON(http.StatusOK, response)
}

// PostRefresh handles POST /api/devices/{device_id}/refresh. Concurrent
// refreshes of the same device coalesce onto one fetch.
func (h *Handler) PostRefresh(c *gin.Context) {
	runtime, ok := h.runtimeFor(c)
	if !ok {
		return
	}

	if err := runtime.Poller.Refresh(c.Request.Context()); err != nil {
		if errors.Is(err, poller.ErrUpdateFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "update failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lastUpdateSuccess": runtime.Poller.LastUpdateSuccess()})
}

// GetRooms handles GET /api/devices/{device_id}/rooms. Room names are
// read from the unit once and cached; they only change when the unit is
// reconfigured.
func (h *Handler) GetRooms(c *gin.Context) {
	runtime, ok := h.runtimeFor(c)
	if !ok {
		return
	}

	cacheKey := c.Param("device_id")
	if cached, found := h.rooms.Get(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	names := runtime.Client.RoomNames(c.Request.Context())
	h.rooms.SetDefault(cacheKey, names)
	c.JSON(http.StatusOK, names)
}

// GetInfo handles GET /api/devices/{device_id}/info with live version
// and temperature-unit reads.
func (h *Handler) GetInfo(c *gin.Context) {
	runtime, ok := h.runtimeFor(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	version, err := runtime.Client.Version(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "device unavailable"})
		return
	}
	temperatureUnit, err := runtime.Client.TemperatureUnit(ctx)
	if err != nil {
		temperatureUnit = "°C"
	}

	c.JSON(http.StatusOK, gin.H{
		"version":         version,
		"temperatureUnit": temperatureUnit,
	})
}
