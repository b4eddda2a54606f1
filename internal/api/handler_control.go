package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aereco-dxr-backend/internal/dxr"
	"aereco-dxr-backend/internal/poller"
)

type setModeRequest struct {
	Mode       *string `json:"mode"`
	Preset     *string `json:"preset"`
	Percentage *int    `json:"percentage"`
}

type setModeValueRequest struct {
	Value *int `json:"value" binding:"required"`
}

// PostMode handles POST /api/devices/{device_id}/mode. Exactly one of
// mode, preset or percentage must be set.
func (h *Handler) PostMode(c *gin.Context) {
	runtime, ok := h.runtimeFor(c)
	if !ok {
		return
	}

	var request setModeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case request.Mode != nil:
		mode, found := dxr.ModeByKey(*request.Mode)
		if !found {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mode"})
			return
		}
		err = runtime.Controller.SetMode(ctx, mode)
	case request.Preset != nil:
		err = runtime.Controller.SetPreset(ctx, *request.Preset)
	case request.Percentage != nil:
		err = runtime.Controller.SetPercentage(ctx, *request.Percentage)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err != nil {
		writeControlError(c, err)
		return
	}

	h.refreshAfterWrite(c, runtime)
}

// PostModeTimeout handles POST /api/devices/{device_id}/modes/{mode}/timeout.
func (h *Handler) PostModeTimeout(c *gin.Context) {
	runtime, mode, value, ok := h.bindModeValue(c)
	if !ok {
		return
	}

	if err := runtime.Controller.SetModeTimeout(c.Request.Context(), mode, value); err != nil {
		writeControlError(c, err)
		return
	}

	h.refreshAfterWrite(c, runtime)
}

// PostModeAirflow handles POST /api/devices/{device_id}/modes/{mode}/airflow.
func (h *Handler) PostModeAirflow(c *gin.Context) {
	runtime, mode, value, ok := h.bindModeValue(c)
	if !ok {
		return
	}

	if err := runtime.Controller.SetModeAirflow(c.Request.Context(), mode, value); err != nil {
		writeControlError(c, err)
		return
	}

	h.refreshAfterWrite(c, runtime)
}

// PostFilterReset handles POST /api/devices/{device_id}/filter/reset.
func (h *Handler) PostFilterReset(c *gin.Context) {
	runtime, ok := h.runtimeFor(c)
	if !ok {
		return
	}

	if err := runtime.Controller.ResetFilter(c.Request.Context()); err != nil {
		writeControlError(c, err)
		return
	}

	h.refreshAfterWrite(c, runtime)
}

// PostFilterTest handles POST /api/devices/{device_id}/filter/test.
func (h *Handler) PostFilterTest(c *gin.Context) {
	runtime, ok := h.runtimeFor(c)
	if !ok {
		return
	}

	if err := runtime.Controller.TestFilter(c.Request.Context()); err != nil {
		writeControlError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) bindModeValue(c *gin.Context) (runtime *poller.Runtime, mode dxr.Mode, value int, ok bool) {
	runtime, found := h.runtimeFor(c)
	if !found {
		return nil, 0, 0, false
	}

	mode, found = dxr.ModeByKey(c.Param("mode"))
	if !found {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mode"})
		return nil, 0, 0, false
	}

	var request setModeValueRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return nil, 0, 0, false
	}

	return runtime, mode, *request.Value, true
}

// refreshAfterWrite pulls a fresh snapshot so the response reflects the
// new device state, then answers with it.
func (h *Handler) refreshAfterWrite(c *gin.Context, runtime *poller.Runtime) {
	if err := runtime.Poller.Refresh(c.Request.Context()); err != nil {
		// The write itself succeeded, so report that rather than fail.
		c.JSON(http.StatusOK, gin.H{"status": "ok", "lastUpdateSuccess": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "snapshot": runtime.Poller.Snapshot()})
}

func writeControlError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dxr.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, dxr.ErrWriteFailed), errors.Is(err, dxr.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "device unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
