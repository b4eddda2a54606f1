package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aereco-dxr-backend/internal/dxr"
	"aereco-dxr-backend/internal/model"
	"aereco-dxr-backend/internal/poller"
)

// GetDevices handles the GET /api/devices request.
func (h *Handler) GetDevices(c *gin.Context) {
	devices, err := h.store.ListDevices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve devices"})
		return
	}
	c.JSON(http.StatusOK, devices)
}

type putDeviceRequest struct {
	Name                string `json:"name" binding:"required"`
	Host                string `json:"host" binding:"required"`
	Port                int    `json:"port"`
	PollIntervalSeconds int    `json:"pollIntervalSeconds"`
}

// PutDevice registers a ventilation unit. The unit must be reachable;
// registration probes it and records its reported hardware variant.
func (h *Handler) PutDevice(c *gin.Context) {
	var req putDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Port <= 0 {
		req.Port = 80
	}

	client := dxr.NewClient(req.Host, req.Port)
	defer client.Close()

	ctx := c.Request.Context()
	if !client.TestConnection(ctx) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "device is not reachable"})
		return
	}

	version, err := client.Version(ctx)
	if err != nil {
		version = "Unknown"
	}

	device := model.Device{
		Name:                req.Name,
		Host:                req.Host,
		Port:                req.Port,
		PollIntervalSeconds: req.PollIntervalSeconds,
		Version:             version,
	}
	if err := h.store.UpsertDevice(ctx, &device); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.manager.Start(device)
	c.JSON(http.StatusCreated, device)
}

// DeleteDevice unregisters a device and stops its poller.
func (h *Handler) DeleteDevice(c *gin.Context) {
	deviceID, err := strconv.ParseInt(c.Param("device_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid device ID"})
		return
	}

	if err := h.store.DeleteDevice(c.Request.Context(), deviceID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.manager.Stop(deviceID)

	c.Status(http.StatusNoContent)
}

// runtimeFor resolves the :device_id path parameter to a running device
// runtime, writing the error response itself when it cannot.
func (h *Handler) runtimeFor(c *gin.Context) (*poller.Runtime, bool) {
	deviceID, err := strconv.ParseInt(c.Param("device_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid device ID"})
		return nil, false
	}

	runtime, ok := h.manager.Get(deviceID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Unknown device"})
		return nil, false
	}
	return runtime, true
}
