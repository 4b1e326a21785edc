package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"puripilot/internal/model"
	"puripilot/internal/store"
)

type devicePayload struct {
	ID         *string `json:"id"`
	Name       *string `json:"name"`
	Mode       *string `json:"mode"`
	SmellClass *string `json:"smell_class"`
	LastSeen   *string `json:"last_seen"`
	CreatedAt  *string `json:"createdAt"`
}

// validate rejects enum values outside the accepted sets. Absent fields
// are always fine; defaults are applied further down.
func (p *devicePayload) validate() string {
	if p.Mode != nil && !model.ValidMode(*p.Mode) {
		return "invalid mode"
	}
	if p.SmellClass != nil && !model.ValidSmellClass(*p.SmellClass) {
		return "invalid smell_class"
	}
	return ""
}

// ListDevices handles GET /api/devices.
func (h *Handler) ListDevices(c *gin.Context) {
	devices, err := h.store.ListDevices(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	dtos := make([]deviceDTO, 0, len(devices))
	for i := range devices {
		dtos = append(dtos, toDeviceDTO(&devices[i]))
	}
	c.JSON(http.StatusOK, dtos)
}

// GetDevice handles GET /api/devices/:id.
func (h *Handler) GetDevice(c *gin.Context) {
	dev, err := h.store.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeviceDTO(dev))
}

// CreateDevice handles POST /api/devices. A missing id is generated
// server side; an id that already exists is a conflict.
func (h *Handler) CreateDevice(c *gin.Context) {
	var req devicePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	now := time.Now().UTC()
	dev := model.Device{
		ID:         uuid.NewString(),
		Name:       store.DefaultDeviceName,
		Mode:       model.ModeOff,
		SmellClass: model.SmellBackground,
		UpdatedAt:  now,
		CreatedAt:  now,
	}
	if req.ID != nil && *req.ID != "" {
		dev.ID = *req.ID
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		dev.Name = strings.TrimSpace(*req.Name)
	}
	if req.Mode != nil {
		dev.Mode = model.DeviceMode(*req.Mode)
	}
	if req.SmellClass != nil {
		dev.SmellClass = model.SmellClass(*req.SmellClass)
	}
	seen := now
	if t := parseTimestamp(req.LastSeen); t != nil {
		seen = *t
	}
	dev.LastSeen = &seen
	if t := parseTimestamp(req.CreatedAt); t != nil {
		dev.CreatedAt = *t
	}

	if err := h.store.CreateDevice(c.Request.Context(), &dev); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "id already exists"})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDeviceDTO(&dev))
}

// UpsertDevice handles PUT /api/devices/:id: insert when the id is
// unknown (201), otherwise update the mutable fields (200).
func (h *Handler) UpsertDevice(c *gin.Context) {
	var req devicePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	in := store.DeviceUpsert{
		Name:       req.Name,
		Mode:       req.Mode,
		SmellClass: req.SmellClass,
		LastSeen:   parseTimestamp(req.LastSeen),
		CreatedAt:  parseTimestamp(req.CreatedAt),
	}

	dev, created, err := h.store.UpsertDevice(c.Request.Context(), c.Param("id"), in, time.Now().UTC())
	if err != nil {
		serverError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toDeviceDTO(dev))
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

// SetDeviceMode handles PATCH /api/devices/:id/mode.
func (h *Handler) SetDeviceMode(c *gin.Context) {
	var req setModeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Mode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode required"})
		return
	}
	if !model.ValidMode(req.Mode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}

	id := c.Param("id")
	dev, err := h.store.SetDeviceMode(c.Request.Context(), id, model.DeviceMode(req.Mode), time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		serverError(c, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Dispatch(id)
	}
	c.JSON(http.StatusOK, toDeviceDTO(dev))
}

// DeleteDevice handles DELETE /api/devices/:id.
func (h *Handler) DeleteDevice(c *gin.Context) {
	if err := h.store.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		serverError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "detail": err.Error()})
}
