package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"puripilot/internal/model"
	"puripilot/internal/store"
)

type floorplanPayload struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
	Data *string `json:"data"`
}

// ListFloorplans handles GET /api/floorplans.
func (h *Handler) ListFloorplans(c *gin.Context) {
	plans, err := h.store.ListFloorplans(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	dtos := make([]floorplanDTO, 0, len(plans))
	for i := range plans {
		dtos = append(dtos, toFloorplanDTO(&plans[i]))
	}
	c.JSON(http.StatusOK, dtos)
}

// GetLatestFloorplan handles GET /api/floorplans/latest/current.
func (h *Handler) GetLatestFloorplan(c *gin.Context) {
	fp, err := h.store.LatestFloorplan(c.Request.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFloorplanDTO(fp))
}

// GetFloorplan handles GET /api/floorplans/:id.
func (h *Handler) GetFloorplan(c *gin.Context) {
	fp, err := h.store.GetFloorplan(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFloorplanDTO(fp))
}

// CreateFloorplan handles POST /api/floorplans. Data is required; a
// missing id gets a server-generated one.
func (h *Handler) CreateFloorplan(c *gin.Context) {
	var req floorplanPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Data == nil || *req.Data == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "data required"})
		return
	}

	now := time.Now().UTC()
	fp := model.Floorplan{
		ID:        fmt.Sprintf("fp-%d", now.UnixMilli()),
		Name:      store.DefaultFloorplanName,
		Data:      *req.Data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ID != nil && *req.ID != "" {
		fp.ID = *req.ID
	}
	if req.Name != nil && *req.Name != "" {
		fp.Name = *req.Name
	}

	if err := h.store.CreateFloorplan(c.Request.Context(), &fp); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "id already exists"})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFloorplanDTO(&fp))
}

// UpsertFloorplan handles PUT /api/floorplans/:id: insert when missing
// (201), otherwise replace name and data (200). created_at is preserved.
func (h *Handler) UpsertFloorplan(c *gin.Context) {
	var req floorplanPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Data == nil || *req.Data == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "data required"})
		return
	}

	in := store.FloorplanUpsert{Name: req.Name, Data: *req.Data}
	fp, created, err := h.store.UpsertFloorplan(c.Request.Context(), c.Param("id"), in, time.Now().UTC())
	if err != nil {
		serverError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toFloorplanDTO(fp))
}

// DeleteFloorplan handles DELETE /api/floorplans/:id.
func (h *Handler) DeleteFloorplan(c *gin.Context) {
	if err := h.store.DeleteFloorplan(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		serverError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
