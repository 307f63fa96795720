package handlers

import (
	"net/http"

	"parkhub/internal/logger"
	"parkhub/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateLot - POST /api/lots
func (h *Handlers) CreateLot(c *gin.Context) {
	var req models.CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.services.Lots.CreateLot(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lot)
}

// ListLots - GET /api/lots?query=
// The unfiltered list is served from the Valkey snapshot when warm.
func (h *Handlers) ListLots(c *gin.Context) {
	query := c.Query("query")

	if query == "" {
		if raw := h.services.Lots.CachedLotsList(c.Request.Context()); raw != nil {
			c.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	lots, err := h.services.Lots.ListLots(c.Request.Context(), query)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if query == "" {
		h.services.Lots.CacheLotsList(c.Request.Context(), lots)
	}

	c.JSON(http.StatusOK, lots)
}

// GetLot - GET /api/lots/:id
func (h *Handlers) GetLot(c *gin.Context) {
	lot, err := h.services.Lots.GetLot(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lot)
}

// UpdateLot - PATCH /api/lots/:id
func (h *Handlers) UpdateLot(c *gin.Context) {
	var req models.UpdateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.services.Lots.UpdateLot(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lot)
}

// DeleteLot - DELETE /api/lots/:id
func (h *Handlers) DeleteLot(c *gin.Context) {
	if err := h.services.Lots.DeleteLot(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddSpace - POST /api/lots/:id/spaces
func (h *Handlers) AddSpace(c *gin.Context) {
	var req models.AddSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	space, err := h.services.Lots.AddSpace(c.Request.Context(), c.Param("id"), req.Number)
	if err != nil {
		h.writeError(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("Space added",
		"lot_id", c.Param("id"), "space_id", space.ID, "number", space.Number)
	c.JSON(http.StatusCreated, space)
}

// ListSpaces - GET /api/lots/:id/spaces?available=true
func (h *Handlers) ListSpaces(c *gin.Context) {
	availableOnly := c.Query("available") == "true"

	spaces, err := h.services.Lots.ListSpaces(c.Request.Context(), c.Param("id"), availableOnly)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, spaces)
}

// DeleteSpace - DELETE /api/spaces/:id
func (h *Handlers) DeleteSpace(c *gin.Context) {
	if err := h.services.Lots.DeleteSpace(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReleaseSpace - POST /api/spaces/:id/release
// Force-frees a space; used to repair orphaned references.
func (h *Handlers) ReleaseSpace(c *gin.Context) {
	if err := h.services.Inventory.ReleaseSpace(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("Space force-released", "space_id", c.Param("id"))
	c.Status(http.StatusNoContent)
}

// AttachSpace - POST /api/spaces/:id/attach
// Force-attaches a live booking to a free space.
func (h *Handlers) AttachSpace(c *gin.Context) {
	var req models.AttachSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Inventory.BookSpace(c.Request.Context(), c.Param("id"), req.BookingID); err != nil {
		h.writeError(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("Space force-attached",
		"space_id", c.Param("id"), "booking_id", req.BookingID)
	c.Status(http.StatusNoContent)
}
