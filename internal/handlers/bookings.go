package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"parkhub/internal/logger"
	"parkhub/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateBooking - POST /api/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.services.Inventory.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("Booking created",
		"booking_id", booking.ID, "lot_id", booking.LotID, "space_id", booking.SpaceID)
	c.JSON(http.StatusCreated, booking)
}

// ListBookings - GET /api/bookings
// Ledger query: status (comma-separated), user, plate, lot_id, from, to
// (RFC 3339), cursor, page_size.
func (h *Handlers) ListBookings(c *gin.Context) {
	q := models.BookingQuery{
		UserID: c.Query("user"),
		Plate:  c.Query("plate"),
		LotID:  c.Query("lot_id"),
		Cursor: c.Query("cursor"),
	}

	if statuses := c.Query("status"); statuses != "" {
		q.Statuses = strings.Split(statuses, ",")
	}

	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page_size must be a positive integer"})
			return
		}
		q.PageSize = size
	}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
		q.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
		q.To = &t
	}

	resp, err := h.services.Bookings.Query(c.Request.Context(), &q)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBooking - GET /api/bookings/:id
func (h *Handlers) GetBooking(c *gin.Context) {
	booking, err := h.services.Bookings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// BookingHistory - GET /api/bookings/history/:key
// Full history for a user ID or plate number, newest first.
func (h *Handlers) BookingHistory(c *gin.Context) {
	history, err := h.services.Bookings.History(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// OccupyBooking - PATCH /api/bookings/occupy
func (h *Handlers) OccupyBooking(c *gin.Context) {
	var req models.OccupyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.services.Inventory.OccupySpace(c.Request.Context(), req.BookingID, req.AdminID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// AbandonBooking - PATCH /api/bookings/abandon
func (h *Handlers) AbandonBooking(c *gin.Context) {
	var req models.AbandonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.services.Inventory.MarkAbandoned(c.Request.Context(), req.BookingID, req.AdminID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("Booking abandoned",
		"booking_id", req.BookingID, "admin_id", req.AdminID)
	c.JSON(http.StatusOK, booking)
}

// ExitBooking - PATCH /api/bookings/exit
func (h *Handlers) ExitBooking(c *gin.Context) {
	var req models.ExitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := h.services.Inventory.EndBookingAndBill(c.Request.Context(), req.BookingID, req.PaymentMethod, req.AdminID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("Booking completed",
		"booking_id", req.BookingID, "amount_billed", amount, "payment_method", req.PaymentMethod)
	c.JSON(http.StatusOK, models.ExitResponse{AmountBilled: amount})
}
