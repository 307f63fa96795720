package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"parkhub/internal/clock"
	"parkhub/internal/handlers"
	"parkhub/internal/models"
	"parkhub/internal/service"
	"parkhub/internal/storetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (*storetest.MemStore, *clock.Manual, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	store := storetest.NewMemStore()
	clk := clock.NewManual(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	services := service.NewServices(store, storetest.NewMemNotifier(), nil, nil, clk)
	h := handlers.NewHandlers(services)

	router := gin.New()
	api := router.Group("/api")
	{
		api.POST("/lots", h.CreateLot)
		api.GET("/lots", h.ListLots)
		api.GET("/lots/:id", h.GetLot)
		api.PATCH("/lots/:id", h.UpdateLot)
		api.DELETE("/lots/:id", h.DeleteLot)
		api.POST("/lots/:id/spaces", h.AddSpace)
		api.GET("/lots/:id/spaces", h.ListSpaces)
		api.DELETE("/spaces/:id", h.DeleteSpace)
		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings", h.ListBookings)
		api.GET("/bookings/:id", h.GetBooking)
		api.GET("/bookings/history/:key", h.BookingHistory)
		api.PATCH("/bookings/occupy", h.OccupyBooking)
		api.PATCH("/bookings/abandon", h.AbandonBooking)
		api.PATCH("/bookings/exit", h.ExitBooking)
	}
	return store, clk, router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func createLotWithSpaces(t *testing.T, router *gin.Engine, spaces int) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/lots", models.CreateLotRequest{Name: "North", Location: "Zone A"})
	require.Equal(t, http.StatusCreated, w.Code)

	var lot models.ParkingLot
	decode(t, w, &lot)

	for n := 1; n <= spaces; n++ {
		w := doJSON(t, router, http.MethodPost, "/api/lots/"+lot.ID+"/spaces", models.AddSpaceRequest{Number: n})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	return lot.ID
}

func TestLotEndpoints(t *testing.T) {
	_, _, router := newTestRouter()

	lotID := createLotWithSpaces(t, router, 2)

	w := doJSON(t, router, http.MethodGet, "/api/lots/"+lotID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lot models.ParkingLot
	decode(t, w, &lot)
	assert.Equal(t, 2, lot.TotalSpaces)
	assert.Equal(t, 2, lot.AvailableSpaces)

	w = doJSON(t, router, http.MethodGet, "/api/lots/no-such-lot", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/lots", map[string]string{"name": "incomplete"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A lot still holding spaces cannot be deleted.
	w = doJSON(t, router, http.MethodDelete, "/api/lots/"+lotID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/lots/"+lotID+"/spaces", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var spaces []models.ParkingSpace
	decode(t, w, &spaces)
	assert.Len(t, spaces, 2)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	_, clk, router := newTestRouter()
	lotID := createLotWithSpaces(t, router, 1)

	w := doJSON(t, router, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		LotID:       lotID,
		PlateNumber: "KDA 123X",
		UserType:    models.UserTypeGuest,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var booking models.Booking
	decode(t, w, &booking)
	assert.Equal(t, models.BookingPending, booking.Status)

	// The lot is now full.
	w = doJSON(t, router, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		LotID:       lotID,
		PlateNumber: "KDB 456Y",
		UserType:    models.UserTypeGuest,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/api/bookings/occupy", models.OccupyRequest{BookingID: booking.ID, AdminID: "admin-1"})
	require.Equal(t, http.StatusOK, w.Code)

	clk.Advance(90 * time.Minute)

	w = doJSON(t, router, http.MethodPatch, "/api/bookings/exit", models.ExitRequest{
		BookingID:     booking.ID,
		PaymentMethod: models.PaymentMethodMpesa,
		AdminID:       "admin-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var exit models.ExitResponse
	decode(t, w, &exit)
	assert.Equal(t, int64(200), exit.AmountBilled)

	// Exiting twice is a state conflict.
	w = doJSON(t, router, http.MethodPatch, "/api/bookings/exit", models.ExitRequest{
		BookingID:     booking.ID,
		PaymentMethod: models.PaymentMethodCash,
		AdminID:       "admin-1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingValidationOverHTTP(t *testing.T) {
	_, _, router := newTestRouter()
	lotID := createLotWithSpaces(t, router, 1)

	w := doJSON(t, router, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		LotID:       lotID,
		PlateNumber: "KDA 123X",
		UserType:    "staff",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/api/bookings/occupy", models.OccupyRequest{BookingID: "no-such-booking", AdminID: "admin-1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// admin_id is mandatory on occupy.
	w = doJSON(t, router, http.MethodPatch, "/api/bookings/occupy", models.OccupyRequest{BookingID: "no-such-booking"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBookingsAndHistoryOverHTTP(t *testing.T) {
	_, _, router := newTestRouter()
	lotID := createLotWithSpaces(t, router, 3)

	plates := []string{"KAA 001A", "KAA 002B", "KAA 003C"}
	for _, plate := range plates {
		w := doJSON(t, router, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
			LotID:       lotID,
			PlateNumber: plate,
			UserType:    models.UserTypeStudent,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/bookings?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page models.ListBookingsResponse
	decode(t, w, &page)
	assert.Len(t, page.Items, 3)

	w = doJSON(t, router, http.MethodGet, "/api/bookings?status=parked", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/bookings/history/"+url.PathEscape("KAA 002B"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.Booking
	decode(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "KAA 002B", history[0].PlateNumber)
}

func TestDeleteSpaceOverHTTP(t *testing.T) {
	store, _, router := newTestRouter()
	lotID := createLotWithSpaces(t, router, 1)

	w := doJSON(t, router, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		LotID:       lotID,
		PlateNumber: "KDA 123X",
		UserType:    models.UserTypeGuest,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var booking models.Booking
	decode(t, w, &booking)

	// Held spaces cannot be removed.
	w = doJSON(t, router, http.MethodDelete, "/api/spaces/"+booking.SpaceID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	store.Spaces[booking.SpaceID].CurrentBookingID = nil

	w = doJSON(t, router, http.MethodDelete, "/api/spaces/"+booking.SpaceID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
