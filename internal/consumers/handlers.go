package consumers

import (
	"context"
	"encoding/json"
	"fmt"

	"parkhub/internal/external"
	"parkhub/internal/logger"
	"parkhub/internal/models"
	"parkhub/internal/repository"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	store   *repository.Store
	gateway *external.GatewayClient
}

func NewHandlers(store *repository.Store, gateway *external.GatewayClient) *Handlers {
	return &Handlers{store: store, gateway: gateway}
}

// HandleBookingExpired pushes an expiry notice to the user whose reservation
// lapsed. Anonymous bookings have no push target and are acked silently.
func (h *Handlers) HandleBookingExpired(m *stan.Msg) {
	log := logger.Get()

	var event models.BookingExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		log.Error("Failed to unmarshal booking expired event", "error", err)
		return
	}

	log.Info("Processing booking expired event", "booking_id", event.BookingID)

	if event.UserID != "" {
		msg := fmt.Sprintf("Your parking reservation %s expired and the space was released.", event.BookingID)
		if err := h.gateway.SendPush(event.UserID, msg); err != nil {
			log.Error("Failed to send expiry push", "booking_id", event.BookingID, "error", err)
			return
		}
	}

	m.Ack()
}

// HandleBookingAbandoned notifies the driver on every channel we have for
// them that their vehicle was flagged and billing continues.
func (h *Handlers) HandleBookingAbandoned(m *stan.Msg) {
	log := logger.Get()

	var event models.BookingAbandonedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		log.Error("Failed to unmarshal booking abandoned event", "error", err)
		return
	}

	log.Info("Processing booking abandoned event", "booking_id", event.BookingID)

	msg := fmt.Sprintf("Your parking session %s was marked abandoned. Charges continue until staff confirm your exit.", event.BookingID)

	if event.Email != "" {
		if err := h.gateway.SendEmail(event.Email, "Parking session flagged", msg); err != nil {
			log.Error("Failed to send abandonment email", "booking_id", event.BookingID, "error", err)
			return
		}
	}
	if event.Phone != "" {
		if err := h.gateway.SendSMS(event.Phone, msg); err != nil {
			log.Error("Failed to send abandonment SMS", "booking_id", event.BookingID, "error", err)
			return
		}
	}

	m.Ack()
}

// HandlePaymentReceipt emails the final bill after exit. The booking is
// re-read so the receipt reflects committed state rather than event payload.
func (h *Handlers) HandlePaymentReceipt(m *stan.Msg) {
	log := logger.Get()

	var event models.PaymentReceiptEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		log.Error("Failed to unmarshal payment receipt event", "error", err)
		return
	}

	log.Info("Processing payment receipt event", "booking_id", event.BookingID, "amount", event.Amount)

	if event.Email == "" {
		m.Ack()
		return
	}

	body := fmt.Sprintf("Thank you for parking with us. Booking %s was billed %d.", event.BookingID, event.Amount)

	booking, err := h.store.GetBooking(context.Background(), event.BookingID)
	if err != nil {
		log.Error("Failed to load booking for receipt", "booking_id", event.BookingID, "error", err)
	} else if booking != nil && booking.PaymentMethod != nil {
		body = fmt.Sprintf("Thank you for parking with us. Booking %s was billed %d, paid via %s.",
			event.BookingID, event.Amount, *booking.PaymentMethod)
	}

	if err := h.gateway.SendEmail(event.Email, "Your parking receipt", body); err != nil {
		log.Error("Failed to send receipt email", "booking_id", event.BookingID, "error", err)
		return
	}

	m.Ack()
}
