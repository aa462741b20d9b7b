package mq

import (
	"context"
	"encoding/json"
	"log"

	"lookshq/rdx"
)

const channel = "booking-events"

// Event is a domain notification fanned out over Redis pub/sub. The
// websocket hub subscribes and relays to connected clients.
type Event struct {
	Name       string `json:"name"`                 // booking-created, booking-status-changed, payment-settled
	BookingID  string `json:"bookingId,omitempty"`
	PaymentID  string `json:"paymentId,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
	ShopID     string `json:"shopId,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Emit publishes an event; it never fails the caller's request.
func Emit(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("mq: marshal %s failed: %v", ev.Name, err)
		return
	}
	if err := rdx.Conn.Publish(context.Background(), channel, data).Err(); err != nil {
		log.Printf("mq: publish %s failed: %v", ev.Name, err)
	}
}

// Subscribe delivers events to fn until ctx is cancelled.
func Subscribe(ctx context.Context, fn func(Event)) {
	sub := rdx.Conn.Subscribe(ctx, channel)
	ch := sub.Channel()

	log.Println("mq: listening for booking events")
	for {
		select {
		case <-ctx.Done():
			sub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("mq: bad event payload: %v", err)
				continue
			}
			fn(ev)
		}
	}
}
