package models

import "time"

// Booking statuses. Pending is the only initial state; completed and
// cancelled are terminal.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// BookedService is a priced service copied out of the cart (or supplied
// directly) at booking time. Bookings never share state with the catalog.
type BookedService struct {
	ServiceName string  `json:"serviceName" bson:"serviceName"`
	Price       float64 `json:"price" bson:"price"`
}

type Booking struct {
	BookingID           string          `json:"bookingid" bson:"bookingid"`
	Customer            string          `json:"customer" bson:"customer"`
	Shop                string          `json:"shop" bson:"shop"`
	Services            []BookedService `json:"services" bson:"services"`
	TotalPrice          float64         `json:"totalPrice" bson:"totalPrice"`
	DateTime            time.Time       `json:"dateTime" bson:"dateTime"`
	Status              string          `json:"status" bson:"status"`
	PaymentID           string          `json:"payment,omitempty" bson:"payment,omitempty"`
	ApprovedByShop      bool            `json:"approvedByShop,omitempty" bson:"approvedByShop,omitempty"`
	CancelledByCustomer bool            `json:"cancelledByCustomer,omitempty" bson:"cancelledByCustomer,omitempty"`
	CreatedAt           time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// RecomputeTotal re-derives TotalPrice from the booked services.
func (b *Booking) RecomputeTotal() {
	var sum float64
	for _, s := range b.Services {
		sum += s.Price
	}
	b.TotalPrice = sum
}

// ValidBookingStatus reports whether s is one of the four booking states.
func ValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the status machine permits from -> to.
// Terminal states permit nothing, not even for admins.
func CanTransition(from, to string) bool {
	switch from {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled
	case BookingConfirmed:
		return to == BookingCompleted || to == BookingCancelled
	}
	return false
}
