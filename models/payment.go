package models

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Payment statuses and methods.
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"

	MethodMpesa = "mpesa"
	MethodCard  = "card"
)

type Payment struct {
	PaymentID      string    `json:"paymentid" bson:"paymentid"`
	BookingID      string    `json:"booking" bson:"booking"`
	Amount         float64   `json:"amount" bson:"amount"`
	Commission     float64   `json:"commission" bson:"commission"`
	ShopEarning    float64   `json:"shopEarning" bson:"shopEarning"`
	Method         string    `json:"method" bson:"method"`
	Status         string    `json:"status" bson:"status"`
	TransactionRef string    `json:"transactionRef" bson:"transactionRef"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ApplySplit sets Amount and re-derives Commission and ShopEarning from the
// given rate. The split is exact (no rounding): commission = amount*rate and
// commission + shopEarning == amount always. Client-supplied split fields
// are overwritten, never trusted.
func (p *Payment) ApplySplit(amount, rate float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return fmt.Errorf("invalid payment amount %v", amount)
	}
	if rate < 0 || rate > 1 {
		return fmt.Errorf("invalid commission rate %v", rate)
	}
	p.Amount = amount
	p.Commission = amount * rate
	p.ShopEarning = amount - p.Commission
	return nil
}

// NewTransactionRef generates a TXN-<timestamp>-<random> reference, same
// shape the legacy system stamped on auto-generated refs.
func NewTransactionRef() string {
	return fmt.Sprintf("TXN-%d-%04d", time.Now().UnixMilli(), rand.Intn(10000))
}

func ValidPaymentMethod(m string) bool {
	return m == MethodMpesa || m == MethodCard
}
