package pay

import (
	"context"
	"testing"

	"lookshq/apperr"
	"lookshq/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// fakeSettlements mimics the conditional document updates the Mongo store
// performs, keyed in memory, and counts booking confirms.
type fakeSettlements struct {
	payments map[string]*models.Payment // by transactionRef
	bookings map[string]*models.Booking // by bookingid
	confirms int
	released []string
}

func newFakeSettlements() *fakeSettlements {
	return &fakeSettlements{
		payments: map[string]*models.Payment{},
		bookings: map[string]*models.Booking{},
	}
}

func (f *fakeSettlements) seed(p models.Payment, b models.Booking) {
	f.payments[p.TransactionRef] = &p
	f.bookings[b.BookingID] = &b
}

func (f *fakeSettlements) ClaimPayment(_ context.Context, ref, status string) (models.Payment, bool, error) {
	p, ok := f.payments[ref]
	if !ok || p.Status != models.PaymentPending {
		return models.Payment{}, false, nil
	}
	p.Status = status
	return *p, true, nil
}

func (f *fakeSettlements) FindPayment(_ context.Context, ref string) (models.Payment, error) {
	p, ok := f.payments[ref]
	if !ok {
		return models.Payment{}, mongo.ErrNoDocuments
	}
	return *p, nil
}

func (f *fakeSettlements) ConfirmBooking(_ context.Context, bookingID, paymentID string) (models.Booking, error) {
	b, ok := f.bookings[bookingID]
	if !ok || b.Status != models.BookingPending {
		return models.Booking{}, mongo.ErrNoDocuments
	}
	f.confirms++
	b.Status = models.BookingConfirmed
	b.PaymentID = paymentID
	return *b, nil
}

func (f *fakeSettlements) ReleaseClaim(_ context.Context, paymentID string) error {
	f.released = append(f.released, paymentID)
	for _, p := range f.payments {
		if p.PaymentID == paymentID {
			p.Status = models.PaymentPending
		}
	}
	return nil
}

func settlementService(store settlementStore) *PaymentService {
	return &PaymentService{cfg: Config{CommissionRate: 0.05}, stk: nil, store: store}
}

func pendingPair() (models.Payment, models.Booking) {
	p := models.Payment{
		PaymentID:      "p1",
		BookingID:      "b1",
		TransactionRef: "TXN-1",
		Amount:         700,
		Status:         models.PaymentPending,
	}
	b := models.Booking{BookingID: "b1", Customer: "cust1", Shop: "shopA", Status: models.BookingPending}
	return p, b
}

func TestSettleSuccessConfirmsBooking(t *testing.T) {
	store := newFakeSettlements()
	store.seed(pendingPair())
	svc := settlementService(store)

	payment, err := svc.Settle(context.Background(), "TXN-1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != models.PaymentSuccess {
		t.Errorf("payment status = %s", payment.Status)
	}
	if b := store.bookings["b1"]; b.Status != models.BookingConfirmed || b.PaymentID != "p1" {
		t.Errorf("booking = %+v", b)
	}
}

func TestSettleRepeatIsNoOp(t *testing.T) {
	store := newFakeSettlements()
	store.seed(pendingPair())
	svc := settlementService(store)

	if _, err := svc.Settle(context.Background(), "TXN-1", true); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	// Replayed callback for the same ref: must return the settled record
	// without touching the booking again.
	payment, err := svc.Settle(context.Background(), "TXN-1", true)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if payment.Status != models.PaymentSuccess {
		t.Errorf("payment status = %s", payment.Status)
	}
	if store.confirms != 1 {
		t.Fatalf("booking confirmed %d times, want 1", store.confirms)
	}
}

func TestSettleFailureLeavesBookingAlone(t *testing.T) {
	store := newFakeSettlements()
	store.seed(pendingPair())
	svc := settlementService(store)

	payment, err := svc.Settle(context.Background(), "TXN-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != models.PaymentFailed {
		t.Errorf("payment status = %s", payment.Status)
	}
	if b := store.bookings["b1"]; b.Status != models.BookingPending || b.PaymentID != "" {
		t.Errorf("failed payment touched the booking: %+v", b)
	}
}

func TestSettleRefusesNonPendingBooking(t *testing.T) {
	// Booking cancelled between payment creation and the callback: the
	// settlement must not resurrect it, and the claim is released for a
	// retry instead of silently losing the gateway result.
	store := newFakeSettlements()
	p, b := pendingPair()
	b.Status = models.BookingCancelled
	store.seed(p, b)
	svc := settlementService(store)

	_, err := svc.Settle(context.Background(), "TXN-1", true)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := store.bookings["b1"].Status; got != models.BookingCancelled {
		t.Errorf("terminal booking left cancelled=%s", got)
	}
	if len(store.released) != 1 || store.released[0] != "p1" {
		t.Errorf("claim not released: %v", store.released)
	}
	if store.payments["TXN-1"].Status != models.PaymentPending {
		t.Errorf("payment status = %s, want pending after release", store.payments["TXN-1"].Status)
	}
}

func TestSettleUnknownRef(t *testing.T) {
	svc := settlementService(newFakeSettlements())
	_, err := svc.Settle(context.Background(), "TXN-missing", true)
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestPayableBooking(t *testing.T) {
	if err := payableBooking(models.Booking{Status: models.BookingPending}); err != nil {
		t.Errorf("pending booking rejected: %v", err)
	}
	for _, status := range []string{models.BookingConfirmed, models.BookingCompleted, models.BookingCancelled} {
		if err := payableBooking(models.Booking{Status: status}); !apperr.IsKind(err, apperr.Conflict) {
			t.Errorf("status %s: expected conflict, got %v", status, err)
		}
	}
	err := payableBooking(models.Booking{Status: models.BookingPending, PaymentID: "p9"})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("booking with existing payment accepted: %v", err)
	}
}
