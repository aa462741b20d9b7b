package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"lookshq/apperr"
	"lookshq/models"
)

// fakeCheckout records the document sequence so tests can assert on what
// convertCart inserted, consumed, and rolled back.
type fakeCheckout struct {
	inserted     []models.Booking
	deleted      []string
	cartExisted  bool
	consumeErr   error
	consumedCart string
}

func (f *fakeCheckout) InsertBooking(_ context.Context, b models.Booking) error {
	f.inserted = append(f.inserted, b)
	return nil
}

func (f *fakeCheckout) ConsumeCart(_ context.Context, cartID string) (bool, error) {
	f.consumedCart = cartID
	return f.cartExisted, f.consumeErr
}

func (f *fakeCheckout) DeleteBooking(_ context.Context, bookingID string) error {
	f.deleted = append(f.deleted, bookingID)
	return nil
}

func twoItemCart() models.Cart {
	c := models.Cart{
		CartID:     "cart1",
		CustomerID: "cust1",
		Items: []models.CartItem{
			{ItemID: "i1", ShopID: "shopA", ServiceName: "Haircut", Price: 500},
			{ItemID: "i2", ShopID: "shopA", ServiceName: "Shave", Price: 200},
		},
	}
	c.RecomputeTotal()
	return c
}

func TestConvertCartWinner(t *testing.T) {
	store := &fakeCheckout{cartExisted: true}
	b, err := convertCart(context.Background(), store, twoItemCart(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.Shop != "shopA" || b.Customer != "cust1" {
		t.Errorf("booking owner/shop = %s/%s", b.Customer, b.Shop)
	}
	if b.Status != models.BookingPending {
		t.Errorf("status = %s, want pending", b.Status)
	}
	if b.TotalPrice != 700 {
		t.Errorf("totalPrice = %v, want 700", b.TotalPrice)
	}
	if len(b.Services) != 2 {
		t.Errorf("services = %d, want 2", len(b.Services))
	}
	if store.consumedCart != "cart1" {
		t.Errorf("consumed cart %q", store.consumedCart)
	}
	if len(store.deleted) != 0 {
		t.Errorf("winner rolled back its booking: %v", store.deleted)
	}
}

func TestConvertCartLoserRollsBack(t *testing.T) {
	// Cart already consumed by a racing checkout: the booking must not
	// survive and the caller sees an empty cart.
	store := &fakeCheckout{cartExisted: false}
	_, err := convertCart(context.Background(), store, twoItemCart(), time.Now())
	if !apperr.IsKind(err, apperr.EmptyCart) {
		t.Fatalf("expected empty-cart error, got %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("inserted %d bookings, want 1", len(store.inserted))
	}
	if len(store.deleted) != 1 || store.deleted[0] != store.inserted[0].BookingID {
		t.Fatalf("booking not rolled back: inserted=%v deleted=%v",
			store.inserted[0].BookingID, store.deleted)
	}
}

func TestConvertCartConsumeFailureRollsBack(t *testing.T) {
	store := &fakeCheckout{cartExisted: false, consumeErr: errors.New("write concern timeout")}
	_, err := convertCart(context.Background(), store, twoItemCart(), time.Now())
	if apperr.IsKind(err, apperr.EmptyCart) {
		t.Fatal("infrastructure failure reported as empty cart")
	}
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.deleted) != 1 {
		t.Fatalf("booking not rolled back on consume failure: %v", store.deleted)
	}
}

func TestConvertCartEmpty(t *testing.T) {
	store := &fakeCheckout{cartExisted: true}
	_, err := convertCart(context.Background(), store, models.Cart{CustomerID: "cust1"}, time.Now())
	if !apperr.IsKind(err, apperr.EmptyCart) {
		t.Fatalf("expected empty-cart error, got %v", err)
	}
	if len(store.inserted) != 0 {
		t.Error("booking inserted for an empty cart")
	}
}
