package booking

import (
	"testing"

	"lookshq/apperr"
	"lookshq/models"
)

func pendingBooking() *models.Booking {
	return &models.Booking{
		BookingID: "b1",
		Customer:  "cust1",
		Shop:      "shopA",
		Status:    models.BookingPending,
	}
}

func TestStatusMachine(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{models.BookingPending, models.BookingConfirmed, true},
		{models.BookingPending, models.BookingCancelled, true},
		{models.BookingPending, models.BookingCompleted, false},
		{models.BookingConfirmed, models.BookingCompleted, true},
		{models.BookingConfirmed, models.BookingCancelled, true},
		{models.BookingConfirmed, models.BookingPending, false},
		{models.BookingCompleted, models.BookingCancelled, false},
		{models.BookingCompleted, models.BookingConfirmed, false},
		{models.BookingCancelled, models.BookingPending, false},
		{models.BookingCancelled, models.BookingConfirmed, false},
	}
	for _, c := range cases {
		if got := models.CanTransition(c.from, c.to); got != c.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestCustomerCancelsPending(t *testing.T) {
	b := pendingBooking()
	eff, err := decideTransition(b, "owner1", "cust1", models.RoleCustomer, models.BookingCancelled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eff.CancelledByCustomer {
		t.Error("cancelledByCustomer flag not set")
	}
	if eff.ApprovedByShop {
		t.Error("approvedByShop set on a cancellation")
	}
}

func TestCustomerCannotCancelConfirmed(t *testing.T) {
	b := pendingBooking()
	b.Status = models.BookingConfirmed
	_, err := decideTransition(b, "owner1", "cust1", models.RoleCustomer, models.BookingCancelled)
	if !apperr.IsKind(err, apperr.Authorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestCustomerCannotConfirm(t *testing.T) {
	b := pendingBooking()
	_, err := decideTransition(b, "owner1", "cust1", models.RoleCustomer, models.BookingConfirmed)
	if !apperr.IsKind(err, apperr.Authorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestShopOwnerConfirmSetsApproval(t *testing.T) {
	b := pendingBooking()
	eff, err := decideTransition(b, "owner1", "owner1", models.RoleShopOwner, models.BookingConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eff.ApprovedByShop {
		t.Error("approvedByShop flag not set on confirmation")
	}
}

func TestForeignShopOwnerForbidden(t *testing.T) {
	b := pendingBooking()
	_, err := decideTransition(b, "owner1", "owner2", models.RoleShopOwner, models.BookingConfirmed)
	if !apperr.IsKind(err, apperr.Authorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestShopOwnerCannotCompletePending(t *testing.T) {
	b := pendingBooking()
	_, err := decideTransition(b, "owner1", "owner1", models.RoleShopOwner, models.BookingCompleted)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAdminBoundByTerminalStates(t *testing.T) {
	b := pendingBooking()
	b.Status = models.BookingCompleted
	_, err := decideTransition(b, "owner1", "admin1", models.RoleAdmin, models.BookingCancelled)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAdminMayConfirm(t *testing.T) {
	b := pendingBooking()
	if _, err := decideTransition(b, "owner1", "admin1", models.RoleAdmin, models.BookingConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	b := pendingBooking()
	_, err := decideTransition(b, "owner1", "admin1", models.RoleAdmin, "shipped")
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteRules(t *testing.T) {
	b := pendingBooking()

	if err := canDelete(b, "cust1", models.RoleCustomer); err != nil {
		t.Errorf("owner delete of pending booking: %v", err)
	}
	if err := canDelete(b, "someone", models.RoleCustomer); err == nil {
		t.Error("stranger delete allowed")
	}

	b.Status = models.BookingConfirmed
	if err := canDelete(b, "cust1", models.RoleCustomer); !apperr.IsKind(err, apperr.Authorization) {
		t.Errorf("customer deleted a confirmed booking: %v", err)
	}
	if err := canDelete(b, "admin1", models.RoleAdmin); err != nil {
		t.Errorf("admin delete of confirmed booking: %v", err)
	}
}

func TestBookingRecomputeTotal(t *testing.T) {
	b := &models.Booking{Services: []models.BookedService{
		{ServiceName: "Haircut", Price: 500},
		{ServiceName: "Shave", Price: 200},
	}}
	b.RecomputeTotal()
	if b.TotalPrice != 700 {
		t.Fatalf("totalPrice = %v, want 700", b.TotalPrice)
	}
}

func TestParseDateTime(t *testing.T) {
	if _, err := parseDateTime("2025-01-01T10:00"); err != nil {
		t.Errorf("datetime-local format rejected: %v", err)
	}
	if _, err := parseDateTime("2025-01-01T10:00:00Z"); err != nil {
		t.Errorf("RFC3339 rejected: %v", err)
	}
	if _, err := parseDateTime("not-a-date"); err == nil {
		t.Error("garbage accepted")
	}
}
