package booking

import (
	"lookshq/apperr"
	"lookshq/models"
)

// transitionEffect captures what a status change writes besides the status
// itself.
type transitionEffect struct {
	ApprovedByShop      bool
	CancelledByCustomer bool
}

// decideTransition applies the role/ownership matrix and the status machine
// to a requested change and returns the audit flags to set.
//
//   - a customer may cancel their own booking, and only while it is pending
//   - the owning shop may confirm, complete or cancel
//   - an admin may request any status
//
// Whoever asks, the machine itself has the last word: nothing leaves a
// terminal state, and completed is only reachable from confirmed.
func decideTransition(b *models.Booking, shopOwnerID, userID, role, newStatus string) (transitionEffect, error) {
	var eff transitionEffect

	if !models.ValidBookingStatus(newStatus) {
		return eff, apperr.New(apperr.Validation, "Unknown booking status")
	}

	isCustomer := b.Customer == userID
	isShopOwner := role == models.RoleShopOwner && shopOwnerID == userID
	isAdmin := role == models.RoleAdmin

	switch {
	case isAdmin:
		// no role restriction
	case isCustomer && newStatus == models.BookingCancelled:
		if b.Status != models.BookingPending {
			return eff, apperr.New(apperr.Authorization, "Only pending bookings can be cancelled")
		}
		eff.CancelledByCustomer = true
	case isShopOwner:
		switch newStatus {
		case models.BookingConfirmed, models.BookingCompleted, models.BookingCancelled:
		default:
			return eff, apperr.New(apperr.Authorization, "Not authorized for this action")
		}
	default:
		return eff, apperr.New(apperr.Authorization, "Not authorized for this action")
	}

	if !models.CanTransition(b.Status, newStatus) {
		return eff, apperr.New(apperr.Conflict, "Invalid status transition")
	}

	if newStatus == models.BookingConfirmed {
		eff.ApprovedByShop = true
	}
	return eff, nil
}

// canDelete reports whether the principal may delete the booking. Settled
// bookings (confirmed/completed) stay on record unless an admin removes
// them.
func canDelete(b *models.Booking, userID, role string) error {
	isCustomer := b.Customer == userID
	isAdmin := role == models.RoleAdmin

	if !isCustomer && !isAdmin {
		return apperr.New(apperr.Authorization, "Not authorized for this action")
	}
	if (b.Status == models.BookingConfirmed || b.Status == models.BookingCompleted) && !isAdmin {
		return apperr.New(apperr.Authorization, "Cannot delete a confirmed booking")
	}
	return nil
}
