// Package booking owns the cart-to-booking conversion and the booking
// status machine. Bookings are immutable snapshots of priced services; only
// their status moves, and only along the machine in status.go.
package booking

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"lookshq/db"
	"lookshq/models"
	"lookshq/mq"
	"lookshq/shops"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// parseDateTime accepts the formats clients actually send: RFC3339 or the
// HTML datetime-local shape "2006-01-02T15:04".
func parseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", raw)
}

// CreateBooking books services directly, without going through a cart.
func CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID := utils.GetUserIDFromRequest(r)

	var input struct {
		Shop     string                 `json:"shop"`
		Services []models.BookedService `json:"services"`
		DateTime string                 `json:"dateTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if input.Shop == "" || len(input.Services) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Shop and at least one service are required")
		return
	}
	for _, s := range input.Services {
		if strings.TrimSpace(s.ServiceName) == "" || s.Price <= 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Every service needs a serviceName and a positive price")
			return
		}
	}
	when, err := parseDateTime(input.DateTime)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dateTime")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := shops.FindByID(ctx, input.Shop); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Shop not found")
		return
	}

	now := time.Now()
	b := models.Booking{
		BookingID: utils.GetUUID(),
		Customer:  customerID,
		Shop:      input.Shop,
		Services:  input.Services,
		DateTime:  when,
		Status:    models.BookingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.RecomputeTotal()

	if _, err := db.BookingsCollection.InsertOne(ctx, b); err != nil {
		log.Println("CreateBooking insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating booking")
		return
	}

	go mq.Emit(context.Background(), mq.Event{
		Name:       "booking-created",
		BookingID:  b.BookingID,
		CustomerID: b.Customer,
		ShopID:     b.Shop,
		Status:     b.Status,
	})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Booking created successfully",
		"booking": b,
	})
}

// GetBookings lists bookings scoped by role: admins see everything, shop
// owners see their shops' bookings, customers see their own.
func GetBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	switch role {
	case models.RoleAdmin:
	case models.RoleShopOwner:
		ids, err := shops.OwnedShopIDs(ctx, userID)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching bookings")
			return
		}
		filter["shop"] = bson.M{"$in": ids}
	default:
		filter["customer"] = userID
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	bookings, err := utils.FindAndDecode[models.Booking](ctx, db.BookingsCollection, filter,
		options.Find().SetSort(bson.M{"createdAt": -1}).SetSkip(skip).SetLimit(limit))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching bookings")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": bookings})
}

// GetBookingByID fetches one booking. Customers may only read their own;
// shop owners only bookings of shops they own.
func GetBookingByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var b models.Booking
	err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": ps.ByName("bookingId")}).Decode(&b)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}

	switch role {
	case models.RoleAdmin:
	case models.RoleShopOwner:
		shop, err := shops.FindByID(ctx, b.Shop)
		if err != nil || shop.Owner != userID {
			utils.RespondWithError(w, http.StatusForbidden, "Not authorized for this action")
			return
		}
	default:
		if b.Customer != userID {
			utils.RespondWithError(w, http.StatusForbidden, "Not authorized for this action")
			return
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": b})
}

// UpdateBooking moves a booking through the status machine under the role
// matrix in status.go.
func UpdateBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)
	bookingID := ps.ByName("bookingId")

	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Status == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "A status is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var b models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": bookingID}).Decode(&b); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}

	shop, err := shops.FindByID(ctx, b.Shop)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error updating booking")
		return
	}

	eff, derr := decideTransition(&b, shop.Owner, userID, role, input.Status)
	if derr != nil {
		utils.RespondWithAppError(w, derr)
		return
	}

	update := bson.M{"status": input.Status, "updatedAt": time.Now()}
	if eff.ApprovedByShop {
		update["approvedByShop"] = true
	}
	if eff.CancelledByCustomer {
		update["cancelledByCustomer"] = true
	}

	// Guard on the status we just read so two racing updates cannot both
	// pass the transition check.
	var updated models.Booking
	err = db.BookingsCollection.FindOneAndUpdate(ctx,
		bson.M{"bookingid": bookingID, "status": b.Status},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		utils.RespondWithError(w, http.StatusConflict, "Booking changed concurrently, retry")
		return
	}

	go mq.Emit(context.Background(), mq.Event{
		Name:       "booking-status-changed",
		BookingID:  updated.BookingID,
		CustomerID: updated.Customer,
		ShopID:     updated.Shop,
		Status:     updated.Status,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Booking updated",
		"booking": updated,
	})
}

// DeleteBooking removes a booking under the rules in canDelete.
func DeleteBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)
	bookingID := ps.ByName("bookingId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var b models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": bookingID}).Decode(&b); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}

	if err := canDelete(&b, userID, role); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	if _, err := db.BookingsCollection.DeleteOne(ctx, bson.M{"bookingid": bookingID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error deleting booking")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Booking deleted successfully"})
}
