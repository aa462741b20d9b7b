package pay

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"lookshq/db"
	"lookshq/models"
	"lookshq/shops"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// visibleBookingIDs returns the booking ids the caller may see payments for:
// their own bookings for customers, bookings against owned shops for owners.
func visibleBookingIDs(ctx context.Context, userID, role string) ([]string, error) {
	var filter bson.M
	switch role {
	case models.RoleShopOwner:
		shopIDs, err := shops.OwnedShopIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		filter = bson.M{"shop": bson.M{"$in": shopIDs}}
	default:
		filter = bson.M{"customer": userID}
	}

	bookings, err := utils.FindAndDecode[models.Booking](ctx, db.BookingsCollection, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.BookingID)
	}
	return ids, nil
}

// GetPayments lists payments scoped to the caller's role. Admins see
// everything; everyone else only payments attached to bookings they can see.
func GetPayments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if role != models.RoleAdmin {
		ids, err := visibleBookingIDs(ctx, userID, role)
		if err != nil {
			log.Println("GetPayments booking lookup error:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching payments")
			return
		}
		filter["booking"] = bson.M{"$in": ids}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(skip).
		SetLimit(limit)

	payments, err := utils.FindAndDecode[models.Payment](ctx, db.PaymentsCollection, filter, opts)
	if err != nil {
		log.Println("GetPayments error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching payments")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, payments)
}

// GetPaymentByID returns one payment if the caller is the paying customer,
// the owner of the booked shop, or an admin.
func GetPaymentByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	payment, booking, err := loadPaymentWithBooking(ctx, ps.ByName("paymentId"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Payment not found")
		return
	}

	if !mayViewPayment(ctx, booking, userID, role) {
		utils.RespondWithError(w, http.StatusForbidden, "You cannot view this payment")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, payment)
}

func loadPaymentWithBooking(ctx context.Context, paymentID string) (models.Payment, models.Booking, error) {
	var payment models.Payment
	var booking models.Booking
	if err := db.PaymentsCollection.FindOne(ctx, bson.M{"paymentid": paymentID}).Decode(&payment); err != nil {
		return payment, booking, err
	}
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": payment.BookingID}).Decode(&booking); err != nil {
		return payment, booking, err
	}
	return payment, booking, nil
}

func mayViewPayment(ctx context.Context, booking models.Booking, userID, role string) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleShopOwner:
		shop, err := shops.FindByID(ctx, booking.Shop)
		return err == nil && shop.Owner == userID
	default:
		return booking.Customer == userID
	}
}

// UpdatePayment is an admin repair hatch for stuck records. Splits stay
// server-derived; only status and method are writable.
func UpdatePayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Status *string `json:"status"`
		Method *string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Status != nil {
		if *input.Status != models.PaymentPending && *input.Status != models.PaymentSuccess && *input.Status != models.PaymentFailed {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid payment status")
			return
		}
		update["status"] = *input.Status
	}
	if input.Method != nil {
		if !models.ValidPaymentMethod(*input.Method) {
			utils.RespondWithError(w, http.StatusBadRequest, "Unsupported payment method")
			return
		}
		update["method"] = *input.Method
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var payment models.Payment
	err := db.PaymentsCollection.FindOneAndUpdate(ctx,
		bson.M{"paymentid": ps.ByName("paymentId")},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&payment)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Payment not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Payment updated successfully",
		"payment": payment,
	})
}

// DeletePayment removes a payment record. Admin only.
func DeletePayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := db.PaymentsCollection.DeleteOne(ctx, bson.M{"paymentid": ps.ByName("paymentId")})
	if err != nil {
		log.Println("DeletePayment error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error deleting payment")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Payment not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Payment deleted successfully"})
}
