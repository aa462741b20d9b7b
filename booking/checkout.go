package booking

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"lookshq/apperr"
	"lookshq/db"
	"lookshq/models"
	"lookshq/mq"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// checkoutStore is the document sequence convertCart runs: insert the
// booking, consume the cart, undo the booking if the consume loses. The
// Mongo implementation backs the handler; tests swap in a fake.
type checkoutStore interface {
	InsertBooking(ctx context.Context, b models.Booking) error
	// ConsumeCart deletes the cart document and reports whether it still
	// existed; false means another checkout beat this one to it.
	ConsumeCart(ctx context.Context, cartID string) (bool, error)
	DeleteBooking(ctx context.Context, bookingID string) error
}

type mongoCheckout struct{}

func (mongoCheckout) InsertBooking(ctx context.Context, b models.Booking) error {
	_, err := db.BookingsCollection.InsertOne(ctx, b)
	return err
}

func (mongoCheckout) ConsumeCart(ctx context.Context, cartID string) (bool, error) {
	res, err := db.CartsCollection.DeleteOne(ctx, bson.M{"cartId": cartID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (mongoCheckout) DeleteBooking(ctx context.Context, bookingID string) error {
	_, err := db.BookingsCollection.DeleteOne(ctx, bson.M{"bookingid": bookingID})
	return err
}

// convertCart turns a cart into a pending booking and consumes the cart.
// Of two racing checkouts of the same cart exactly one keeps its booking:
// the consume is conditioned on the cart document still existing, and the
// loser rolls its booking back and reports an empty cart.
func convertCart(ctx context.Context, store checkoutStore, c models.Cart, when time.Time) (models.Booking, error) {
	if len(c.Items) == 0 {
		return models.Booking{}, apperr.New(apperr.EmptyCart, "Your cart is empty")
	}

	// Single-shop invariant is enforced at add time; the first item's shop
	// is the booking's shop.
	services := make([]models.BookedService, 0, len(c.Items))
	for _, it := range c.Items {
		services = append(services, models.BookedService{ServiceName: it.ServiceName, Price: it.Price})
	}

	now := time.Now()
	b := models.Booking{
		BookingID: utils.GetUUID(),
		Customer:  c.CustomerID,
		Shop:      c.Items[0].ShopID,
		Services:  services,
		DateTime:  when,
		Status:    models.BookingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.RecomputeTotal()

	if err := store.InsertBooking(ctx, b); err != nil {
		return b, apperr.Wrap(apperr.Unexpected, "create booking", err)
	}

	consumed, err := store.ConsumeCart(ctx, c.CartID)
	if err != nil || !consumed {
		if derr := store.DeleteBooking(ctx, b.BookingID); derr != nil {
			log.Println("checkout rollback error:", derr)
		}
		if err != nil {
			return b, apperr.Wrap(apperr.Unexpected, "consume cart", err)
		}
		return b, apperr.New(apperr.EmptyCart, "Your cart is empty")
	}

	return b, nil
}

// CheckoutCart converts the customer's cart into a pending booking.
func CheckoutCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID := utils.GetUserIDFromRequest(r)

	var input struct {
		DateTime string `json:"dateTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	when, err := parseDateTime(input.DateTime)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dateTime")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var c models.Cart
	err = db.CartsCollection.FindOne(ctx, bson.M{"customerId": customerID}).Decode(&c)
	if err != nil && err != mongo.ErrNoDocuments {
		log.Println("CheckoutCart cart fetch error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating booking")
		return
	}

	b, cerr := convertCart(ctx, mongoCheckout{}, c, when)
	if cerr != nil {
		utils.RespondWithAppError(w, cerr)
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
