// Package pay settles bookings: it computes the commission split, drives
// the STK push (real or simulated), and reflects settlement onto the owning
// booking. A payment flips out of pending exactly once; the pending->done
// document update is the claim that makes callbacks idempotent.
package pay

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"lookshq/apperr"
	"lookshq/db"
	"lookshq/models"
	"lookshq/mpesa"
	"lookshq/mq"
	"lookshq/rdx"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultCommissionRate = 0.05

// Config carries the knobs the settlement engine runs on.
type Config struct {
	CommissionRate float64
}

// ConfigFromEnv reads COMMISSION_RATE, falling back to the default 5%.
func ConfigFromEnv() Config {
	cfg := Config{CommissionRate: defaultCommissionRate}
	if raw := os.Getenv("COMMISSION_RATE"); raw != "" {
		if rate, err := strconv.ParseFloat(raw, 64); err == nil && rate >= 0 && rate <= 1 {
			cfg.CommissionRate = rate
		} else {
			log.Printf("pay: ignoring invalid COMMISSION_RATE %q", raw)
		}
	}
	return cfg
}

// settlementStore is the handful of document operations Settle needs. The
// Mongo implementation carries the conditional updates that make settlement
// exactly-once; tests swap it for an in-memory one.
type settlementStore interface {
	// ClaimPayment flips the payment for ref from pending to status and
	// reports whether this caller won the flip.
	ClaimPayment(ctx context.Context, ref, status string) (models.Payment, bool, error)
	FindPayment(ctx context.Context, ref string) (models.Payment, error)
	// ConfirmBooking moves a still-pending booking to confirmed and stamps
	// the payment ref; mongo.ErrNoDocuments means the booking no longer
	// awaits payment.
	ConfirmBooking(ctx context.Context, bookingID, paymentID string) (models.Booking, error)
	// ReleaseClaim puts a claimed payment back to pending.
	ReleaseClaim(ctx context.Context, paymentID string) error
}

type mongoSettlements struct{}

func (mongoSettlements) ClaimPayment(ctx context.Context, ref, status string) (models.Payment, bool, error) {
	// Best-effort serialization of racing callbacks; the conditional update
	// below is what actually guarantees exactly-once.
	if ok, err := rdx.AcquireLock(ctx, "settle:"+ref, 10*time.Second); err == nil && ok {
		defer rdx.ReleaseLock(ctx, "settle:"+ref)
	}

	var p models.Payment
	err := db.PaymentsCollection.FindOneAndUpdate(ctx,
		bson.M{"transactionRef": ref, "status": models.PaymentPending},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return p, false, nil
	}
	if err != nil {
		return p, false, err
	}
	return p, true, nil
}

func (mongoSettlements) FindPayment(ctx context.Context, ref string) (models.Payment, error) {
	var p models.Payment
	err := db.PaymentsCollection.FindOne(ctx, bson.M{"transactionRef": ref}).Decode(&p)
	return p, err
}

func (mongoSettlements) ConfirmBooking(ctx context.Context, bookingID, paymentID string) (models.Booking, error) {
	var b models.Booking
	err := db.BookingsCollection.FindOneAndUpdate(ctx,
		bson.M{"bookingid": bookingID, "status": models.BookingPending},
		bson.M{"$set": bson.M{
			"status":    models.BookingConfirmed,
			"payment":   paymentID,
			"updatedAt": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	return b, err
}

func (mongoSettlements) ReleaseClaim(ctx context.Context, paymentID string) error {
	_, err := db.PaymentsCollection.UpdateOne(ctx,
		bson.M{"paymentid": paymentID},
		bson.M{"$set": bson.M{"status": models.PaymentPending, "updatedAt": time.Now()}},
	)
	return err
}

// PaymentService handles payment creation and settlement.
type PaymentService struct {
	cfg   Config
	stk   *mpesa.Client // nil means simulated gateway
	store settlementStore
}

func NewPaymentService(cfg Config, stk *mpesa.Client) *PaymentService {
	return &PaymentService{cfg: cfg, stk: stk, store: mongoSettlements{}}
}

// payableBooking rejects bookings that cannot accept a payment: anything
// past pending, or one already settled against.
func payableBooking(b models.Booking) error {
	if b.Status != models.BookingPending {
		return apperr.New(apperr.Conflict, "Booking is not awaiting payment")
	}
	if b.PaymentID != "" {
		return apperr.New(apperr.Conflict, "Booking already has a payment")
	}
	return nil
}

// CreatePayment initiates payment for a booking. The amount always comes
// from the booking; client-sent amounts and splits are ignored.
func (p *PaymentService) CreatePayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Booking        string `json:"booking"`
		Method         string `json:"method"`
		Phone          string `json:"phone"`
		TransactionRef string `json:"transactionRef"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if input.Booking == "" || input.Method == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "booking and method are required")
		return
	}
	if !models.ValidPaymentMethod(input.Method) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported payment method")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	var b models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": input.Booking}).Decode(&b); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if err := payableBooking(b); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	now := time.Now()
	payment := models.Payment{
		PaymentID:      utils.GetUUID(),
		BookingID:      b.BookingID,
		Method:         input.Method,
		Status:         models.PaymentPending,
		TransactionRef: input.TransactionRef,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := payment.ApplySplit(b.TotalPrice, p.cfg.CommissionRate); err != nil {
		utils.RespondWithAppError(w, apperr.Wrap(apperr.Validation, "Invalid booking amount", err))
		return
	}
	if payment.TransactionRef == "" {
		payment.TransactionRef = models.NewTransactionRef()
	}

	if _, err := db.PaymentsCollection.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "Transaction reference already used")
			return
		}
		log.Println("CreatePayment insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating payment")
		return
	}

	if p.stk != nil && input.Method == models.MethodMpesa {
		// Real gateway: fire the push, settle later via callback. A push
		// that cannot be delivered fails the payment right away.
		resp, err := p.stk.InitiateSTKPush(input.Phone, payment.Amount, payment.TransactionRef)
		if err != nil {
			log.Println("CreatePayment stk push failed:", err)
			payment = p.mustSettle(ctx, payment.TransactionRef, false)
			utils.RespondWithJSON(w, http.StatusCreated, utils.M{
				"message": "Payment failed",
				"payment": payment,
			})
			return
		}
		// The callback echoes the CheckoutRequestID, so the payment is
		// looked up by it from here on.
		_, err = db.PaymentsCollection.UpdateOne(ctx,
			bson.M{"paymentid": payment.PaymentID},
			bson.M{"$set": bson.M{"transactionRef": resp.CheckoutRequestID, "updatedAt": time.Now()}},
		)
		if err != nil {
			log.Println("CreatePayment ref update error:", err)
		} else {
			payment.TransactionRef = resp.CheckoutRequestID
		}

		utils.RespondWithJSON(w, http.StatusCreated, utils.M{
			"message": "Payment initiated, confirm on your phone",
			"payment": payment,
		})
		return
	}

	// Simulated gateway: settle immediately.
	settled, err := p.Settle(ctx, payment.TransactionRef, true)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Payment created successfully",
		"payment": settled,
	})
}

// mustSettle is Settle for paths where the payment was just created and the
// claim cannot reasonably fail; it logs instead of propagating.
func (p *PaymentService) mustSettle(ctx context.Context, transactionRef string, success bool) models.Payment {
	payment, err := p.Settle(ctx, transactionRef, success)
	if err != nil {
		log.Println("pay: settle failed:", err)
	}
	return payment
}

// Settle flips a pending payment to its terminal state and, on success,
// confirms the owning booking. Safe to call repeatedly for the same ref:
// only the call that wins the pending->terminal claim touches the booking,
// later calls are no-ops returning the settled document. The booking update
// is itself conditioned on the booking still being pending, so settlement
// never resurrects a cancelled or completed booking; when that condition
// fails the claim is released and the error surfaces.
func (p *PaymentService) Settle(ctx context.Context, transactionRef string, success bool) (models.Payment, error) {
	newStatus := models.PaymentFailed
	if success {
		newStatus = models.PaymentSuccess
	}

	payment, claimed, err := p.store.ClaimPayment(ctx, transactionRef, newStatus)
	if err != nil {
		return payment, apperr.Wrap(apperr.Unexpected, "settle payment", err)
	}
	if !claimed {
		// Already settled, or never existed.
		settled, ferr := p.store.FindPayment(ctx, transactionRef)
		if ferr != nil {
			return settled, apperr.New(apperr.NotFound, "Payment not found")
		}
		return settled, nil
	}

	if !success {
		return payment, nil
	}

	booking, err := p.store.ConfirmBooking(ctx, payment.BookingID, payment.PaymentID)
	if err != nil {
		// Release the claim so a retried callback can finish the job once
		// whatever blocked the booking write is resolved.
		if rerr := p.store.ReleaseClaim(ctx, payment.PaymentID); rerr != nil {
			log.Println("pay: failed to release settlement claim:", rerr)
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return payment, apperr.New(apperr.Conflict, "Booking is not awaiting payment")
		}
		return payment, apperr.Wrap(apperr.Unexpected, "confirm booking", err)
	}

	go mq.Emit(context.Background(), mq.Event{
		Name:       "payment-settled",
		BookingID:  payment.BookingID,
		PaymentID:  payment.PaymentID,
		CustomerID: booking.Customer,
		ShopID:     booking.Shop,
		Status:     models.PaymentSuccess,
	})

	return payment, nil
}
