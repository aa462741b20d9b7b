package pay

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"lookshq/apperr"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
)

// darajaCallback mirrors the envelope Daraja posts back after an STK push.
// ResultCode 0 means the customer paid; anything else is a failure.
type darajaCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// MpesaCallback is the public webhook the gateway calls. It is unauthenticated
// by necessity, so it trusts nothing beyond the transaction reference and
// relies on Settle being idempotent against replays.
func (p *PaymentService) MpesaCallback(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var cb darajaCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid callback payload")
		return
	}

	ref := cb.Body.StkCallback.CheckoutRequestID
	if ref == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing CheckoutRequestID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	success := cb.Body.StkCallback.ResultCode == 0
	payment, err := p.Settle(ctx, ref, success)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Unknown transaction reference")
			return
		}
		log.Println("MpesaCallback settle error:", err)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Callback processed",
		"status":  payment.Status,
	})
}
