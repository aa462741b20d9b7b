package pay

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"lookshq/db"
	"lookshq/models"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

// DownloadReceipt renders a PDF receipt for a successful payment. Visible to
// the same parties as the payment itself.
func DownloadReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
	if payment.Status != models.PaymentSuccess {
		utils.RespondWithError(w, http.StatusConflict, "Receipt available only for successful payments")
		return
	}

	var shop models.Shop
	shopName := booking.Shop
	if err := db.ShopsCollection.FindOne(ctx, bson.M{"shopid": booking.Shop}).Decode(&shop); err == nil {
		shopName = shop.Name
	}

	// QR payload lets the shop verify a printed receipt against the record.
	qrPNG, err := qrcode.Encode(payment.PaymentID+"|"+payment.TransactionRef, qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Payment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Receipt No: %s", payment.PaymentID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Transaction Ref: %s", payment.TransactionRef))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Shop: %s", shopName))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Booking: %s", booking.BookingID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s", payment.UpdatedAt.Format("2 Jan 2006 15:04")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 10, "Services")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	for _, s := range booking.Services {
		pdf.Cell(0, 8, fmt.Sprintf("%s  -  KES %.2f", s.ServiceName, s.Price))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Total Paid: KES %.2f (%s)", payment.Amount, payment.Method))
	pdf.Ln(8)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 30, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+payment.PaymentID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
