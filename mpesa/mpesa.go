// Package mpesa is a thin client for the Daraja STK-push API. Every call
// carries a bounded timeout; a push that cannot be delivered is an error the
// caller turns into a failed payment, never a payment stuck pending.
package mpesa

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const sandboxURL = "https://sandbox.safaricom.co.ke"

type Client struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	HTTPClient     *http.Client
}

// FromEnv builds a client from MPESA_* variables, or returns nil when the
// credentials are absent (the payment service then runs in simulated mode).
func FromEnv() *Client {
	key := os.Getenv("MPESA_CONSUMER_KEY")
	secret := os.Getenv("MPESA_CONSUMER_SECRET")
	if key == "" || secret == "" {
		return nil
	}
	base := os.Getenv("MPESA_BASE_URL")
	if base == "" {
		base = sandboxURL
	}
	return &Client{
		BaseURL:        base,
		ConsumerKey:    key,
		ConsumerSecret: secret,
		ShortCode:      os.Getenv("MPESA_SHORTCODE"),
		Passkey:        os.Getenv("MPESA_PASSKEY"),
		CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
		HTTPClient:     &http.Client{Timeout: 15 * time.Second},
	}
}

// NormalizePhone rewrites a Kenyan MSISDN into 254XXXXXXXXX form.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "254") {
		return phone
	}
	if len(phone) >= 9 {
		return "254" + phone[len(phone)-9:]
	}
	return phone
}

// stkPassword derives the request password for a timestamp in
// YYYYMMDDHHmmss form: base64(shortcode + passkey + timestamp).
func stkPassword(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

// Token fetches an OAuth access token.
func (c *Client) Token() (string, error) {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.ConsumerKey + ":" + c.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mpesa token request: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("mpesa token decode: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("mpesa token missing in response")
	}
	return body.AccessToken, nil
}

// STKResponse is the subset of the push acknowledgement the settlement flow
// needs: the CheckoutRequestID later echoed by the callback.
type STKResponse struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
}

// InitiateSTKPush asks Daraja to prompt the phone for amount.
func (c *Client) InitiateSTKPush(phone string, amount float64, accountRef string) (*STKResponse, error) {
	token, err := c.Token()
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")
	msisdn := NormalizePhone(phone)

	payload := map[string]any{
		"BusinessShortCode": c.ShortCode,
		"Password":          stkPassword(c.ShortCode, c.Passkey, timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amount,
		"PartyA":            msisdn,
		"PartyB":            c.ShortCode,
		"PhoneNumber":       msisdn,
		"CallBackURL":       c.CallbackURL,
		"AccountReference":  accountRef,
		"TransactionDesc":   "Looks service payment",
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mpesa stk push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mpesa stk push: status %d", resp.StatusCode)
	}

	var out STKResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("mpesa stk push decode: %w", err)
	}
	return &out, nil
}
