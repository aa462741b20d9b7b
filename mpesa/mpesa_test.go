package mpesa

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"254712345678":  "254712345678",
		"0712345678":    "254712345678",
		"712345678":     "254712345678",
		" 0712345678 ":  "254712345678",
		"+254712345678": "254712345678",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStkPassword(t *testing.T) {
	got := stkPassword("174379", "key", "20250101100000")
	want := base64.StdEncoding.EncodeToString([]byte("174379key20250101100000"))
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSTKPushAgainstFakeGateway(t *testing.T) {
	var gotPush map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			if r.Header.Get("Authorization") == "" {
				t.Error("token request missing basic auth")
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok123"})
		case "/mpesa/stkpush/v1/processrequest":
			if r.Header.Get("Authorization") != "Bearer tok123" {
				t.Errorf("push auth = %q", r.Header.Get("Authorization"))
			}
			json.NewDecoder(r.Body).Decode(&gotPush)
			json.NewEncoder(w).Encode(STKResponse{
				MerchantRequestID: "m1",
				CheckoutRequestID: "ws_CO_123",
				ResponseCode:      "0",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := &Client{
		BaseURL:        srv.URL,
		ConsumerKey:    "k",
		ConsumerSecret: "s",
		ShortCode:      "174379",
		Passkey:        "passkey",
		CallbackURL:    "https://example.com/cb",
		HTTPClient:     &http.Client{Timeout: 5 * time.Second},
	}

	resp, err := c.InitiateSTKPush("0712345678", 700, "TXN-1")
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if resp.CheckoutRequestID != "ws_CO_123" {
		t.Errorf("checkout id = %q", resp.CheckoutRequestID)
	}
	if gotPush["PhoneNumber"] != "254712345678" {
		t.Errorf("phone sent = %v", gotPush["PhoneNumber"])
	}
	if gotPush["PartyB"] != "174379" {
		t.Errorf("partyB = %v", gotPush["PartyB"])
	}
}

func TestTokenFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTPClient: &http.Client{Timeout: time.Second}}
	if _, err := c.InitiateSTKPush("0712345678", 100, "x"); err == nil {
		t.Fatal("expected error on token failure")
	}
}
