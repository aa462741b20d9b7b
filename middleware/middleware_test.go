package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lookshq/globals"
	"lookshq/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

func signToken(t *testing.T, role string) string {
	t.Helper()
	claims := Claims{
		Username: "jane",
		UserID:   "u1",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return raw
}

func TestValidateRawTokenRoundTrip(t *testing.T) {
	claims, err := ValidateRawToken(signToken(t, models.RoleCustomer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != models.RoleCustomer {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRawTokenNormalizesLegacyRoles(t *testing.T) {
	for _, legacy := range []string{"shop", "shopowner", models.RoleShopOwner} {
		claims, err := ValidateRawToken(signToken(t, legacy))
		if err != nil {
			t.Fatalf("role %q: %v", legacy, err)
		}
		if claims.Role != models.RoleShopOwner {
			t.Errorf("role %q normalized to %q", legacy, claims.Role)
		}
	}
}

func TestValidateRawTokenRejectsUnknownRole(t *testing.T) {
	if _, err := ValidateRawToken(signToken(t, "superuser")); err == nil {
		t.Fatal("unknown role accepted")
	}
}

func TestValidateJWTRequiresBearerPrefix(t *testing.T) {
	raw := signToken(t, models.RoleCustomer)
	if _, err := ValidateJWT(raw); err == nil {
		t.Fatal("bare token accepted without Bearer prefix")
	}
	if _, err := ValidateJWT("Bearer " + raw); err != nil {
		t.Fatalf("bearer token rejected: %v", err)
	}
}

func TestAuthenticateRejectsMissingCredential(t *testing.T) {
	called := false
	h := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
	})

	r := httptest.NewRequest(http.MethodPost, "/api/payments", nil)
	w := httptest.NewRecorder()
	h(w, r, nil)

	if called {
		t.Fatal("handler ran without a credential")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", w.Code)
	}
}

func TestAuthenticateRejectsSpoofedUpgrade(t *testing.T) {
	// Upgrade headers alone must not open a side door past token validation.
	called := false
	h := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
	})

	r := httptest.NewRequest(http.MethodPost, "/api/payments", nil)
	r.Header.Set("Connection", "Upgrade")
	r.Header.Set("Upgrade", "websocket")
	r.Header.Set("Sec-WebSocket-Version", "13")
	r.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	w := httptest.NewRecorder()
	h(w, r, nil)

	if called {
		t.Fatal("handler ran on an unauthenticated upgrade request")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", w.Code)
	}
}

func TestAuthenticateInjectsPrincipal(t *testing.T) {
	var gotUser, gotRole string
	h := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gotUser, _ = r.Context().Value(globals.UserIDKey).(string)
		gotRole, _ = r.Context().Value(globals.RoleKey).(string)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleCustomer))
	w := httptest.NewRecorder()
	h(w, r, nil)

	if gotUser != "u1" || gotRole != models.RoleCustomer {
		t.Fatalf("principal = %q/%q", gotUser, gotRole)
	}
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	claims := Claims{
		UserID: "u1",
		Role:   models.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := ValidateRawToken(raw); err == nil {
		t.Fatal("expired token accepted")
	}
}
