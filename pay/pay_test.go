package pay

import (
	"math"
	"regexp"
	"testing"

	"lookshq/models"
)

func TestApplySplitExactness(t *testing.T) {
	var p models.Payment
	if err := p.ApplySplit(700, 0.05); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Commission != 35 {
		t.Errorf("commission = %v, want 35", p.Commission)
	}
	if p.ShopEarning != 665 {
		t.Errorf("shopEarning = %v, want 665", p.ShopEarning)
	}
	if p.Commission+p.ShopEarning != p.Amount {
		t.Errorf("split does not sum back to amount: %v + %v != %v", p.Commission, p.ShopEarning, p.Amount)
	}
}

func TestApplySplitSumsForAwkwardAmounts(t *testing.T) {
	amounts := []float64{0, 0.01, 333.33, 1999.99, 1e9}
	for _, amount := range amounts {
		var p models.Payment
		if err := p.ApplySplit(amount, 0.05); err != nil {
			t.Fatalf("ApplySplit(%v): %v", amount, err)
		}
		if p.Commission+p.ShopEarning != amount {
			t.Errorf("amount %v: %v + %v != %v", amount, p.Commission, p.ShopEarning, amount)
		}
	}
}

func TestApplySplitRejectsGarbage(t *testing.T) {
	var p models.Payment
	if err := p.ApplySplit(math.NaN(), 0.05); err == nil {
		t.Error("NaN amount accepted")
	}
	if err := p.ApplySplit(math.Inf(1), 0.05); err == nil {
		t.Error("Inf amount accepted")
	}
	if err := p.ApplySplit(-10, 0.05); err == nil {
		t.Error("negative amount accepted")
	}
	if err := p.ApplySplit(100, -0.1); err == nil {
		t.Error("negative rate accepted")
	}
	if err := p.ApplySplit(100, 1.5); err == nil {
		t.Error("rate above 1 accepted")
	}
}

func TestApplySplitOverwritesClientValues(t *testing.T) {
	p := models.Payment{Commission: 999, ShopEarning: 999}
	if err := p.ApplySplit(100, 0.05); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Commission != 5 || p.ShopEarning != 95 {
		t.Errorf("client-sent split survived: commission=%v shopEarning=%v", p.Commission, p.ShopEarning)
	}
}

func TestTransactionRefFormat(t *testing.T) {
	pat := regexp.MustCompile(`^TXN-\d+-\d{4}$`)
	for i := 0; i < 20; i++ {
		ref := models.NewTransactionRef()
		if !pat.MatchString(ref) {
			t.Fatalf("ref %q does not match TXN-<ts>-<4 digits>", ref)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("COMMISSION_RATE", "")
	if got := ConfigFromEnv().CommissionRate; got != 0.05 {
		t.Errorf("default rate = %v, want 0.05", got)
	}

	t.Setenv("COMMISSION_RATE", "0.1")
	if got := ConfigFromEnv().CommissionRate; got != 0.1 {
		t.Errorf("rate = %v, want 0.1", got)
	}

	t.Setenv("COMMISSION_RATE", "2")
	if got := ConfigFromEnv().CommissionRate; got != 0.05 {
		t.Errorf("out-of-range rate accepted: %v", got)
	}

	t.Setenv("COMMISSION_RATE", "banana")
	if got := ConfigFromEnv().CommissionRate; got != 0.05 {
		t.Errorf("garbage rate accepted: %v", got)
	}
}
