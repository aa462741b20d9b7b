package cart

import (
	"testing"

	"lookshq/apperr"
	"lookshq/models"
)

func item(shop, service string, price float64) models.CartItem {
	return models.CartItem{ItemID: service, ShopID: shop, ServiceName: service, Price: price}
}

func TestValidateAddRejectsSecondShop(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{item("shopA", "Haircut", 500)}}
	err := validateAdd(c, item("shopB", "Shave", 200))
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestValidateAddRejectsDuplicateService(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{item("shopA", "Haircut", 500)}}
	err := validateAdd(c, item("shopA", "Haircut", 500))
	if !apperr.IsKind(err, apperr.DuplicateItem) {
		t.Fatalf("expected duplicate item, got %v", err)
	}
}

func TestValidateAddAllowsSameShopNewService(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{item("shopA", "Haircut", 500)}}
	if err := validateAdd(c, item("shopA", "Shave", 200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecomputeTotal(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{
		item("shopA", "Haircut", 500),
		item("shopA", "Shave", 200),
	}}
	c.RecomputeTotal()
	if c.Total != 700 {
		t.Fatalf("total = %v, want 700", c.Total)
	}

	c.Items = c.Items[:1]
	c.RecomputeTotal()
	if c.Total != 500 {
		t.Fatalf("total after removal = %v, want 500", c.Total)
	}

	c.Items = nil
	c.RecomputeTotal()
	if c.Total != 0 {
		t.Fatalf("total of empty cart = %v, want 0", c.Total)
	}
}
