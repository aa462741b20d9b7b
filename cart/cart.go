// Package cart accumulates service line items for one customer against one
// shop. A cart is the only mutable stage of the funnel; checkout converts it
// into an immutable booking and deletes it.
package cart

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"lookshq/apperr"
	"lookshq/db"
	"lookshq/models"
	"lookshq/shops"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// validateAdd enforces the two cart invariants: all items reference one
// shop, and no exact (shop, serviceName) pair appears twice.
func validateAdd(c *models.Cart, item models.CartItem) error {
	for _, existing := range c.Items {
		if existing.ShopID != item.ShopID {
			return apperr.New(apperr.Conflict, "Cart already holds services from another shop")
		}
		if existing.ServiceName == item.ServiceName {
			return apperr.New(apperr.DuplicateItem, "Service already in cart")
		}
	}
	return nil
}

// AddToCart fetches or creates the customer's single cart and appends one
// service to it.
func AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID := utils.GetUserIDFromRequest(r)

	var input struct {
		Shop        string  `json:"shop"`
		ServiceName string  `json:"serviceName"`
		Price       float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	input.ServiceName = strings.TrimSpace(input.ServiceName)
	if input.Shop == "" || input.ServiceName == "" || input.Price <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Shop, serviceName, and a positive price are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	shop, err := shops.FindByID(ctx, input.Shop)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Shop not found")
		return
	}

	item := models.CartItem{
		ItemID:      utils.GenerateRandomString(16),
		ShopID:      shop.ShopID,
		ShopName:    shop.Name,
		ServiceName: input.ServiceName,
		Price:       input.Price,
	}

	now := time.Now()
	var c models.Cart
	err = db.CartsCollection.FindOne(ctx, bson.M{"customerId": customerID}).Decode(&c)
	switch {
	case err == mongo.ErrNoDocuments:
		c = models.Cart{
			CartID:     utils.GetUUID(),
			CustomerID: customerID,
			Items:      []models.CartItem{item},
			CreatedAt:  now,
		}
	case err != nil:
		log.Println("AddToCart find error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error adding to cart")
		return
	default:
		if verr := validateAdd(&c, item); verr != nil {
			utils.RespondWithAppError(w, verr)
			return
		}
		c.Items = append(c.Items, item)
	}

	c.RecomputeTotal()
	c.UpdatedAt = now

	_, err = db.CartsCollection.UpdateOne(ctx,
		bson.M{"customerId": customerID},
		bson.M{"$set": c},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Println("AddToCart upsert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error adding to cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Service added to cart",
		"cart":    c,
	})
}

// GetCart returns the customer's cart, or an explicit empty cart when none
// exists. An absent cart is not an error.
func GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID := utils.GetUserIDFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var c models.Cart
	err := db.CartsCollection.FindOne(ctx, bson.M{"customerId": customerID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"items": []models.CartItem{}, "total": 0})
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, c)
}

// RemoveFromCart filters one item out by id and recomputes the total.
func RemoveFromCart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	customerID := utils.GetUserIDFromRequest(r)
	itemID := ps.ByName("itemId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var c models.Cart
	err := db.CartsCollection.FindOne(ctx, bson.M{"customerId": customerID}).Decode(&c)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Cart not found")
		return
	}

	kept := make([]models.CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ItemID != itemID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.RecomputeTotal()
	c.UpdatedAt = time.Now()

	_, err = db.CartsCollection.UpdateOne(ctx,
		bson.M{"customerId": customerID},
		bson.M{"$set": bson.M{"items": c.Items, "total": c.Total, "updatedAt": c.UpdatedAt}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error removing from cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Item removed from cart",
		"cart":    c,
	})
}

// ClearCart deletes the cart entirely. Idempotent.
func ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID := utils.GetUserIDFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := db.CartsCollection.DeleteOne(ctx, bson.M{"customerId": customerID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error clearing cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Cart cleared successfully"})
}
