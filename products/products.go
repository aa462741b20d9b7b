package products

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"lookshq/db"
	"lookshq/models"
	"lookshq/shops"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ownsProductShop checks that the principal owns the shop a product belongs
// to (admins pass unconditionally).
func ownsProductShop(ctx context.Context, shopID, userID, role string) bool {
	if role == models.RoleAdmin {
		return true
	}
	shop, err := shops.FindByID(ctx, shopID)
	return err == nil && shop.Owner == userID
}

// CreateProduct adds a catalog product to one of the caller's shops.
func CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)

	var input struct {
		ShopID      string  `json:"shopId"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Stock       int     `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.ShopID == "" || input.Name == "" || input.Price <= 0 || input.Stock < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "shopId, name, a positive price and a non-negative stock are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if !ownsProductShop(ctx, input.ShopID, userID, role) {
		utils.RespondWithError(w, http.StatusForbidden, "You are not authorized to perform this action")
		return
	}

	now := time.Now()
	product := models.Product{
		ProductID:   utils.GetUUID(),
		ShopID:      input.ShopID,
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := db.ProductsCollection.InsertOne(ctx, product); err != nil {
		log.Println("CreateProduct insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating product")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Product created successfully",
		"product": product,
	})
}

// GetProducts lists products, optionally filtered by ?shop=. Public.
func GetProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if shopID := r.URL.Query().Get("shop"); shopID != "" {
		filter["shopId"] = shopID
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	items, err := utils.FindAndDecode[models.Product](ctx, db.ProductsCollection, filter,
		options.Find().SetSort(bson.M{"createdAt": -1}).SetSkip(skip).SetLimit(limit))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"products": items})
}

// GetProductByID returns one product. Public.
func GetProductByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	err := db.ProductsCollection.FindOne(ctx, bson.M{"productid": ps.ByName("productId")}).Decode(&product)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"product": product})
}

// EditProduct updates product fields; owning shop owner or admin.
func EditProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)
	productID := ps.ByName("productId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	if err := db.ProductsCollection.FindOne(ctx, bson.M{"productid": productID}).Decode(&product); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	if !ownsProductShop(ctx, product.ShopID, userID, role) {
		utils.RespondWithError(w, http.StatusForbidden, "You are not authorized to perform this action")
		return
	}

	var input struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Stock       *int     `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		update["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		update["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Price must be positive")
			return
		}
		update["price"] = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Stock cannot be negative")
			return
		}
		update["stock"] = *input.Stock
	}

	var updated models.Product
	err := db.ProductsCollection.FindOneAndUpdate(ctx,
		bson.M{"productid": productID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error updating product")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Product updated successfully",
		"product": updated,
	})
}

// DeleteProduct removes a product; owning shop owner or admin.
func DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)
	productID := ps.ByName("productId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	if err := db.ProductsCollection.FindOne(ctx, bson.M{"productid": productID}).Decode(&product); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	if !ownsProductShop(ctx, product.ShopID, userID, role) {
		utils.RespondWithError(w, http.StatusForbidden, "You are not authorized to perform this action")
		return
	}

	if _, err := db.ProductsCollection.DeleteOne(ctx, bson.M{"productid": productID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error deleting product")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Product deleted successfully"})
}
