package shops

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"lookshq/db"
	"lookshq/models"
	"lookshq/rdx"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const listCacheKey = "shops:list"

// cleanServices drops malformed catalog entries, mirroring what the write
// paths accept: a name and a positive price.
func cleanServices(in []models.ShopService) []models.ShopService {
	out := make([]models.ShopService, 0, len(in))
	for _, s := range in {
		s.ServiceName = strings.TrimSpace(s.ServiceName)
		if s.ServiceName == "" || s.Price <= 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// FindByID loads a shop or returns mongo's not-found error.
func FindByID(ctx context.Context, shopID string) (models.Shop, error) {
	var shop models.Shop
	err := db.ShopsCollection.FindOne(ctx, bson.M{"shopid": shopID}).Decode(&shop)
	return shop, err
}

// OwnedShopIDs returns the ids of all shops owned by userID.
func OwnedShopIDs(ctx context.Context, userID string) ([]string, error) {
	shops, err := utils.FindAndDecode[models.Shop](ctx, db.ShopsCollection, bson.M{"owner": userID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(shops))
	for _, s := range shops {
		ids = append(ids, s.ShopID)
	}
	return ids, nil
}

// CreateShop registers a new shop under the logged-in owner.
func CreateShop(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)

	var input struct {
		Name        string               `json:"name"`
		Location    string               `json:"location"`
		Description string               `json:"description"`
		Services    []models.ShopService `json:"services"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Location = strings.TrimSpace(input.Location)
	if input.Name == "" || input.Location == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Name and location are required")
		return
	}

	now := time.Now()
	shop := models.Shop{
		ShopID:      utils.GetUUID(),
		Owner:       userID,
		Name:        input.Name,
		Location:    input.Location,
		Description: strings.TrimSpace(input.Description),
		Services:    cleanServices(input.Services),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := db.ShopsCollection.InsertOne(ctx, shop); err != nil {
		log.Println("CreateShop insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating shop")
		return
	}

	rdx.CacheDel(ctx, listCacheKey)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Shop created successfully",
		"shop":    shop,
	})
}

// EditShop updates shop fields; owner or admin only.
func EditShop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)
	shopID := ps.ByName("shopId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	shop, err := FindByID(ctx, shopID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Shop not found")
		return
	}
	if shop.Owner != userID && role != models.RoleAdmin {
		utils.RespondWithError(w, http.StatusForbidden, "You are not authorized to perform this action")
		return
	}

	var input struct {
		Name        *string               `json:"name"`
		Location    *string               `json:"location"`
		Description *string               `json:"description"`
		Services    *[]models.ShopService `json:"services"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		update["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Location != nil && strings.TrimSpace(*input.Location) != "" {
		update["location"] = strings.TrimSpace(*input.Location)
	}
	if input.Description != nil {
		update["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Services != nil {
		update["services"] = cleanServices(*input.Services)
	}

	var updated models.Shop
	err = db.ShopsCollection.FindOneAndUpdate(ctx,
		bson.M{"shopid": shopID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error updating shop")
		return
	}

	rdx.CacheDel(ctx, listCacheKey)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Shop updated successfully",
		"shop":    updated,
	})
}

// DeleteShop removes a shop; owner or admin only.
func DeleteShop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)
	shopID := ps.ByName("shopId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	shop, err := FindByID(ctx, shopID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Shop not found")
		return
	}
	if shop.Owner != userID && role != models.RoleAdmin {
		utils.RespondWithError(w, http.StatusForbidden, "You are not authorized to perform this action")
		return
	}

	if _, err := db.ShopsCollection.DeleteOne(ctx, bson.M{"shopid": shopID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error deleting shop")
		return
	}

	rdx.CacheDel(ctx, listCacheKey)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Shop deleted successfully"})
}
