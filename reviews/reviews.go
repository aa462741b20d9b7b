package reviews

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

// GetReviews lists reviews for a shop. Public.
func GetReviews(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	skip, limit := utils.ParsePagination(r, 10, 100)
	reviews, err := utils.FindAndDecode[models.Review](ctx, db.ReviewsCollection,
		bson.M{"shopId": ps.ByName("shopId")},
		options.Find().SetSort(bson.M{"createdAt": -1}).SetSkip(skip).SetLimit(limit))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"reviews": reviews})
}

// AddReview creates a review; one per customer per shop.
func AddReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	shopID := ps.ByName("shopId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := shops.FindByID(ctx, shopID); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Shop not found")
		return
	}

	count, err := db.ReviewsCollection.CountDocuments(ctx, bson.M{"customer": userID, "shopId": shopID})
	if err != nil {
		log.Printf("AddReview count error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add review")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "You have already reviewed this shop")
		return
	}

	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Rating < 1 || input.Rating > 5 {
		utils.RespondWithError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	now := time.Now()
	review := models.Review{
		ReviewID:  utils.GenerateRandomString(16),
		Customer:  userID,
		ShopID:    shopID,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := db.ReviewsCollection.InsertOne(ctx, review); err != nil {
		log.Printf("AddReview insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add review")
		return
	}

	shops.RecomputeRating(ctx, shopID)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Review added",
		"review":  review,
	})
}

// EditReview updates rating/comment; author or admin.
func EditReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)
	reviewID := ps.ByName("reviewId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var review models.Review
	if err := db.ReviewsCollection.FindOne(ctx, bson.M{"reviewid": reviewID}).Decode(&review); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Review not found")
		return
	}
	if review.Customer != userID && role != models.RoleAdmin {
		utils.RespondWithError(w, http.StatusForbidden, "Not authorized for this action")
		return
	}

	var input struct {
		Rating  *int    `json:"rating"`
		Comment *string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			utils.RespondWithError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
			return
		}
		update["rating"] = *input.Rating
	}
	if input.Comment != nil {
		update["comment"] = strings.TrimSpace(*input.Comment)
	}

	if _, err := db.ReviewsCollection.UpdateOne(ctx, bson.M{"reviewid": reviewID}, bson.M{"$set": update}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update review")
		return
	}

	shops.RecomputeRating(ctx, review.ShopID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Review updated"})
}

// DeleteReview removes a review; author or admin.
func DeleteReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)
	reviewID := ps.ByName("reviewId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var review models.Review
	if err := db.ReviewsCollection.FindOne(ctx, bson.M{"reviewid": reviewID}).Decode(&review); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Review not found")
		return
	}
	if review.Customer != userID && role != models.RoleAdmin {
		utils.RespondWithError(w, http.StatusForbidden, "Not authorized for this action")
		return
	}

	if _, err := db.ReviewsCollection.DeleteOne(ctx, bson.M{"reviewid": reviewID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete review")
		return
	}

	shops.RecomputeRating(ctx, review.ShopID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Review deleted"})
}
