package shops

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"lookshq/db"
	"lookshq/models"
	"lookshq/rdx"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetShops lists every shop. Public; served from the Redis cache when warm.
func GetShops(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if cached := rdx.CacheGet(ctx, listCacheKey); cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(cached))
		return
	}

	shops, err := utils.FindAndDecode[models.Shop](ctx, db.ShopsCollection, bson.M{},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		log.Println("GetShops find error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching shops")
		return
	}

	payload := map[string]any{"shops": shops}
	if data, err := json.Marshal(payload); err == nil {
		rdx.CacheSet(ctx, listCacheKey, string(data), 60*time.Second)
	}

	utils.RespondWithJSON(w, http.StatusOK, payload)
}

// GetMyShops lists shops owned by the logged-in user.
func GetMyShops(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	shops, err := utils.FindAndDecode[models.Shop](ctx, db.ShopsCollection,
		bson.M{"owner": userID},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching your shops")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"shops": shops})
}

// GetShopByID returns a single shop. Public.
func GetShopByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	shop, err := FindByID(ctx, ps.ByName("shopId"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Shop not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"shop": shop})
}

// RecomputeRating refreshes the review rollup on a shop. Called by the
// reviews package after any review write.
func RecomputeRating(ctx context.Context, shopID string) {
	reviews, err := utils.FindAndDecode[models.Review](ctx, db.ReviewsCollection, bson.M{"shopId": shopID})
	if err != nil {
		log.Println("RecomputeRating find error:", err)
		return
	}

	var rating float64
	if len(reviews) > 0 {
		var sum int
		for _, rv := range reviews {
			sum += rv.Rating
		}
		rating = float64(sum) / float64(len(reviews))
	}

	_, err = db.ShopsCollection.UpdateOne(ctx,
		bson.M{"shopid": shopID},
		bson.M{"$set": bson.M{"rating": rating, "reviewCount": len(reviews)}},
	)
	if err != nil {
		log.Println("RecomputeRating update error:", err)
	}
}
