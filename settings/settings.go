package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lookshq/db"
	"lookshq/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserSettings represents user settings
type UserSettings struct {
	UserID        string `json:"userID,omitempty" bson:"userID"`
	Theme         string `json:"theme" bson:"theme"`
	Notifications bool   `json:"notifications" bson:"notifications"`
	Language      string `json:"language" bson:"language"`
	TimeZone      string `json:"time_zone" bson:"time_zone"`
	SMSReminders  bool   `json:"sms_reminders" bson:"sms_reminders"`
}

// Default settings if user settings don't exist
func getDefaultSettings(userID string) UserSettings {
	return UserSettings{
		UserID:        userID,
		Theme:         "light",
		Notifications: true,
		Language:      "english",
		TimeZone:      "Africa/Nairobi",
		SMSReminders:  true,
	}
}

var validSettings = map[string]bool{
	"theme":         true,
	"notifications": true,
	"language":      true,
	"time_zone":     true,
	"sms_reminders": true,
}

// GetUserSettings fetches settings, initializing defaults on first read.
func GetUserSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var userSettings UserSettings
	err := db.SettingsCollection.FindOne(ctx, bson.M{"userID": userID}).Decode(&userSettings)
	if err == mongo.ErrNoDocuments {
		userSettings = getDefaultSettings(userID)
		_, _ = db.SettingsCollection.InsertOne(ctx, userSettings)
	} else if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"settings": userSettings})
}

// UpdateUserSetting updates one whitelisted setting key.
func UpdateUserSetting(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	settingType := ps.ByName("type")

	if !validSettings[settingType] {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown setting")
		return
	}

	var input struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Value == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "A value is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Upsert so a first-time write lands on the defaults.
	defaults := getDefaultSettings(userID)
	setOnInsert := bson.M{"userID": defaults.UserID}
	for key, val := range map[string]any{
		"theme":         defaults.Theme,
		"notifications": defaults.Notifications,
		"language":      defaults.Language,
		"time_zone":     defaults.TimeZone,
		"sms_reminders": defaults.SMSReminders,
	} {
		if key != settingType {
			setOnInsert[key] = val
		}
	}

	_, err := db.SettingsCollection.UpdateOne(ctx,
		bson.M{"userID": userID},
		bson.M{
			"$set":         bson.M{settingType: input.Value},
			"$setOnInsert": setOnInsert,
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update setting")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Setting updated"})
}

// ResetUserSettings restores defaults.
func ResetUserSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	defaults := getDefaultSettings(userID)
	_, err := db.SettingsCollection.ReplaceOne(ctx, bson.M{"userID": userID}, defaults,
		options.Replace().SetUpsert(true))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to reset settings")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message":  "Settings reset",
		"settings": defaults,
	})
}
