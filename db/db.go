package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection     *mongo.Collection
	ShopsCollection    *mongo.Collection
	CartsCollection    *mongo.Collection
	BookingsCollection *mongo.Collection
	PaymentsCollection *mongo.Collection
	ProductsCollection *mongo.Collection
	ReviewsCollection  *mongo.Collection
	SettingsCollection *mongo.Collection
	Client             *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("looksdb")
	UserCollection = database.Collection("users")
	ShopsCollection = database.Collection("shops")
	CartsCollection = database.Collection("carts")
	BookingsCollection = database.Collection("bookings")
	PaymentsCollection = database.Collection("payments")
	ProductsCollection = database.Collection("products")
	ReviewsCollection = database.Collection("reviews")
	SettingsCollection = database.Collection("settings")
}

// EnsureIndexes creates the uniqueness constraints the app relies on:
// one cart per customer, unique emails, unique payment transaction refs.
func EnsureIndexes(ctx context.Context) error {
	_, err := UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    map[string]interface{}{"email": 1},
		Options: options.Index().SetUnique(true).SetName("unique_email"),
	})
	if err != nil {
		return err
	}
	_, err = CartsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    map[string]interface{}{"customerId": 1},
		Options: options.Index().SetUnique(true).SetName("unique_customer_cart"),
	})
	if err != nil {
		return err
	}
	_, err = PaymentsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    map[string]interface{}{"transactionRef": 1},
		Options: options.Index().SetUnique(true).SetName("unique_transaction_ref"),
	})
	return err
}
