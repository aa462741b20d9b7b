package models

import "time"

// Product is a retail catalog item sold by a shop, separate from the
// bookable services list.
type Product struct {
	ProductID   string    `json:"productid" bson:"productid"`
	ShopID      string    `json:"shopId" bson:"shopId"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	Stock       int       `json:"stock" bson:"stock"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}
