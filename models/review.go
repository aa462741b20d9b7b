package models

import "time"

// Review is one customer's rating of a shop; a customer may hold at most
// one review per shop.
type Review struct {
	ReviewID  string    `json:"reviewid" bson:"reviewid"`
	Customer  string    `json:"customer" bson:"customer"`
	ShopID    string    `json:"shopId" bson:"shopId"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
