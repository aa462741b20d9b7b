package models

import "time"

// ShopService is one bookable line item in a shop's catalog. Names are not
// unique within a shop; the catalog is an ordered list, not a set.
type ShopService struct {
	ServiceName string  `json:"serviceName" bson:"serviceName"`
	Price       float64 `json:"price" bson:"price"`
}

type Shop struct {
	ShopID      string        `json:"shopid" bson:"shopid"`
	Owner       string        `json:"owner" bson:"owner"`
	Name        string        `json:"name" bson:"name"`
	Location    string        `json:"location" bson:"location"`
	Description string        `json:"description,omitempty" bson:"description,omitempty"`
	Services    []ShopService `json:"services" bson:"services"`
	Rating      float64       `json:"rating" bson:"rating"`
	ReviewCount int           `json:"reviewCount" bson:"reviewCount"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}
