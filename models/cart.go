package models

import "time"

// CartItem is one service queued for checkout. All items of a cart must
// reference the same shop.
type CartItem struct {
	ItemID      string  `json:"itemId" bson:"itemId"`
	ShopID      string  `json:"shopId" bson:"shopId"`
	ShopName    string  `json:"shopName,omitempty" bson:"shopName,omitempty"`
	ServiceName string  `json:"serviceName" bson:"serviceName"`
	Price       float64 `json:"price" bson:"price"`
}

// Cart holds at most one document per customer.
type Cart struct {
	CartID     string     `json:"cartId" bson:"cartId"`
	CustomerID string     `json:"customerId" bson:"customerId"`
	Items      []CartItem `json:"items" bson:"items"`
	Total      float64    `json:"total" bson:"total"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// RecomputeTotal re-derives Total from the item prices. Call after every
// mutation of Items; Total is never accepted from a client.
func (c *Cart) RecomputeTotal() {
	var sum float64
	for _, it := range c.Items {
		sum += it.Price
	}
	c.Total = sum
}
