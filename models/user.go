package models

import (
	"fmt"
	"time"
)

// Canonical roles. Older clients and tokens may still carry "shop" or
// "shopowner"; NormalizeRole collapses those before anything trusts them.
const (
	RoleCustomer  = "customer"
	RoleShopOwner = "shop_owner"
	RoleAdmin     = "admin"
)

func NormalizeRole(role string) (string, error) {
	switch role {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleShopOwner, "shop", "shopowner":
		return RoleShopOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

type User struct {
	UserID       string    `json:"userid" bson:"userid"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	Password     string    `json:"-" bson:"password"`
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Role         string    `json:"role" bson:"role"`
	ProfileImage string    `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	RefreshHash  string    `json:"-" bson:"refresh_hash,omitempty"`
	LastLogin    time.Time `json:"-" bson:"last_login,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}
