package models

import (
	"time"

	"github.com/uptrace/bun"
)

type SubscriptionStatus string

const (
	SubscriptionTrial   SubscriptionStatus = "trial"
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants"`

	ID                    string             `bun:"id,pk" json:"id"`
	OwnerID               string             `bun:"owner_id,notnull" json:"owner_id"`
	Name                  string             `bun:"name,notnull" json:"name"`
	Slug                  string             `bun:"slug,unique,notnull" json:"slug"`
	Email                 string             `bun:"email,unique,notnull" json:"email"`
	Phone                 string             `bun:"phone,nullzero" json:"phone,omitempty"`
	Address               string             `bun:"address,nullzero" json:"address,omitempty"`
	LogoURL               string             `bun:"logo_url,nullzero" json:"logo_url,omitempty"`
	SubscriptionStatus    SubscriptionStatus `bun:"subscription_status,notnull" json:"subscription_status"`
	SubscriptionExpiresAt time.Time          `bun:"subscription_expires_at,nullzero" json:"subscription_expires_at,omitempty"`
	CreatedAt             time.Time          `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt             time.Time          `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type RestaurantRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	LogoURL string `json:"logo_url,omitempty"`
}
