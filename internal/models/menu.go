package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type Menu struct {
	bun.BaseModel `bun:"table:menus"`

	ID           string    `bun:"id,pk" json:"id"`
	RestaurantID string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Description  string    `bun:"description,nullzero" json:"description,omitempty"`
	// Availability window, time-of-day as "HH:MM". Empty means always available.
	AvailableFrom  string `bun:"available_from,nullzero" json:"available_from,omitempty"`
	AvailableUntil string `bun:"available_until,nullzero" json:"available_until,omitempty"`
	// Comma-separated weekday numbers, 0=Sunday. Empty means every day.
	AvailableDays string    `bun:"available_days,nullzero" json:"available_days,omitempty"`
	Active        bool      `bun:"active,notnull" json:"active"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// AvailableAt reports whether the menu's availability window covers t.
// An empty window means always available; a from later than until wraps
// past midnight (e.g. 22:00-02:00).
func (m *Menu) AvailableAt(t time.Time) bool {
	if !m.Active {
		return false
	}

	if m.AvailableDays != "" {
		day := strconv.Itoa(int(t.Weekday()))
		found := false
		for _, d := range strings.Split(m.AvailableDays, ",") {
			if strings.TrimSpace(d) == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if m.AvailableFrom == "" || m.AvailableUntil == "" {
		return true
	}
	now := t.Format("15:04")
	if m.AvailableFrom <= m.AvailableUntil {
		return now >= m.AvailableFrom && now <= m.AvailableUntil
	}
	// Overnight window.
	return now >= m.AvailableFrom || now <= m.AvailableUntil
}

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID           string    `bun:"id,pk" json:"id"`
	RestaurantID string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
	MenuID       string    `bun:"menu_id,nullzero" json:"menu_id,omitempty"`
	Name         string    `bun:"name,notnull" json:"name"`
	DisplayOrder int       `bun:"display_order,notnull" json:"display_order"`
	Active       bool      `bun:"active,notnull" json:"active"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Items []*MenuItem `bun:"rel:has-many,join:id=category_id" json:"items,omitempty"`
}

type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID           string    `bun:"id,pk" json:"id"`
	RestaurantID string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
	CategoryID   string    `bun:"category_id,notnull" json:"category_id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Description  string    `bun:"description,nullzero" json:"description,omitempty"`
	Price        float64   `bun:"price,notnull" json:"price"`
	Available    bool      `bun:"available,notnull" json:"available"`
	ImageURL     string    `bun:"image_url,nullzero" json:"image_url,omitempty"`
	DisplayOrder int       `bun:"display_order,notnull" json:"display_order"`
	Customizable bool      `bun:"customizable,notnull" json:"customizable"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`

	Customizations []*CustomizationCategory `bun:"rel:has-many,join:id=menu_item_id" json:"customizations,omitempty"`
}

// PublicMenu is the assembled tree served to customers who scan a QR code.
type PublicMenu struct {
	Restaurant *Restaurant `json:"restaurant"`
	Menus      []*Menu     `json:"menus"`
	Categories []*Category `json:"categories"`
}

// DisplayOrderUpdate is one entry of a batch reorder request.
type DisplayOrderUpdate struct {
	ID           string `json:"id"`
	DisplayOrder int    `json:"display_order"`
}
