package models

import (
	"github.com/uptrace/bun"
)

type CustomizationCategory struct {
	bun.BaseModel `bun:"table:customization_categories"`

	ID            string `bun:"id,pk" json:"id"`
	MenuItemID    string `bun:"menu_item_id,notnull" json:"menu_item_id"`
	Name          string `bun:"name,notnull" json:"name"`
	Required      bool   `bun:"required,notnull" json:"required"`
	MinSelections int    `bun:"min_selections,notnull" json:"min_selections"`
	MaxSelections int    `bun:"max_selections,notnull" json:"max_selections"`
	DisplayOrder  int    `bun:"display_order,notnull" json:"display_order"`

	Options []*CustomizationOption `bun:"rel:has-many,join:id=customization_category_id" json:"options,omitempty"`
}

type CustomizationOption struct {
	bun.BaseModel `bun:"table:customization_options"`

	ID                      string  `bun:"id,pk" json:"id"`
	CustomizationCategoryID string  `bun:"customization_category_id,notnull" json:"customization_category_id"`
	Name                    string  `bun:"name,notnull" json:"name"`
	ExtraPrice              float64 `bun:"extra_price,notnull" json:"extra_price"`
	DefaultSelected         bool    `bun:"default_selected,notnull" json:"default_selected"`
	Available               bool    `bun:"available,notnull" json:"available"`
	DisplayOrder            int     `bun:"display_order,notnull" json:"display_order"`
}
