package customization

import (
	"testing"

	"qrmenu/internal/models"

	"github.com/stretchr/testify/assert"
)

func sizeAndToppings() []*models.CustomizationCategory {
	return []*models.CustomizationCategory{
		{
			ID:            "size",
			Name:          "Size",
			Required:      true,
			MaxSelections: 1,
			Options: []*models.CustomizationOption{
				{ID: "small", Name: "Small", ExtraPrice: 0, Available: true},
				{ID: "large", Name: "Large", ExtraPrice: 3.00, Available: true},
			},
		},
		{
			ID:            "toppings",
			Name:          "Toppings",
			MaxSelections: 3,
			Options: []*models.CustomizationOption{
				{ID: "olives", Name: "Olives", ExtraPrice: 0.50, Available: true},
				{ID: "mushrooms", Name: "Mushrooms", ExtraPrice: 0.75, Available: true},
				{ID: "pepperoni", Name: "Pepperoni", ExtraPrice: 1.25, DefaultSelected: true, Available: true},
				{ID: "onions", Name: "Onions", ExtraPrice: 0.25, Available: true},
			},
		},
	}
}

func TestValidate_AcceptsValidSelection(t *testing.T) {
	errs := Validate(sizeAndToppings(), Selection{
		"size":     {"large"},
		"toppings": {"olives", "mushrooms"},
	})
	assert.Empty(t, errs)
}

func TestValidate_UnknownOption(t *testing.T) {
	errs := Validate(sizeAndToppings(), Selection{
		"size":     {"large"},
		"toppings": {"pineapple"},
	})
	assert.Len(t, errs, 1)
	assert.Contains(t, errs["toppings"], "unknown option")
}

func TestValidate_UnavailableOption(t *testing.T) {
	cats := sizeAndToppings()
	cats[1].Options[0].Available = false // olives ran out

	errs := Validate(cats, Selection{
		"size":     {"large"},
		"toppings": {"olives"},
	})
	assert.Len(t, errs, 1)
	assert.Contains(t, errs["toppings"], "not available")
}

func TestValidate_RequiredCategoryNeedsAtLeastOne(t *testing.T) {
	// Required with min_selections 0 still demands one pick.
	errs := Validate(sizeAndToppings(), Selection{
		"toppings": {"olives"},
	})
	assert.Contains(t, errs["size"], "at least 1")
}

func TestValidate_RequiredMinSelections(t *testing.T) {
	cats := []*models.CustomizationCategory{
		{
			ID:            "sauces",
			Required:      true,
			MinSelections: 2,
			MaxSelections: 3,
			Options: []*models.CustomizationOption{
				{ID: "ketchup", Available: true},
				{ID: "mayo", Available: true},
				{ID: "bbq", Available: true},
			},
		},
	}
	errs := Validate(cats, Selection{"sauces": {"ketchup"}})
	assert.Contains(t, errs["sauces"], "at least 2")

	errs = Validate(cats, Selection{"sauces": {"ketchup", "mayo"}})
	assert.Empty(t, errs)
}

func TestValidate_MaxSelectionsEnforced(t *testing.T) {
	errs := Validate(sizeAndToppings(), Selection{
		"size":     {"small"},
		"toppings": {"olives", "mushrooms", "pepperoni", "onions"},
	})
	assert.Contains(t, errs["toppings"], "at most 3")
}

func TestValidate_OptionalCategoryMayBeEmpty(t *testing.T) {
	errs := Validate(sizeAndToppings(), Selection{"size": {"small"}})
	assert.Empty(t, errs)
}

func TestValidate_ZeroMaxMeansUnlimited(t *testing.T) {
	cats := []*models.CustomizationCategory{
		{
			ID: "extras",
			Options: []*models.CustomizationOption{
				{ID: "a", Available: true}, {ID: "b", Available: true}, {ID: "c", Available: true},
			},
		},
	}
	errs := Validate(cats, Selection{"extras": {"a", "b", "c"}})
	assert.Empty(t, errs)
}

func TestPriceDelta_SumsSelectedOptions(t *testing.T) {
	delta := PriceDelta(sizeAndToppings(), Selection{
		"size":     {"large"},
		"toppings": {"olives", "mushrooms"},
	})
	assert.Equal(t, 4.25, delta)
}

func TestPriceDelta_IgnoresDefaultsNotSelected(t *testing.T) {
	// Pepperoni is default_selected but the customer removed it, so its
	// price must not leak into the total.
	delta := PriceDelta(sizeAndToppings(), Selection{
		"size": {"small"},
	})
	assert.Equal(t, 0.0, delta)
}

func TestPriceDelta_EmptySelection(t *testing.T) {
	assert.Equal(t, 0.0, PriceDelta(sizeAndToppings(), nil))
}
