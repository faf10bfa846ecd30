// Package customization validates customer option selections against the
// customization rules configured on a menu item and prices the result.
package customization

import (
	"fmt"

	"qrmenu/internal/models"
)

// Selection maps a customization category ID to the chosen option IDs.
type Selection map[string][]string

// Validate checks a proposed selection against the given categories and
// returns a per-category error map. An empty map means the selection is
// valid. The UI disables over-selection proactively; the max check here is
// the authoritative one.
func Validate(categories []*models.CustomizationCategory, sel Selection) map[string]string {
	errs := make(map[string]string)

	for _, cat := range categories {
		picks := sel[cat.ID]

		available := make(map[string]bool, len(cat.Options))
		for _, opt := range cat.Options {
			available[opt.ID] = opt.Available
		}
		for _, id := range picks {
			avail, known := available[id]
			if !known {
				errs[cat.ID] = fmt.Sprintf("unknown option %q", id)
				break
			}
			if !avail {
				errs[cat.ID] = fmt.Sprintf("option %q is not available", id)
				break
			}
		}
		if _, bad := errs[cat.ID]; bad {
			continue
		}

		min := cat.MinSelections
		if cat.Required && min < 1 {
			min = 1
		}
		if cat.Required && len(picks) < min {
			errs[cat.ID] = fmt.Sprintf("requires at least %d selection(s)", min)
			continue
		}
		if cat.MaxSelections > 0 && len(picks) > cat.MaxSelections {
			errs[cat.ID] = fmt.Sprintf("allows at most %d selection(s)", cat.MaxSelections)
		}
	}

	return errs
}

// PriceDelta sums the extra price over exactly the selected option IDs.
// Unselected options contribute nothing, default flags included.
func PriceDelta(categories []*models.CustomizationCategory, sel Selection) float64 {
	prices := make(map[string]float64)
	for _, cat := range categories {
		for _, opt := range cat.Options {
			prices[opt.ID] = opt.ExtraPrice
		}
	}

	var delta float64
	for _, picks := range sel {
		for _, id := range picks {
			delta += prices[id]
		}
	}
	return delta
}
