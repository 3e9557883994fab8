package service

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"catalogadmin/pkg/catalog/domain/model"
)

const (
	minTextLength = 3
	maxRating     = 5
	maxDiscount   = 100
)

func validateID(id int) error {
	if id <= 0 {
		return &model.ValidationError{Violations: []model.Violation{{Field: "id", Reason: "must be a positive number"}}}
	}
	return nil
}

func validateProduct(p model.Product) error {
	return validatePatch(p.AsPatch())
}

func validateUpdate(patch model.ProductPatch) error {
	if patch.IsEmpty() {
		return &model.ValidationError{Violations: []model.Violation{{Field: "patch", Reason: "at least one field is required"}}}
	}
	return validatePatch(patch)
}

// validatePatch checks present fields only.
func validatePatch(patch model.ProductPatch) error {
	verr := &model.ValidationError{}

	if title, ok := patch.Title.Get(); ok && textTooShort(title) {
		verr.Add("title", "must be at least 3 characters long")
	}
	if category, ok := patch.Category.Get(); ok && textTooShort(category) {
		verr.Add("category", "must be at least 3 characters long")
	}
	if price, ok := patch.Price.Get(); ok && !price.GreaterThan(decimal.Zero) {
		verr.Add("price", "must be a positive number")
	}
	if rating, ok := patch.Rating.Get(); ok && outOfRange(rating, maxRating) {
		verr.Add("rating", "must be between 0 and 5")
	}
	if discount, ok := patch.DiscountPercentage.Get(); ok && outOfRange(discount, maxDiscount) {
		verr.Add("discountPercentage", "must be between 0 and 100")
	}
	if stock, ok := patch.Stock.Get(); ok && stock < 0 {
		verr.Add("stock", "cannot be negative")
	}
	if tags, ok := patch.Tags.Get(); ok {
		for _, tag := range tags {
			if strings.TrimSpace(tag) == "" {
				verr.Add("tags", "cannot contain empty tags")
				break
			}
		}
	}

	return verr.OrNil()
}

func textTooShort(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) < minTextLength
}

// outOfRange reports whether v falls outside [0, upper]. NaN and infinities are always out.
func outOfRange(v, upper float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return true
	}
	return v < 0 || v > upper
}
