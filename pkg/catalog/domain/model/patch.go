package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ProductPatch carries the fields of a partial write. It has no identifier:
// the target of an update is always named by the caller, never by the body.
type ProductPatch struct {
	Title              Optional[string]
	Brand              Optional[string]
	Category           Optional[string]
	Price              Optional[decimal.Decimal]
	Rating             Optional[float64]
	Tags               Optional[[]string]
	Description        Optional[string]
	DiscountPercentage Optional[float64]
	Stock              Optional[int]
}

type patchWire struct {
	Title              *string          `json:"title,omitempty"`
	Brand              *string          `json:"brand,omitempty"`
	Category           *string          `json:"category,omitempty"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	Rating             *float64         `json:"rating,omitempty"`
	Tags               *[]string        `json:"tags,omitempty"`
	Description        *string          `json:"description,omitempty"`
	DiscountPercentage *float64         `json:"discountPercentage,omitempty"`
	Stock              *int             `json:"stock,omitempty"`
}

func (p ProductPatch) IsEmpty() bool {
	return !p.Title.IsSet() && !p.Brand.IsSet() && !p.Category.IsSet() &&
		!p.Price.IsSet() && !p.Rating.IsSet() && !p.Tags.IsSet() &&
		!p.Description.IsSet() && !p.DiscountPercentage.IsSet() && !p.Stock.IsSet()
}

// MarshalJSON emits present fields only. A field present with its zero value is still emitted.
func (p ProductPatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(patchWire{
		Title:              p.Title.Ptr(),
		Brand:              p.Brand.Ptr(),
		Category:           p.Category.Ptr(),
		Price:              p.Price.Ptr(),
		Rating:             p.Rating.Ptr(),
		Tags:               p.Tags.Ptr(),
		Description:        p.Description.Ptr(),
		DiscountPercentage: p.DiscountPercentage.Ptr(),
		Stock:              p.Stock.Ptr(),
	})
}

// UnmarshalJSON treats both a missing key and an explicit null as absent.
func (p *ProductPatch) UnmarshalJSON(data []byte) error {
	var w patchWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = ProductPatch{
		Title:              FromPtr(w.Title),
		Brand:              FromPtr(w.Brand),
		Category:           FromPtr(w.Category),
		Price:              FromPtr(w.Price),
		Rating:             FromPtr(w.Rating),
		Tags:               FromPtr(w.Tags),
		Description:        FromPtr(w.Description),
		DiscountPercentage: FromPtr(w.DiscountPercentage),
		Stock:              FromPtr(w.Stock),
	}
	return nil
}

// AsPatch returns every summary field of p as present. The identifier is dropped.
func (p Product) AsPatch() ProductPatch {
	return ProductPatch{
		Title:    Some(p.Title),
		Brand:    Some(p.Brand),
		Category: Some(p.Category),
		Price:    Some(p.Price),
		Rating:   Some(p.Rating),
		Tags:     Some(cloneTags(p.Tags)),
	}
}

// Apply overwrites the summary fields present in patch and leaves the rest alone.
func (p Product) Apply(patch ProductPatch) Product {
	p.Title = patch.Title.OrElse(p.Title)
	p.Brand = patch.Brand.OrElse(p.Brand)
	p.Category = patch.Category.OrElse(p.Category)
	p.Price = patch.Price.OrElse(p.Price)
	p.Rating = patch.Rating.OrElse(p.Rating)
	if tags, ok := patch.Tags.Get(); ok {
		p.Tags = cloneTags(tags)
	}
	return p
}

func (d ProductDetail) Apply(patch ProductPatch) ProductDetail {
	d.Title = patch.Title.OrElse(d.Title)
	d.Brand = patch.Brand.OrElse(d.Brand)
	d.Category = patch.Category.OrElse(d.Category)
	d.Price = patch.Price.OrElse(d.Price)
	d.Rating = patch.Rating.OrElse(d.Rating)
	if tags, ok := patch.Tags.Get(); ok {
		d.Tags = cloneTags(tags)
	}
	d.Description = patch.Description.OrElse(d.Description)
	d.DiscountPercentage = patch.DiscountPercentage.OrElse(d.DiscountPercentage)
	d.Stock = patch.Stock.OrElse(d.Stock)
	return d
}

// WriteResult is what the remote catalog confirmed for a create or update.
// Echoed holds exactly the fields present in the response body.
type WriteResult struct {
	ID     int
	Echoed ProductPatch
}
