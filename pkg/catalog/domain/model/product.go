package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Product is the summary row shown in tables and held in cached pages.
type Product struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Brand    string          `json:"brand"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Rating   float64         `json:"rating"`
	Tags     []string        `json:"tags"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

type Meta struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Barcode   string    `json:"barcode"`
	QRCode    string    `json:"qrCode"`
}

// Review belongs to exactly one product and has no lifecycle of its own.
type Review struct {
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	Date          time.Time `json:"date"`
	ReviewerName  string    `json:"reviewerName"`
	ReviewerEmail string    `json:"reviewerEmail"`
}

type ProductDetail struct {
	ID                   int             `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Category             string          `json:"category"`
	Price                decimal.Decimal `json:"price"`
	DiscountPercentage   float64         `json:"discountPercentage"`
	Rating               float64         `json:"rating"`
	Stock                int             `json:"stock"`
	Tags                 []string        `json:"tags"`
	Brand                string          `json:"brand"`
	SKU                  string          `json:"sku"`
	Weight               float64         `json:"weight"`
	Dimensions           Dimensions      `json:"dimensions"`
	WarrantyInformation  string          `json:"warrantyInformation"`
	ShippingInformation  string          `json:"shippingInformation"`
	AvailabilityStatus   string          `json:"availabilityStatus"`
	Reviews              []Review        `json:"reviews"`
	ReturnPolicy         string          `json:"returnPolicy"`
	MinimumOrderQuantity int             `json:"minimumOrderQuantity"`
	Meta                 Meta            `json:"meta"`
	Images               []string        `json:"images"`
	Thumbnail            string          `json:"thumbnail"`
}

func (d ProductDetail) Summary() Product {
	return Product{
		ID:       d.ID,
		Title:    d.Title,
		Brand:    d.Brand,
		Category: d.Category,
		Price:    d.Price,
		Rating:   d.Rating,
		Tags:     cloneTags(d.Tags),
	}
}

// Page is one window of the remote collection. Total counts the whole collection.
type Page struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// Clone returns a page that shares no slices with p.
func (p Page) Clone() Page {
	out := p
	out.Products = make([]Product, len(p.Products))
	for i, product := range p.Products {
		product.Tags = cloneTags(product.Tags)
		out.Products[i] = product
	}
	return out
}

// Index returns the position of the product with the given id, or -1.
func (p Page) Index(id int) int {
	for i, product := range p.Products {
		if product.ID == id {
			return i
		}
	}
	return -1
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
