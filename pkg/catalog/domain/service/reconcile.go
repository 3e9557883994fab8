package service

import (
	"catalogadmin/pkg/catalog/domain/model"
	"catalogadmin/pkg/querycache"
)

// Cached values are shared with readers, so every transform below builds a new value.

func prependCreated(created model.Product) querycache.Transform {
	return func(value any) (any, bool) {
		page, ok := value.(model.Page)
		if !ok {
			return nil, false
		}
		next := page.Clone()
		next.Products = append([]model.Product{created}, next.Products...)
		next.Total++
		return next, true
	}
}

func mergeIntoPage(id int, merge func(model.Product) model.Product) querycache.Transform {
	return func(value any) (any, bool) {
		page, ok := value.(model.Page)
		if !ok {
			return nil, false
		}
		i := page.Index(id)
		if i < 0 {
			return nil, false
		}
		next := page.Clone()
		next.Products[i] = merge(next.Products[i])
		return next, true
	}
}

func mergeIntoResults(id int, merge func(model.Product) model.Product) querycache.Transform {
	return func(value any) (any, bool) {
		results, ok := value.([]model.Product)
		if !ok {
			return nil, false
		}
		changed := false
		next := make([]model.Product, len(results))
		for i, product := range results {
			if product.ID == id {
				product = merge(product)
				changed = true
			}
			next[i] = product
		}
		return next, changed
	}
}

func mergeIntoDetail(merge func(model.ProductDetail) model.ProductDetail) querycache.Transform {
	return func(value any) (any, bool) {
		detail, ok := value.(model.ProductDetail)
		if !ok {
			return nil, false
		}
		return merge(detail), true
	}
}

// removeFromPage drops the product and decrements the collection total on every page,
// since Total counts the whole remote collection. Pages are not refilled.
func removeFromPage(id int) querycache.Transform {
	return func(value any) (any, bool) {
		page, ok := value.(model.Page)
		if !ok {
			return nil, false
		}
		next := page.Clone()
		if i := next.Index(id); i >= 0 {
			next.Products = append(next.Products[:i], next.Products[i+1:]...)
		}
		if next.Total > 0 {
			next.Total--
		}
		return next, true
	}
}

func removeFromResults(id int) querycache.Transform {
	return func(value any) (any, bool) {
		results, ok := value.([]model.Product)
		if !ok {
			return nil, false
		}
		next := make([]model.Product, 0, len(results))
		for _, product := range results {
			if product.ID != id {
				next = append(next, product)
			}
		}
		return next, len(next) != len(results)
	}
}
