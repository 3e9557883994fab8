package service

import (
	"strconv"

	"catalogadmin/pkg/catalog/domain/model"
	"catalogadmin/pkg/querycache"
)

// Resource kinds, each also the key prefix covering every entry of that kind.
const (
	ProductsKind = "products"
	ProductKind  = "product"
	SearchKind   = "search"
)

var (
	ListPrefix   = querycache.NewKey(ProductsKind)
	DetailPrefix = querycache.NewKey(ProductKind)
	SearchPrefix = querycache.NewKey(SearchKind)
)

func ListKey(params model.ListParams) querycache.Key {
	return querycache.NewKey(ProductsKind, params.Values().Encode())
}

func DetailKey(id int) querycache.Key {
	return querycache.NewKey(ProductKind, strconv.Itoa(id))
}

func SearchKey(params model.SearchParams) querycache.Key {
	return querycache.NewKey(SearchKind, params.Values().Encode())
}
