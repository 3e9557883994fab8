package model

import (
	"context"
	"net/url"
	"strconv"
)

// RemoteCatalog is the remote product service. Implementations return
// *TransportError, *NotFoundError or a context error, nothing else.
type RemoteCatalog interface {
	List(ctx context.Context, params ListParams) (Page, error)
	Get(ctx context.Context, id int) (ProductDetail, error)
	Search(ctx context.Context, params SearchParams) ([]Product, error)
	Create(ctx context.Context, product Product) (WriteResult, error)
	Update(ctx context.Context, id int, patch ProductPatch) (WriteResult, error)
	Delete(ctx context.Context, id int) (int, error)
}

type ListParams struct {
	Limit  Optional[int]
	Skip   Optional[int]
	SortBy Optional[string]
	Order  Optional[SortOrder]
}

// Values encodes the present parameters only. Order is dropped when SortBy is absent.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if limit, ok := p.Limit.Get(); ok {
		v.Set("limit", strconv.Itoa(limit))
	}
	if skip, ok := p.Skip.Get(); ok {
		v.Set("skip", strconv.Itoa(skip))
	}
	if sortBy, ok := p.SortBy.Get(); ok && sortBy != "" {
		v.Set("sortBy", sortBy)
		if order, ok := p.Order.Get(); ok {
			v.Set("order", string(order))
		}
	}
	return v
}

type SearchParams struct {
	Query string
	ListParams
}

func (p SearchParams) Values() url.Values {
	v := p.ListParams.Values()
	v.Set("q", p.Query)
	return v
}
