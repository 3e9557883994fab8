package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"catalogadmin/pkg/catalog/domain/model"
	domainservice "catalogadmin/pkg/catalog/domain/service"
	"catalogadmin/pkg/querycache"
)

// ListQuery is a remote page request plus a filter applied locally to the cached page.
type ListQuery struct {
	model.ListParams
	TitleFilter string
}

type QueryService interface {
	ListProducts(ctx context.Context, query ListQuery) (model.Page, error)
	GetProduct(ctx context.Context, id int) (model.ProductDetail, error)
	SearchProducts(ctx context.Context, params model.SearchParams) ([]model.Product, error)
	Refresh(kind string) int
}

func NewQueryService(remote model.RemoteCatalog, cache *querycache.Store, logger logrus.FieldLogger) QueryService {
	return &queryService{
		remote: remote,
		cache:  cache,
		log:    logger.WithField("component", "queries"),
	}
}

type queryService struct {
	remote model.RemoteCatalog
	cache  *querycache.Store
	log    logrus.FieldLogger
}

func (s *queryService) ListProducts(ctx context.Context, query ListQuery) (model.Page, error) {
	if err := validateListParams(query.ListParams); err != nil {
		return model.Page{}, err
	}

	page, err := querycache.ReadAs(ctx, s.cache, domainservice.ListKey(query.ListParams), func(ctx context.Context) (model.Page, error) {
		return s.remote.List(ctx, query.ListParams)
	})
	if err != nil {
		s.logReadError(err, domainservice.ProductsKind)
		return model.Page{}, err
	}

	filter := strings.ToLower(strings.TrimSpace(query.TitleFilter))
	if filter == "" {
		return page, nil
	}
	filtered := page.Clone()
	filtered.Products = filtered.Products[:0]
	for _, product := range page.Products {
		if strings.Contains(strings.ToLower(product.Title), filter) {
			filtered.Products = append(filtered.Products, product)
		}
	}
	return filtered, nil
}

func (s *queryService) GetProduct(ctx context.Context, id int) (model.ProductDetail, error) {
	if id <= 0 {
		return model.ProductDetail{}, &model.ValidationError{Violations: []model.Violation{{Field: "id", Reason: "must be a positive number"}}}
	}

	detail, err := querycache.ReadAs(ctx, s.cache, domainservice.DetailKey(id), func(ctx context.Context) (model.ProductDetail, error) {
		return s.remote.Get(ctx, id)
	})
	if err != nil {
		s.logReadError(err, domainservice.ProductKind)
		return model.ProductDetail{}, err
	}
	return detail, nil
}

func (s *queryService) SearchProducts(ctx context.Context, params model.SearchParams) ([]model.Product, error) {
	params.Query = strings.TrimSpace(params.Query)
	if params.Query == "" {
		return nil, &model.ValidationError{Violations: []model.Violation{{Field: "q", Reason: "search query is required"}}}
	}
	if err := validateListParams(params.ListParams); err != nil {
		return nil, err
	}

	results, err := querycache.ReadAs(ctx, s.cache, domainservice.SearchKey(params), func(ctx context.Context) ([]model.Product, error) {
		return s.remote.Search(ctx, params)
	})
	if err != nil {
		s.logReadError(err, domainservice.SearchKind)
		return nil, err
	}
	return results, nil
}

// Refresh invalidates one resource kind, or everything when kind is empty.
func (s *queryService) Refresh(kind string) int {
	prefix := querycache.Key("")
	if kind != "" {
		prefix = querycache.NewKey(kind)
	}
	return s.cache.Invalidate(prefix)
}

func (s *queryService) logReadError(err error, kind string) {
	s.log.WithError(err).WithField("kind", kind).Warn("catalog read failed")
}

func validateListParams(params model.ListParams) error {
	verr := &model.ValidationError{}
	if limit, ok := params.Limit.Get(); ok && limit < 0 {
		verr.Add("limit", "cannot be negative")
	}
	if skip, ok := params.Skip.Get(); ok && skip < 0 {
		verr.Add("skip", "cannot be negative")
	}
	if order, ok := params.Order.Get(); ok && order != model.Asc && order != model.Desc {
		verr.Add("order", "must be asc or desc")
	}
	return verr.OrNil()
}
