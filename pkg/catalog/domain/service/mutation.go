package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"catalogadmin/pkg/catalog/domain/model"
	"catalogadmin/pkg/metrics"
	"catalogadmin/pkg/querycache"
)

type Event interface{ Type() string }
type EventDispatcher interface{ Dispatch(event Event) error }

// Cache is the part of the query cache that writes reconcile into.
type Cache interface {
	PatchAll(prefix querycache.Key, transform querycache.Transform) int
	Invalidate(prefix querycache.Key) int
}

type MutationService interface {
	CreateProduct(ctx context.Context, product model.Product) (model.Product, error)
	UpdateProduct(ctx context.Context, id int, patch model.ProductPatch) (model.Product, error)
	DeleteProduct(ctx context.Context, id int) (int, error)
}

func NewMutationService(remote model.RemoteCatalog, cache Cache, dispatcher EventDispatcher, logger logrus.FieldLogger) MutationService {
	return &mutationService{
		remote:     remote,
		cache:      cache,
		dispatcher: dispatcher,
		log:        logger.WithField("component", "mutations"),
	}
}

type mutationService struct {
	remote     model.RemoteCatalog
	cache      Cache
	dispatcher EventDispatcher
	log        logrus.FieldLogger
}

func (s *mutationService) CreateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	m := s.begin(model.CreateMutation, 0)

	if err := validateProduct(product); err != nil {
		return model.Product{}, s.fail(m, err)
	}

	res, err := s.remote.Create(context.WithoutCancel(ctx), product)
	if err != nil {
		return model.Product{}, s.fail(m, err)
	}
	if err := s.abandoned(ctx, m, res.ID); err != nil {
		return model.Product{}, err
	}

	// Echoed fields win, submitted fields fill whatever the server left out.
	created := product.Apply(res.Echoed)
	created.ID = res.ID

	patched := s.cache.PatchAll(ListPrefix, prependCreated(created))
	s.succeed(m, created.ID, patched)
	s.dispatch(model.ProductCreated{MutationID: m.ID, Product: created})

	return created, nil
}

func (s *mutationService) UpdateProduct(ctx context.Context, id int, patch model.ProductPatch) (model.Product, error) {
	m := s.begin(model.UpdateMutation, id)

	if err := validateID(id); err != nil {
		return model.Product{}, s.fail(m, err)
	}
	if err := validateUpdate(patch); err != nil {
		return model.Product{}, s.fail(m, err)
	}

	res, err := s.remote.Update(context.WithoutCancel(ctx), id, patch)
	if err != nil {
		return model.Product{}, s.fail(m, err)
	}
	if err := s.abandoned(ctx, m, id); err != nil {
		return model.Product{}, err
	}

	merge := func(p model.Product) model.Product {
		p = p.Apply(patch).Apply(res.Echoed)
		p.ID = id
		return p
	}

	// The reply is taken from the first cached copy of the product, so fields the
	// server did not echo keep their known values. With nothing cached it only
	// holds the submitted and echoed fields.
	var (
		updated model.Product
		found   bool
	)
	capture := func(p model.Product) {
		if !found {
			updated, found = p, true
		}
	}

	patched := s.cache.PatchAll(ListPrefix, func(value any) (any, bool) {
		next, ok := mergeIntoPage(id, merge)(value)
		if ok {
			page := next.(model.Page)
			capture(page.Products[page.Index(id)])
		}
		return next, ok
	})
	patched += s.cache.PatchAll(SearchPrefix, func(value any) (any, bool) {
		next, ok := mergeIntoResults(id, merge)(value)
		if ok {
			for _, p := range next.([]model.Product) {
				if p.ID == id {
					capture(p)
					break
				}
			}
		}
		return next, ok
	})
	patched += s.cache.PatchAll(DetailKey(id), func(value any) (any, bool) {
		next, ok := mergeIntoDetail(func(d model.ProductDetail) model.ProductDetail {
			d = d.Apply(patch).Apply(res.Echoed)
			d.ID = id
			return d
		})(value)
		if ok {
			capture(next.(model.ProductDetail).Summary())
		}
		return next, ok
	})
	if !found {
		updated = merge(model.Product{})
	}

	s.succeed(m, id, patched)
	s.dispatch(model.ProductUpdated{MutationID: m.ID, ProductID: id, Patch: patch})

	return updated, nil
}

func (s *mutationService) DeleteProduct(ctx context.Context, id int) (int, error) {
	m := s.begin(model.DeleteMutation, id)

	if err := validateID(id); err != nil {
		return 0, s.fail(m, err)
	}

	deleted, err := s.remote.Delete(context.WithoutCancel(ctx), id)
	if err != nil {
		return 0, s.fail(m, err)
	}
	if err := s.abandoned(ctx, m, deleted); err != nil {
		return 0, err
	}

	patched := s.cache.PatchAll(ListPrefix, removeFromPage(deleted))
	patched += s.cache.PatchAll(SearchPrefix, removeFromResults(deleted))
	s.cache.Invalidate(DetailKey(deleted))

	s.succeed(m, deleted, patched)
	s.dispatch(model.ProductDeleted{MutationID: m.ID, ProductID: deleted})

	return deleted, nil
}

func (s *mutationService) begin(kind model.MutationKind, productID int) *model.Mutation {
	m := model.NewMutation(kind, productID)
	_ = m.Start()
	s.log.WithFields(logrus.Fields{
		"mutation": m.ID,
		"kind":     kind.String(),
		"product":  productID,
	}).Debug("mutation pending")
	return m
}

func (s *mutationService) succeed(m *model.Mutation, productID int, patched int) {
	if err := m.Succeed(productID); err != nil {
		s.log.WithError(err).WithField("mutation", m.ID).Error("mutation finished twice")
		return
	}
	metrics.RecordMutation(m.Kind.String(), model.Succeeded.String())
	s.log.WithFields(logrus.Fields{
		"mutation": m.ID,
		"kind":     m.Kind.String(),
		"product":  productID,
		"patched":  patched,
		"duration": m.Duration().String(),
	}).Info("mutation succeeded")
}

// fail ends the mutation without touching the cache and returns err unchanged.
func (s *mutationService) fail(m *model.Mutation, err error) error {
	if ferr := m.Fail(err); ferr != nil {
		s.log.WithError(ferr).WithField("mutation", m.ID).Error("mutation finished twice")
		return err
	}
	metrics.RecordMutation(m.Kind.String(), model.Failed.String())
	s.log.WithError(err).WithFields(logrus.Fields{
		"mutation": m.ID,
		"kind":     m.Kind.String(),
		"product":  m.ProductID,
	}).Warn("mutation failed")
	s.dispatch(model.MutationFailed{MutationID: m.ID, Kind: m.Kind, ProductID: m.ProductID, Err: err})
	return err
}

// abandoned discards a remote result whose caller has gone away. The write may have
// landed, so the affected kinds are invalidated instead of patched.
func (s *mutationService) abandoned(ctx context.Context, m *model.Mutation, productID int) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	s.cache.Invalidate(ListPrefix)
	s.cache.Invalidate(SearchPrefix)
	if productID > 0 {
		s.cache.Invalidate(DetailKey(productID))
	}
	return s.fail(m, err)
}

func (s *mutationService) dispatch(event Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(event); err != nil {
		s.log.WithError(err).WithField("event", event.Type()).Error("failed to dispatch event")
	}
}
