package fakecatalog

import (
	"sort"
	"strings"
	"sync"
	"time"

	"catalogadmin/pkg/catalog/domain/model"
)

const DefaultLimit = 30

// Query mirrors the paging parameters of the remote list and search endpoints.
// A zero Limit returns everything after Skip.
type Query struct {
	Limit  int
	Skip   int
	SortBy string
	Order  model.SortOrder
}

// Store is the in-memory product collection behind the fake catalog.
type Store struct {
	mu       sync.RWMutex
	products []model.ProductDetail
}

func NewStore(products []model.ProductDetail) *Store {
	s := &Store{products: make([]model.ProductDetail, len(products))}
	copy(s.products, products)
	sort.SliceStable(s.products, func(i, j int) bool { return s.products[i].ID < s.products[j].ID })
	return s
}

func (s *Store) List(q Query) ([]model.ProductDetail, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(sorted(s.products, q.SortBy, q.Order), q), len(s.products)
}

// Search matches term against title, description, brand and category, ignoring case.
func (s *Store) Search(term string, q Query) ([]model.ProductDetail, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(strings.TrimSpace(term))
	var matched []model.ProductDetail
	for _, p := range s.products {
		haystack := strings.ToLower(strings.Join([]string{p.Title, p.Description, p.Brand, p.Category}, " "))
		if strings.Contains(haystack, term) {
			matched = append(matched, p)
		}
	}
	return window(sorted(matched, q.SortBy, q.Order), q), len(matched)
}

func (s *Store) Get(id int) (model.ProductDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return model.ProductDetail{}, false
	}
	return s.products[i], true
}

// Add stores a new product under max(id)+1.
func (s *Store) Add(patch model.ProductPatch) model.ProductDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextID := 1
	if n := len(s.products); n > 0 {
		nextID = s.products[n-1].ID + 1
	}
	now := time.Now().UTC()
	p := model.ProductDetail{ID: nextID}.Apply(patch)
	p.Meta.CreatedAt = now
	p.Meta.UpdatedAt = now
	s.products = append(s.products, p)
	return p
}

func (s *Store) Update(id int, patch model.ProductPatch) (model.ProductDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.ProductDetail{}, false
	}
	p := s.products[i].Apply(patch)
	p.Meta.UpdatedAt = time.Now().UTC()
	s.products[i] = p
	return p, true
}

func (s *Store) Delete(id int) (model.ProductDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.ProductDetail{}, false
	}
	p := s.products[i]
	s.products = append(s.products[:i], s.products[i+1:]...)
	return p, true
}

func (s *Store) Snapshot() []model.ProductDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ProductDetail, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Store) index(id int) int {
	i := sort.Search(len(s.products), func(i int) bool { return s.products[i].ID >= id })
	if i < len(s.products) && s.products[i].ID == id {
		return i
	}
	return -1
}

func sorted(products []model.ProductDetail, sortBy string, order model.SortOrder) []model.ProductDetail {
	out := make([]model.ProductDetail, len(products))
	copy(out, products)
	less := lessBy(sortBy)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order == model.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessBy(field string) func(a, b model.ProductDetail) bool {
	switch field {
	case "id":
		return func(a, b model.ProductDetail) bool { return a.ID < b.ID }
	case "title":
		return func(a, b model.ProductDetail) bool { return a.Title < b.Title }
	case "brand":
		return func(a, b model.ProductDetail) bool { return a.Brand < b.Brand }
	case "category":
		return func(a, b model.ProductDetail) bool { return a.Category < b.Category }
	case "price":
		return func(a, b model.ProductDetail) bool { return a.Price.LessThan(b.Price) }
	case "rating":
		return func(a, b model.ProductDetail) bool { return a.Rating < b.Rating }
	case "stock":
		return func(a, b model.ProductDetail) bool { return a.Stock < b.Stock }
	}
	return nil
}

func window(products []model.ProductDetail, q Query) []model.ProductDetail {
	if q.Skip >= len(products) {
		return []model.ProductDetail{}
	}
	products = products[q.Skip:]
	if q.Limit > 0 && q.Limit < len(products) {
		products = products[:q.Limit]
	}
	return products
}
