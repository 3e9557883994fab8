package transport_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appservice "catalogadmin/pkg/catalog/application/service"
	"catalogadmin/pkg/catalog/domain/model"
	domainservice "catalogadmin/pkg/catalog/domain/service"
	"catalogadmin/pkg/catalog/infrastructure/remote"
	"catalogadmin/pkg/catalog/infrastructure/transport"
	"catalogadmin/pkg/fakecatalog"
	notificationapp "catalogadmin/pkg/notification/application"
	notificationmodel "catalogadmin/pkg/notification/domain/model"
	notificationservice "catalogadmin/pkg/notification/domain/service"
	"catalogadmin/pkg/notification/infrastructure/inbox"
	"catalogadmin/pkg/querycache"
)

// setup wires the admin API to a fake catalog holding 25 products.
func setup(t *testing.T) http.Handler {
	logger, _ := test.NewNullLogger()

	var products []model.ProductDetail
	for id := 1; id <= 25; id++ {
		products = append(products, model.ProductDetail{
			ID:       id,
			Title:    fmt.Sprintf("Product %02d", id),
			Category: "tools",
			Price:    decimal.NewFromInt(int64(id)),
			Stock:    id,
		})
	}
	catalog := httptest.NewServer(fakecatalog.NewServer(fakecatalog.NewStore(products), "", logger).Router())
	t.Cleanup(catalog.Close)

	client := remote.NewClient(remote.Config{BaseURL: catalog.URL, Timeout: 5 * time.Second}, logger)
	cache := querycache.New(logger)
	t.Cleanup(func() { _ = cache.Close() })

	box := inbox.New(0)
	notifier := notificationservice.NewNotificationService(
		box,
		map[notificationmodel.NotificationChannel]notificationmodel.NotificationSender{notificationmodel.Inbox: box},
		notificationmodel.Inbox,
		nil,
	)

	return transport.Router(
		appservice.NewQueryService(client, cache, logger),
		domainservice.NewMutationService(client, cache, notificationapp.NewCatalogEventHandler(notifier), logger),
		box,
		transport.Options{DefaultPageSize: 10},
		logger,
	)
}

type pageBody struct {
	State    string          `json:"state"`
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
	Skip     int             `json:"skip"`
	Limit    int             `json:"limit"`
}

type errorBody struct {
	State      string `json:"state"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
	Violations []struct {
		Field string `json:"field"`
	} `json:"violations"`
}

func do(t *testing.T, h http.Handler, method, target, body string, out interface{}) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func TestListDefaults(t *testing.T) {
	h := setup(t)

	var page pageBody
	rec := do(t, h, http.MethodGet, "/api/v1/products", "", &page)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "ready", page.State)
	assert.Len(t, page.Products, 10)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 0, page.Skip)
}

func TestListEmptyAndFiltered(t *testing.T) {
	h := setup(t)

	var empty pageBody
	do(t, h, http.MethodGet, "/api/v1/products?skip=30", "", &empty)
	assert.Equal(t, "empty", empty.State)
	assert.Empty(t, empty.Products)

	var filtered pageBody
	do(t, h, http.MethodGet, "/api/v1/products?limit=25&title=product%2001", "", &filtered)
	require.Len(t, filtered.Products, 1)
	assert.Equal(t, 1, filtered.Products[0].ID)
}

func TestCreateThenList(t *testing.T) {
	h := setup(t)

	var before pageBody
	do(t, h, http.MethodGet, "/api/v1/products?limit=10&skip=0", "", &before)
	require.Len(t, before.Products, 10)

	var created struct {
		State   string        `json:"state"`
		Product model.Product `json:"product"`
	}
	rec := do(t, h, http.MethodPost, "/api/v1/products", `{"id":500,"title":"Cordless Drill","category":"tools","price":89.9,"rating":4}`, &created)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 26, created.Product.ID)

	var after pageBody
	do(t, h, http.MethodGet, "/api/v1/products?limit=10&skip=0", "", &after)
	require.Len(t, after.Products, 11)
	assert.Equal(t, 26, after.Products[0].ID)
	assert.Equal(t, 26, after.Total)

	var notifications struct {
		Notifications []struct {
			Subject string `json:"subject"`
			Level   string `json:"level"`
		} `json:"notifications"`
	}
	do(t, h, http.MethodGet, "/api/v1/notifications?limit=5", "", &notifications)
	require.Len(t, notifications.Notifications, 1)
	assert.Equal(t, "Product created successfully!", notifications.Notifications[0].Subject)
}

func TestUpdateAndDelete(t *testing.T) {
	h := setup(t)
	do(t, h, http.MethodGet, "/api/v1/products", "", nil)

	var updated struct {
		Product model.Product `json:"product"`
	}
	rec := do(t, h, http.MethodPatch, "/api/v1/products/3", `{"id":9,"price":300}`, &updated)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, updated.Product.ID)
	assert.True(t, updated.Product.Price.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "Product 03", updated.Product.Title)

	var deleted map[string]int
	rec = do(t, h, http.MethodDelete, "/api/v1/products/3", "", &deleted)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, deleted["id"])

	var page pageBody
	do(t, h, http.MethodGet, "/api/v1/products", "", &page)
	assert.Len(t, page.Products, 9)
	assert.Equal(t, 24, page.Total)
}

func TestErrors(t *testing.T) {
	h := setup(t)

	t.Run("Validation", func(t *testing.T) {
		var body errorBody
		rec := do(t, h, http.MethodPost, "/api/v1/products", `{"title":"ab","category":"tools","price":0}`, &body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "error", body.State)
		assert.Equal(t, "validation", body.Kind)
		require.Len(t, body.Violations, 2)
		assert.Equal(t, "title", body.Violations[0].Field)
		assert.Equal(t, "price", body.Violations[1].Field)
	})

	t.Run("Empty patch", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/api/v1/products/3", `{}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Malformed body", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/products", `{"title":`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Not found", func(t *testing.T) {
		var body errorBody
		rec := do(t, h, http.MethodDelete, "/api/v1/products/999", "", &body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", body.Kind)
		assert.Equal(t, "Product with id '999' not found", body.Error)
	})

	t.Run("Bad paging", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/products?limit=ten", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Search needs a query", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/products/search", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown refresh kind", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/cache/refresh?kind=orders", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSearchAndDetail(t *testing.T) {
	h := setup(t)

	var results struct {
		State    string          `json:"state"`
		Products []model.Product `json:"products"`
	}
	do(t, h, http.MethodGet, "/api/v1/products/search?q=product%2012", "", &results)
	assert.Equal(t, "ready", results.State)
	require.Len(t, results.Products, 1)
	assert.Equal(t, 12, results.Products[0].ID)

	var detail struct {
		Product model.ProductDetail `json:"product"`
	}
	rec := do(t, h, http.MethodGet, "/api/v1/products/12", "", &detail)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 12, detail.Product.Stock)
}

func TestRefreshAndProbes(t *testing.T) {
	h := setup(t)
	do(t, h, http.MethodGet, "/api/v1/products", "", nil)
	do(t, h, http.MethodGet, "/api/v1/products/1", "", nil)

	var refreshed map[string]int
	rec := do(t, h, http.MethodPost, "/api/v1/cache/refresh?kind=products", "", &refreshed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, refreshed["invalidated"])

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "", nil).Code)

	metrics := do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "catalog_remote_requests_total")
}
