package remote_test

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogadmin/pkg/catalog/domain/model"
	"catalogadmin/pkg/catalog/infrastructure/remote"
	"catalogadmin/pkg/fakecatalog"
)

type capturedRequest struct {
	method string
	path   string
	query  string
	body   map[string]interface{}
}

// recordingServer answers every request with status and body and remembers the last request.
func recordingServer(t *testing.T, status int, body string) (*remote.Client, *capturedRequest) {
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = r.URL.RawQuery
		captured.body = nil
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &captured.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return newClient(srv.URL), captured
}

func newClient(baseURL string) *remote.Client {
	logger, _ := test.NewNullLogger()
	return remote.NewClient(remote.Config{BaseURL: baseURL, Timeout: 5 * time.Second}, logger)
}

func TestListQueryString(t *testing.T) {
	client, captured := recordingServer(t, http.StatusOK, `{"products":[],"total":0,"skip":0,"limit":0}`)

	t.Run("Absent parameters are omitted", func(t *testing.T) {
		_, err := client.List(context.Background(), model.ListParams{})
		require.NoError(t, err)
		assert.Equal(t, "/products", captured.path)
		assert.Empty(t, captured.query)
	})

	t.Run("Zero values are still sent", func(t *testing.T) {
		_, err := client.List(context.Background(), model.ListParams{Limit: model.Some(10), Skip: model.Some(0)})
		require.NoError(t, err)
		assert.Equal(t, "limit=10&skip=0", captured.query)
	})

	t.Run("Order without sortBy is dropped", func(t *testing.T) {
		_, err := client.List(context.Background(), model.ListParams{Order: model.Some(model.Desc)})
		require.NoError(t, err)
		assert.Empty(t, captured.query)
	})

	t.Run("Order travels with sortBy", func(t *testing.T) {
		_, err := client.List(context.Background(), model.ListParams{SortBy: model.Some("price"), Order: model.Some(model.Desc)})
		require.NoError(t, err)
		assert.Equal(t, "order=desc&sortBy=price", captured.query)
	})
}

func TestListEmptyPageHasNoNilProducts(t *testing.T) {
	client, _ := recordingServer(t, http.StatusOK, `{"total":0,"skip":0,"limit":10}`)

	page, err := client.List(context.Background(), model.ListParams{})
	require.NoError(t, err)
	assert.NotNil(t, page.Products)
	assert.Empty(t, page.Products)
}

func TestCreateSendsNoID(t *testing.T) {
	client, captured := recordingServer(t, http.StatusCreated, `{"id":195,"title":"Desk Lamp","price":19.5}`)

	res, err := client.Create(context.Background(), model.Product{
		ID:       77,
		Title:    "Desk Lamp",
		Brand:    "Lumo",
		Category: "lighting",
		Price:    decimal.RequireFromString("19.5"),
		Rating:   4,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/products/add", captured.path)
	assert.NotContains(t, captured.body, "id")
	assert.Equal(t, "Desk Lamp", captured.body["title"])
	assert.Equal(t, 19.5, captured.body["price"])

	assert.Equal(t, 195, res.ID)
	title, ok := res.Echoed.Title.Get()
	assert.True(t, ok)
	assert.Equal(t, "Desk Lamp", title)
	assert.False(t, res.Echoed.Brand.IsSet())
}

func TestUpdateSendsOnlyPresentFields(t *testing.T) {
	client, captured := recordingServer(t, http.StatusOK, `{"id":5,"price":12}`)

	res, err := client.Update(context.Background(), 5, model.ProductPatch{Price: model.Some(decimal.NewFromInt(12))})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, captured.method)
	assert.Equal(t, "/products/5", captured.path)
	assert.Equal(t, map[string]interface{}{"price": float64(12)}, captured.body)
	assert.Equal(t, 5, res.ID)
	price, _ := res.Echoed.Price.Get()
	assert.True(t, price.Equal(decimal.NewFromInt(12)))
}

func TestUpdateFallsBackToRequestedID(t *testing.T) {
	client, _ := recordingServer(t, http.StatusOK, `{"title":"Renamed"}`)

	res, err := client.Update(context.Background(), 9, model.ProductPatch{Title: model.Some("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, 9, res.ID)
}

func TestDeleteReturnsID(t *testing.T) {
	client, captured := recordingServer(t, http.StatusOK, `{"id":3,"isDeleted":true}`)

	id, err := client.Delete(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	assert.Equal(t, http.MethodDelete, captured.method)
	assert.Equal(t, "/products/3", captured.path)
}

func TestErrorMapping(t *testing.T) {
	t.Run("404 on a named product is NotFound", func(t *testing.T) {
		client, _ := recordingServer(t, http.StatusNotFound, `{"message":"Product with id '999' not found"}`)

		_, err := client.Get(context.Background(), 999)
		var notFound *model.NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, 999, notFound.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.Equal(t, "Product with id '999' not found", err.Error())
	})

	t.Run("404 on a collection is a transport error", func(t *testing.T) {
		client, _ := recordingServer(t, http.StatusNotFound, `not here`)

		_, err := client.List(context.Background(), model.ListParams{})
		var transportErr *model.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, http.StatusNotFound, transportErr.Status)
		assert.Equal(t, "not here", transportErr.Message)
	})

	t.Run("Server error keeps status and message", func(t *testing.T) {
		client, _ := recordingServer(t, http.StatusInternalServerError, `{"message":"database exploded"}`)

		_, err := client.Delete(context.Background(), 1)
		var transportErr *model.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, http.StatusInternalServerError, transportErr.Status)
		assert.Equal(t, "database exploded", transportErr.Message)
		assert.False(t, transportErr.Timeout())
	})

	t.Run("Gateway timeout reports a timeout", func(t *testing.T) {
		client, _ := recordingServer(t, http.StatusGatewayTimeout, ``)

		_, err := client.Get(context.Background(), 1)
		var transportErr *model.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.True(t, transportErr.Timeout())
		assert.Equal(t, http.StatusText(http.StatusGatewayTimeout), transportErr.Message)
	})

	t.Run("Long body is cut on a rune boundary", func(t *testing.T) {
		client, _ := recordingServer(t, http.StatusBadGateway, "x"+strings.Repeat("€", 300))

		_, err := client.List(context.Background(), model.ListParams{})
		var transportErr *model.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.True(t, utf8.ValidString(transportErr.Message))
		assert.LessOrEqual(t, len(transportErr.Message), 512)
		assert.Equal(t, "x"+strings.Repeat("€", 170), transportErr.Message)
	})

	t.Run("Unencodable request body", func(t *testing.T) {
		client, captured := recordingServer(t, http.StatusOK, `{}`)

		_, err := client.Update(context.Background(), 1, model.ProductPatch{Rating: model.Some(math.NaN())})
		var transportErr *model.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, "failed to marshal request body", transportErr.Message)
		assert.Empty(t, captured.method)
	})

	t.Run("Malformed body", func(t *testing.T) {
		client, _ := recordingServer(t, http.StatusOK, `{"products":`)

		_, err := client.List(context.Background(), model.ListParams{})
		var transportErr *model.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, "malformed response body", transportErr.Message)
	})

	t.Run("Unreachable server", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		_, err := newClient(srv.URL).Get(context.Background(), 1)
		var transportErr *model.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Zero(t, transportErr.Status)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		client, _ := recordingServer(t, http.StatusOK, `{}`)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Get(ctx, 1)
		var transportErr *model.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAgainstFakeCatalog(t *testing.T) {
	var products []model.ProductDetail
	for i := 1; i <= 12; i++ {
		products = append(products, model.ProductDetail{
			ID:       i,
			Title:    "Item",
			Category: "misc",
			Price:    decimal.NewFromInt(int64(i)),
		})
	}
	logger, _ := test.NewNullLogger()
	srv := httptest.NewServer(fakecatalog.NewServer(fakecatalog.NewStore(products), "", logger).Router())
	t.Cleanup(srv.Close)
	client := newClient(srv.URL)

	page, err := client.List(context.Background(), model.ListParams{Limit: model.Some(5), Skip: model.Some(10)})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(page.Products), 5)
	assert.Len(t, page.Products, 2)
	assert.Equal(t, 12, page.Total)

	res, err := client.Create(context.Background(), model.Product{Title: "Brand new", Category: "misc", Price: decimal.NewFromInt(3)})
	require.NoError(t, err)
	assert.Equal(t, 13, res.ID)

	res, err = client.Update(context.Background(), 13, model.ProductPatch{Stock: model.Some(4)})
	require.NoError(t, err)
	title, _ := res.Echoed.Title.Get()
	assert.Equal(t, "Brand new", title)

	_, err = client.Delete(context.Background(), 13)
	require.NoError(t, err)
	_, err = client.Get(context.Background(), 13)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
