package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	appservice "catalogadmin/pkg/catalog/application/service"
	"catalogadmin/pkg/catalog/domain/model"
	domainservice "catalogadmin/pkg/catalog/domain/service"
	"catalogadmin/pkg/metrics"
	notificationmodel "catalogadmin/pkg/notification/domain/model"
)

// NotificationFeed is the read side of the notification inbox.
type NotificationFeed interface {
	Recent(limit int) []notificationmodel.Notification
}

type Handler struct {
	queries         appservice.QueryService
	mutations       domainservice.MutationService
	notifications   NotificationFeed
	defaultPageSize int
	log             logrus.FieldLogger
}

type Options struct {
	DefaultPageSize int
}

func Router(queries appservice.QueryService, mutations domainservice.MutationService, notifications NotificationFeed, opts Options, logger logrus.FieldLogger) http.Handler {
	pageSize := opts.DefaultPageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	handler := &Handler{
		queries:         queries,
		mutations:       mutations,
		notifications:   notifications,
		defaultPageSize: pageSize,
		log:             logger.WithField("component", "transport"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", metrics.Handler())

	s := r.PathPrefix("/api/v1").Subrouter()
	s.HandleFunc("/products", handler.listProducts).Methods(http.MethodGet)
	s.HandleFunc("/products", handler.createProduct).Methods(http.MethodPost)
	s.HandleFunc("/products/search", handler.searchProducts).Methods(http.MethodGet)
	s.HandleFunc("/products/{id:[0-9]+}", handler.getProduct).Methods(http.MethodGet)
	s.HandleFunc("/products/{id:[0-9]+}", handler.updateProduct).Methods(http.MethodPatch, http.MethodPut)
	s.HandleFunc("/products/{id:[0-9]+}", handler.deleteProduct).Methods(http.MethodDelete)
	s.HandleFunc("/cache/refresh", handler.refreshCache).Methods(http.MethodPost)
	s.HandleFunc("/notifications", handler.listNotifications).Methods(http.MethodGet)

	return handler.logMiddleware(r)
}

type pageResponse struct {
	State    string          `json:"state"`
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
	Skip     int             `json:"skip"`
	Limit    int             `json:"limit"`
}

type productResponse struct {
	State   string              `json:"state"`
	Product model.ProductDetail `json:"product"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r, h.defaultPageSize)
	if err != nil {
		h.writeError(w, err)
		return
	}

	page, err := h.queries.ListProducts(r.Context(), appservice.ListQuery{
		ListParams:  params,
		TitleFilter: r.URL.Query().Get("title"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, pageResponse{
		State:    dataState(len(page.Products)),
		Products: page.Products,
		Total:    page.Total,
		Skip:     page.Skip,
		Limit:    page.Limit,
	})
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r, 0)
	if err != nil {
		h.writeError(w, err)
		return
	}

	results, err := h.queries.SearchProducts(r.Context(), model.SearchParams{
		Query:      r.URL.Query().Get("q"),
		ListParams: params,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, struct {
		State    string          `json:"state"`
		Products []model.Product `json:"products"`
	}{dataState(len(results)), results})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.queries.GetProduct(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, productResponse{State: stateReady, Product: detail})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.writeError(w, bodyError(err))
		return
	}

	created, err := h.mutations.CreateProduct(r.Context(), product)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, struct {
		State   string        `json:"state"`
		Product model.Product `json:"product"`
	}{stateReady, created})
}

// updateProduct ignores any "id" in the body: the path names the product.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var patch model.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, bodyError(err))
		return
	}

	updated, err := h.mutations.UpdateProduct(r.Context(), pathID(r), patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		State   string        `json:"state"`
		Product model.Product `json:"product"`
	}{stateReady, updated})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := h.mutations.DeleteProduct(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"id": id})
}

func (h *Handler) refreshCache(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	switch kind {
	case "", domainservice.ProductsKind, domainservice.ProductKind, domainservice.SearchKind:
	default:
		h.writeError(w, &model.ValidationError{Violations: []model.Violation{{Field: "kind", Reason: "unknown resource kind"}}})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"invalidated": h.queries.Refresh(kind)})
}

type notificationJSON struct {
	ID        uuid.UUID `json:"id"`
	Level     string    `json:"level"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt string    `json:"createdAt"`
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recent := h.notifications.Recent(limit)

	out := make([]notificationJSON, 0, len(recent))
	for _, n := range recent {
		out = append(out, notificationJSON{
			ID:        n.ID,
			Level:     n.Level.String(),
			Subject:   n.Subject,
			Body:      n.Body,
			Status:    n.Status.String(),
			CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": out})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WithField("err", err).Error("write response status")
	}
}

func (h *Handler) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		h.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
			"requestID":  requestID,
		}).Info("got a new request")
		next.ServeHTTP(w, r)
	})
}

// listParams reads paging and sorting. defaultLimit of zero leaves an absent limit absent.
func listParams(r *http.Request, defaultLimit int) (model.ListParams, error) {
	values := r.URL.Query()
	verr := &model.ValidationError{}
	var params model.ListParams

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add("limit", "must be a number")
		}
		params.Limit = model.Some(n)
	} else if defaultLimit > 0 {
		params.Limit = model.Some(defaultLimit)
	}

	if raw := values.Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add("skip", "must be a number")
		}
		params.Skip = model.Some(n)
	} else if defaultLimit > 0 {
		params.Skip = model.Some(0)
	}

	if sortBy := strings.TrimSpace(values.Get("sortBy")); sortBy != "" {
		params.SortBy = model.Some(sortBy)
	}
	if order := strings.ToLower(strings.TrimSpace(values.Get("order"))); order != "" {
		params.Order = model.Some(model.SortOrder(order))
	}

	return params, verr.OrNil()
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}
