// Package fakecatalog serves an in-memory product catalog over the same HTTP
// contract as the remote catalog, for tests and local runs.
package fakecatalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"catalogadmin/pkg/catalog/domain/model"
)

type Server struct {
	store    *Store
	seedPath string
	log      logrus.FieldLogger
}

// NewServer serves store. When seedPath is set every write is saved back to it.
func NewServer(store *Store, seedPath string, logger logrus.FieldLogger) *Server {
	return &Server{
		store:    store,
		seedPath: seedPath,
		log:      logger.WithField("component", "fakecatalog"),
	}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/products", s.listHandler).Methods(http.MethodGet)
	r.HandleFunc("/products/search", s.searchHandler).Methods(http.MethodGet)
	r.HandleFunc("/products/add", s.addHandler).Methods(http.MethodPost)
	r.HandleFunc("/products/{id:[0-9]+}", s.getHandler).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", s.updateHandler).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/products/{id:[0-9]+}", s.deleteHandler).Methods(http.MethodDelete)

	return logMiddleware(s.log, r)
}

type pageJSON struct {
	Products []model.ProductDetail `json:"products"`
	Total    int                   `json:"total"`
	Skip     int                   `json:"skip"`
	Limit    int                   `json:"limit"`
}

func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	products, total := s.store.List(q)
	s.writeJSON(w, http.StatusOK, pageJSON{Products: products, Total: total, Skip: q.Skip, Limit: responseLimit(q, total)})
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	products, total := s.store.Search(r.URL.Query().Get("q"), q)
	s.writeJSON(w, http.StatusOK, pageJSON{Products: products, Total: total, Skip: q.Skip, Limit: responseLimit(q, total)})
}

func (s *Server) getHandler(w http.ResponseWriter, r *http.Request) {
	id := productID(r)
	p, ok := s.store.Get(id)
	if !ok {
		s.writeNotFound(w, id)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// addHandler answers like the reference API: the new id plus the fields that were sent.
func (s *Server) addHandler(w http.ResponseWriter, r *http.Request) {
	var patch model.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "invalid product body")
		return
	}
	created := s.store.Add(patch)
	s.persist()

	echo, err := echoJSON(created.ID, patch)
	if err != nil {
		s.writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, echo)
}

func (s *Server) updateHandler(w http.ResponseWriter, r *http.Request) {
	id := productID(r)
	var patch model.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "invalid product body")
		return
	}
	updated, ok := s.store.Update(id, patch)
	if !ok {
		s.writeNotFound(w, id)
		return
	}
	s.persist()
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	id := productID(r)
	deleted, ok := s.store.Delete(id)
	if !ok {
		s.writeNotFound(w, id)
		return
	}
	s.persist()
	s.writeJSON(w, http.StatusOK, struct {
		model.ProductDetail
		IsDeleted bool      `json:"isDeleted"`
		DeletedOn time.Time `json:"deletedOn"`
	}{deleted, true, time.Now().UTC()})
}

func (s *Server) persist() {
	if s.seedPath == "" {
		return
	}
	if err := SaveSeed(s.seedPath, s.store.Snapshot()); err != nil {
		s.log.WithError(err).WithField("path", s.seedPath).Error("Failed to save catalog")
	}
}

func (s *Server) writeNotFound(w http.ResponseWriter, id int) {
	s.writeMessage(w, http.StatusNotFound, fmt.Sprintf("Product with id '%d' not found", id))
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WithField("err", err).Error("write response body")
	}
}

func parseQuery(r *http.Request) (Query, error) {
	values := r.URL.Query()
	q := Query{Limit: DefaultLimit, SortBy: values.Get("sortBy"), Order: model.Asc}
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Query{}, fmt.Errorf("invalid limit %q", raw)
		}
		q.Limit = n
	}
	if raw := values.Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Query{}, fmt.Errorf("invalid skip %q", raw)
		}
		q.Skip = n
	}
	switch order := values.Get("order"); order {
	case "", "asc":
	case "desc":
		q.Order = model.Desc
	default:
		return Query{}, fmt.Errorf("order can be: 'asc' or 'desc'")
	}
	return q, nil
}

func responseLimit(q Query, total int) int {
	if q.Limit == 0 {
		return total
	}
	return q.Limit
}

func productID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func echoJSON(id int, patch model.ProductPatch) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["id"] = json.RawMessage(strconv.Itoa(id))
	return fields, nil
}

func logMiddleware(log logrus.FieldLogger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(logrus.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Debug("got a new request")
		h.ServeHTTP(w, r)
	})
}
