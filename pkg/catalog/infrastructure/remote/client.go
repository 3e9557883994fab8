package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"catalogadmin/pkg/catalog/domain/model"
	"catalogadmin/pkg/metrics"
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, zero disables pacing
	RateBurst int
}

// Client talks JSON over HTTP to the remote product catalog.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

var _ model.RemoteCatalog = (*Client)(nil)

func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger.WithField("component", "remote"),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

func (c *Client) List(ctx context.Context, params model.ListParams) (model.Page, error) {
	var page model.Page
	err := c.doRequest(ctx, http.MethodGet, "/products", params.Values(), nil, &page, 0)
	if err != nil {
		return model.Page{}, err
	}
	page.Products = summaries(page.Products)
	return page, nil
}

func (c *Client) Get(ctx context.Context, id int) (model.ProductDetail, error) {
	var detail model.ProductDetail
	if err := c.doRequest(ctx, http.MethodGet, productPath(id), nil, nil, &detail, id); err != nil {
		return model.ProductDetail{}, err
	}
	return detail, nil
}

func (c *Client) Search(ctx context.Context, params model.SearchParams) ([]model.Product, error) {
	var resp struct {
		Products []model.Product `json:"products"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/products/search", params.Values(), nil, &resp, 0); err != nil {
		return nil, err
	}
	return summaries(resp.Products), nil
}

// Create posts every summary field except the identifier, which the server assigns.
func (c *Client) Create(ctx context.Context, product model.Product) (model.WriteResult, error) {
	var echo echoedProduct
	if err := c.doRequest(ctx, http.MethodPost, "/products/add", nil, product.AsPatch(), &echo, 0); err != nil {
		return model.WriteResult{}, err
	}
	return echo.result(0), nil
}

// Update sends the present patch fields. The target comes from id, never from the body.
func (c *Client) Update(ctx context.Context, id int, patch model.ProductPatch) (model.WriteResult, error) {
	var echo echoedProduct
	if err := c.doRequest(ctx, http.MethodPut, productPath(id), nil, patch, &echo, id); err != nil {
		return model.WriteResult{}, err
	}
	return echo.result(id), nil
}

// Delete returns id as the confirmed value; the response body is not needed.
func (c *Client) Delete(ctx context.Context, id int) (int, error) {
	if err := c.doRequest(ctx, http.MethodDelete, productPath(id), nil, nil, nil, id); err != nil {
		return 0, err
	}
	return id, nil
}

// doRequest performs one exchange. resourceID is the product the call names, or zero;
// a 404 on a named product becomes a *model.NotFoundError.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, query url.Values, requestBody, response interface{}, resourceID int) error {
	var body io.Reader
	if requestBody != nil {
		bodyBytes, err := json.Marshal(requestBody)
		if err != nil {
			return &model.TransportError{Message: "failed to marshal request body", Err: errors.Wrap(err, "marshal request body")}
		}
		body = bytes.NewReader(bodyBytes)
	}

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &model.TransportError{Message: "failed to create request", Err: errors.Wrap(err, "create request")}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &model.TransportError{Message: "rate limiter: " + err.Error(), Err: err}
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordRequest(method, metricEndpoint(endpoint), 0, time.Since(started))
		return networkError(ctx, err)
	}
	defer resp.Body.Close()
	metrics.RecordRequest(method, metricEndpoint(endpoint), resp.StatusCode, time.Since(started))

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"url":      target,
		"status":   resp.StatusCode,
		"duration": time.Since(started).String(),
	}).Debug("remote catalog call")

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(ctx, errors.Wrap(err, "failed to read response body"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, respBody, resourceID)
	}

	if response == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, response); err != nil {
		return &model.TransportError{
			Status:  resp.StatusCode,
			Message: "malformed response body",
			Err:     errors.Wrap(err, "failed to unmarshal response"),
		}
	}
	return nil
}

func productPath(id int) string {
	return "/products/" + strconv.Itoa(id)
}

// metricEndpoint folds product ids so the label set stays bounded.
func metricEndpoint(endpoint string) string {
	if rest, ok := strings.CutPrefix(endpoint, "/products/"); ok {
		if _, err := strconv.Atoi(rest); err == nil {
			return "/products/{id}"
		}
	}
	return endpoint
}

func summaries(products []model.Product) []model.Product {
	if products == nil {
		return []model.Product{}
	}
	return products
}

func (c *Client) String() string {
	return fmt.Sprintf("remote catalog at %s", c.baseURL)
}
