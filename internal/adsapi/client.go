package adsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/circuitbreaker"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/config"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/httpx"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/metrics"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/tracing"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/utils"
)

// maxPages bounds pagination; a dashboard query should never need more.
const maxPages = 10

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Client is the surface the report service depends on.
type Client interface {
	Search(ctx context.Context, customerID, query string) ([]Row, error)
}

// HTTPClient talks to the Google Ads REST API with pacing, retries and
// a circuit breaker.
type HTTPClient struct {
	breaker *circuitbreaker.Breaker
}

// NewClient builds the production client.
func NewClient() *HTTPClient {
	return &HTTPClient{
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "ads-search",
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          60 * time.Second,
		}),
	}
}

// Search runs a GAQL query against one customer account, following
// nextPageToken until the result set is complete.
func (c *HTTPClient) Search(ctx context.Context, customerID, query string) ([]Row, error) {
	customerID = utils.NormalizeCustomerID(customerID)
	if !utils.IsValidCustomerID(customerID) {
		return nil, &APIError{
			Type:    ErrorInvalidCustomer,
			Message: fmt.Sprintf("invalid customer id %q", customerID),
		}
	}

	resource := queryResource(query)
	ctx, span := tracing.StartSpan(ctx, "adsapi.search",
		trace.WithAttributes(
			attribute.String("ads.customer_id", customerID),
			attribute.String("ads.resource", resource),
		))
	defer span.End()

	start := time.Now()
	var rows []Row
	err := c.breaker.Call(func() error {
		var pageToken string
		for page := 0; page < maxPages; page++ {
			resp, err := c.searchPage(ctx, customerID, query, pageToken)
			if err != nil {
				return err
			}
			rows = append(rows, resp.Results...)
			if resp.NextPageToken == "" {
				return nil
			}
			pageToken = resp.NextPageToken
		}
		return fmt.Errorf("search exceeded %d pages for customer %s", maxPages, customerID)
	})
	metrics.UpstreamSearchDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// searchPage fetches a single result page. A 401 invalidates the
// cached access token and retries once with a fresh one.
func (c *HTTPClient) searchPage(ctx context.Context, customerID, query, pageToken string) (*SearchResponse, error) {
	resp, err := c.doSearch(ctx, customerID, query, pageToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		globalTokenManager.invalidate()
		resp, err = c.doSearch(ctx, customerID, query, pageToken)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyError(resp)
	}

	var page SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return &page, nil
}

func (c *HTTPClient) doSearch(ctx context.Context, customerID, query, pageToken string) (*http.Response, error) {
	cfg := config.Load()

	token, err := getAccessToken()
	if err != nil {
		return nil, fmt.Errorf("obtaining access token: %w", err)
	}

	body, err := json.Marshal(searchRequest{Query: query, PageToken: pageToken})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/customers/%s/googleAds:search",
		strings.TrimRight(cfg.AdsAPIBaseURL, "/"), cfg.AdsAPIVersion, customerID)

	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("developer-token", cfg.AdsDeveloperToken)
		if cfg.AdsLoginCustomerID != "" {
			req.Header.Set("login-customer-id", cfg.AdsLoginCustomerID)
		}
		return req, nil
	}

	pre := func(ctx context.Context, attempt int) error {
		return waitForRateLimit(ctx)
	}

	return httpx.DoWithRetryFactory(httpClient, build, pre)
}

// queryResource pulls the FROM resource out of a GAQL query for metric
// labels.
func queryResource(query string) string {
	upper := strings.ToUpper(query)
	idx := strings.Index(upper, "FROM ")
	if idx < 0 {
		return "unknown"
	}
	rest := strings.TrimSpace(query[idx+len("FROM "):])
	if end := strings.IndexAny(rest, " \n\t"); end > 0 {
		return rest[:end]
	}
	return rest
}
