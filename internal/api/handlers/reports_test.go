package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/adsapi"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/apierr"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/config"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/report"
)

// fakeAdsClient returns scripted rows or a scripted error.
type fakeAdsClient struct {
	calls int32
	rows  []adsapi.Row
	err   error
}

func (f *fakeAdsClient) Search(ctx context.Context, customerID, query string) ([]adsapi.Row, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func testRow(id int64, name string, impressions, clicks, costMicros int64) adsapi.Row {
	return adsapi.Row{
		Campaign: &adsapi.Campaign{ID: adsapi.Int64String(id), Name: name, Status: "ENABLED"},
		Metrics: &adsapi.Metrics{
			Impressions: adsapi.Int64String(impressions),
			Clicks:      adsapi.Int64String(clicks),
			CostMicros:  adsapi.Int64String(costMicros),
			Conversions: 2,
		},
	}
}

func setupHandlerTest(t *testing.T) {
	t.Helper()
	t.Setenv("ADS_ACCOUNTS", "NL=5756290882,BE=9876543210")
	t.Setenv("ADS_LOGIN_CUSTOMER_ID", "")
	config.ResetForTest()
	t.Cleanup(config.ResetForTest)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) *apierr.Error {
	t.Helper()
	var resp apierr.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body not JSON: %v\n%s", err, rr.Body.String())
	}
	if resp.Error == nil {
		t.Fatalf("error body missing error object: %s", rr.Body.String())
	}
	return resp.Error
}

func campaignsRequest(customerID, rng string) *http.Request {
	url := "/api/accounts/" + customerID + "/campaigns"
	if rng != "" {
		url += "?range=" + rng
	}
	req := httptest.NewRequest(http.MethodGet, url, nil)
	return mux.SetURLVars(req, map[string]string{"customerID": customerID})
}

func TestGetAccounts(t *testing.T) {
	setupHandlerTest(t)
	svc := report.NewService(&fakeAdsClient{}, cache.NewMockCache(), time.Minute)

	rr := httptest.NewRecorder()
	GetAccounts(svc)(rr, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}

	var body struct {
		Accounts []report.Account `json:"accounts"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Accounts) != 2 || body.Accounts[0].Label != "NL" {
		t.Errorf("accounts = %+v", body.Accounts)
	}

	// Second request is served from the cache.
	rr = httptest.NewRecorder()
	GetAccounts(svc)(rr, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	if got := rr.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
}

func TestGetCampaigns(t *testing.T) {
	setupHandlerTest(t)
	ads := &fakeAdsClient{rows: []adsapi.Row{testRow(7, "NL - Brand", 1000, 50, 25_000_000)}}
	svc := report.NewService(ads, cache.NewMockCache(), time.Minute)

	rr := httptest.NewRecorder()
	GetCampaigns(svc)(rr, campaignsRequest("575-629-0882", "last_7_days"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var body struct {
		CustomerID string                  `json:"customer_id"`
		Range      string                  `json:"range"`
		Campaigns  []report.CampaignReport `json:"campaigns"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.CustomerID != "5756290882" {
		t.Errorf("customer_id = %q, want normalized id", body.CustomerID)
	}
	if body.Range != "last_7_days" {
		t.Errorf("range = %q", body.Range)
	}
	if len(body.Campaigns) != 1 || body.Campaigns[0].CampaignID != 7 {
		t.Errorf("campaigns = %+v", body.Campaigns)
	}
}

func TestGetCampaignsRejectsBadInput(t *testing.T) {
	setupHandlerTest(t)
	svc := report.NewService(&fakeAdsClient{}, cache.NewMockCache(), time.Minute)

	t.Run("invalid customer id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		GetCampaigns(svc)(rr, campaignsRequest("not-a-customer", ""))

		if rr.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rr.Code)
		}
		if apiErr := decodeError(t, rr); apiErr.Code != apierr.ErrAdsInvalidCustomer {
			t.Errorf("code = %s", apiErr.Code)
		}
	})

	t.Run("invalid range", func(t *testing.T) {
		rr := httptest.NewRecorder()
		GetCampaigns(svc)(rr, campaignsRequest("5756290882", "last_90_days"))

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		apiErr := decodeError(t, rr)
		if apiErr.Code != apierr.ErrValidationInvalidValue {
			t.Errorf("code = %s", apiErr.Code)
		}
		if _, ok := apiErr.Details["valid"]; !ok {
			t.Error("details should list the valid ranges")
		}
	})
}

func TestGetSummary(t *testing.T) {
	setupHandlerTest(t)
	ads := &fakeAdsClient{rows: []adsapi.Row{
		testRow(1, "NL - Brand", 1000, 50, 25_000_000),
		testRow(2, "NL - Generic", 3000, 150, 75_000_000),
	}}
	svc := report.NewService(ads, cache.NewMockCache(), time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/5756290882/summary", nil)
	req = mux.SetURLVars(req, map[string]string{"customerID": "5756290882"})
	rr := httptest.NewRecorder()
	GetSummary(svc)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var summary report.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Campaigns != 2 || summary.Impressions != 4000 || summary.Clicks != 200 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestWriteAdsErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apierr.ErrorCode
	}{
		{
			name:       "rate limited",
			err:        &adsapi.APIError{Type: adsapi.ErrorRateLimited, Message: "quota"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apierr.ErrAdsRateLimited,
		},
		{
			name:       "auth expired",
			err:        &adsapi.APIError{Type: adsapi.ErrorAuthExpired, Message: "token"},
			wantStatus: http.StatusBadGateway,
			wantCode:   apierr.ErrAdsAuthFailed,
		},
		{
			name:       "permission denied",
			err:        &adsapi.APIError{Type: adsapi.ErrorPermissionDenied, Message: "denied"},
			wantStatus: http.StatusBadGateway,
			wantCode:   apierr.ErrAdsAuthFailed,
		},
		{
			name:       "invalid customer",
			err:        &adsapi.APIError{Type: adsapi.ErrorInvalidCustomer, Message: "unknown"},
			wantStatus: http.StatusNotFound,
			wantCode:   apierr.ErrAdsInvalidCustomer,
		},
		{
			name:       "invalid query",
			err:        &adsapi.APIError{Type: adsapi.ErrorInvalidQuery, Message: "bad GAQL"},
			wantStatus: http.StatusBadGateway,
			wantCode:   apierr.ErrAdsQueryFailed,
		},
		{
			name:       "server error",
			err:        &adsapi.APIError{Type: adsapi.ErrorServerError, Message: "boom"},
			wantStatus: http.StatusBadGateway,
			wantCode:   apierr.ErrAdsUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHandlerTest(t)
			svc := report.NewService(&fakeAdsClient{err: tt.err}, cache.NewMockCache(), time.Minute)

			rr := httptest.NewRecorder()
			GetCampaigns(svc)(rr, campaignsRequest("5756290882", ""))

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if apiErr := decodeError(t, rr); apiErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", apiErr.Code, tt.wantCode)
			}
		})
	}
}
