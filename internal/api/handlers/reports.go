package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/adsapi"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/apierr"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/report"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/utils"
)

// cacheHeader marks whether the response was served from the cache.
const cacheHeader = "X-Cache"

func writeJSON(w http.ResponseWriter, hit bool, v any) {
	w.Header().Set("Content-Type", "application/json")
	if hit {
		w.Header().Set(cacheHeader, "HIT")
	} else {
		w.Header().Set(cacheHeader, "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAdsError maps upstream classification onto API error codes.
func writeAdsError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *adsapi.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Type {
		case adsapi.ErrorRateLimited:
			apierr.WriteErrorWithContext(w, r, apierr.AdsRateLimited())
			return
		case adsapi.ErrorAuthExpired, adsapi.ErrorPermissionDenied:
			apierr.WriteErrorWithContext(w, r, apierr.AdsAuthFailed())
			return
		case adsapi.ErrorInvalidCustomer:
			apierr.WriteErrorWithContext(w, r, apierr.AdsInvalidCustomer(apiErr.Message))
			return
		case adsapi.ErrorInvalidQuery:
			apierr.WriteErrorWithContext(w, r, apierr.AdsQueryFailed(apiErr.Message))
			return
		}
	}
	logger.ErrorContext(r.Context(), "Upstream report fetch failed", "error", err)
	apierr.WriteErrorWithContext(w, r, apierr.AdsUnavailable("ads API request failed"))
}

// GetAccounts lists the configured dashboard accounts.
// GET /api/accounts
func GetAccounts(svc *report.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, hit, err := svc.Accounts(r.Context())
		if err != nil {
			writeAdsError(w, r, err)
			return
		}
		writeJSON(w, hit, map[string]any{"accounts": accounts})
	}
}

func reportParams(w http.ResponseWriter, r *http.Request) (string, adsapi.DateRange, bool) {
	customerID := utils.NormalizeCustomerID(mux.Vars(r)["customerID"])
	if !utils.IsValidCustomerID(customerID) {
		apierr.WriteErrorWithContext(w, r, apierr.AdsInvalidCustomer(mux.Vars(r)["customerID"]))
		return "", "", false
	}
	rng, err := adsapi.ParseDateRange(r.URL.Query().Get("range"))
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("range", err.Error()).
			WithDetails(map[string]interface{}{"valid": adsapi.ValidDateRanges()}))
		return "", "", false
	}
	return customerID, rng, true
}

// GetCampaigns returns derived campaign rows for one account.
// GET /api/accounts/{customerID}/campaigns?range=last_30_days
func GetCampaigns(svc *report.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, rng, ok := reportParams(w, r)
		if !ok {
			return
		}
		campaigns, hit, err := svc.CampaignPerformance(r.Context(), customerID, rng)
		if err != nil {
			writeAdsError(w, r, err)
			return
		}
		writeJSON(w, hit, map[string]any{
			"customer_id": customerID,
			"range":       string(rng),
			"campaigns":   campaigns,
		})
	}
}

// GetSummary returns account-level aggregates for one window.
// GET /api/accounts/{customerID}/summary?range=last_30_days
func GetSummary(svc *report.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, rng, ok := reportParams(w, r)
		if !ok {
			return
		}
		summary, hit, err := svc.Summary(r.Context(), customerID, rng)
		if err != nil {
			writeAdsError(w, r, err)
			return
		}
		writeJSON(w, hit, summary)
	}
}
