package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/adsapi"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/config"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/metrics"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/secrets"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/utils"
)

// Service is the read-through layer between the HTTP handlers and the
// ads API. Every fetch path checks the cache first; concurrent misses
// on the same key are deduplicated with singleflight so one upstream
// call serves them all.
type Service struct {
	ads   adsapi.Client
	cache cache.Cache
	ttl   time.Duration
	sf    singleflight.Group
}

// NewService wires a service; ttl 0 falls back to the store default at
// Set time.
func NewService(ads adsapi.Client, c cache.Cache, ttl time.Duration) *Service {
	return &Service{ads: ads, cache: c, ttl: ttl}
}

// Accounts returns the configured dashboard accounts, enriched with
// names from the MCC hierarchy when available. The bool reports a
// cache hit.
func (s *Service) Accounts(ctx context.Context) ([]Account, bool, error) {
	key := accountsKey()
	if v, ok := cache.GetAs[[]Account](s.cache, key); ok {
		metrics.CacheHits.WithLabelValues("accounts").Inc()
		return v, true, nil
	}
	metrics.CacheMisses.WithLabelValues("accounts").Inc()

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		accounts, err := s.fetchAccounts(ctx)
		if err != nil {
			return nil, err
		}
		// A false here means the entry was rejected or evicted; the
		// result is still correct, so it never drives control flow.
		s.cache.Set(key, accounts, s.ttl)
		return accounts, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]Account), false, nil
}

func (s *Service) fetchAccounts(ctx context.Context) ([]Account, error) {
	cfg := config.Load()
	if len(cfg.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured (ADS_ACCOUNTS)")
	}

	accounts := make([]Account, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		accounts = append(accounts, Account{Label: a.Label, CustomerID: a.CustomerID})
	}

	// Hierarchy names are decoration; the dashboard works without them.
	if cfg.AdsLoginCustomerID != "" {
		rows, err := s.ads.Search(ctx, cfg.AdsLoginCustomerID, adsapi.AccountHierarchyQuery())
		if err != nil {
			logger.Warn("Account hierarchy lookup failed, serving configured accounts", "error", err)
			return accounts, nil
		}
		byID := make(map[string]*adsapi.CustomerClient, len(rows))
		for _, row := range rows {
			if row.CustomerClient != nil {
				byID[fmt.Sprintf("%d", row.CustomerClient.ID.Int64())] = row.CustomerClient
			}
		}
		for i := range accounts {
			if cc, ok := byID[utils.NormalizeCustomerID(accounts[i].CustomerID)]; ok {
				accounts[i].Name = cc.DescriptiveName
				accounts[i].CurrencyCode = cc.CurrencyCode
			}
		}
	}
	return accounts, nil
}

// CampaignPerformance returns derived campaign rows for one account
// and window. The bool reports a cache hit.
func (s *Service) CampaignPerformance(ctx context.Context, customerID string, rng adsapi.DateRange) ([]CampaignReport, bool, error) {
	customerID = utils.NormalizeCustomerID(customerID)
	key := campaignsKey(customerID, rng)
	if v, ok := cache.GetAs[[]CampaignReport](s.cache, key); ok {
		metrics.CacheHits.WithLabelValues("campaigns").Inc()
		return v, true, nil
	}
	metrics.CacheMisses.WithLabelValues("campaigns").Inc()

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		reports, err := s.fetchCampaigns(ctx, customerID, rng)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, reports, s.ttl)
		return reports, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]CampaignReport), false, nil
}

func (s *Service) fetchCampaigns(ctx context.Context, customerID string, rng adsapi.DateRange) ([]CampaignReport, error) {
	rows, err := s.ads.Search(ctx, customerID, adsapi.CampaignPerformanceQuery(rng))
	if err != nil {
		return nil, err
	}
	reports := make([]CampaignReport, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, deriveCampaign(row))
	}
	return reports, nil
}

// Summary returns account-level aggregates for one window. The bool
// reports a cache hit.
func (s *Service) Summary(ctx context.Context, customerID string, rng adsapi.DateRange) (*Summary, bool, error) {
	customerID = utils.NormalizeCustomerID(customerID)
	key := summaryKey(customerID, rng)
	if v, ok := cache.GetAs[*Summary](s.cache, key); ok {
		metrics.CacheHits.WithLabelValues("summary").Inc()
		return v, true, nil
	}
	metrics.CacheMisses.WithLabelValues("summary").Inc()

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		campaigns, err := s.fetchCampaigns(ctx, customerID, rng)
		if err != nil {
			return nil, err
		}
		summary := deriveSummary(customerID, rng, campaigns)
		s.cache.Set(key, summary, s.ttl)
		return summary, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Summary), false, nil
}

// Invalidate drops every cached report for one account.
func (s *Service) Invalidate(customerID string) (int, error) {
	customerID = utils.NormalizeCustomerID(customerID)
	removed, err := s.cache.ClearPattern(AccountPattern(customerID))
	if err == nil && removed > 0 {
		logger.Info("Invalidated cached reports",
			"customer_id", secrets.MaskCustomerID(customerID), "removed", removed)
	}
	return removed, err
}
