package report

import (
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/adsapi"
)

// Account is one dashboard account entry.
type Account struct {
	Label        string `json:"label"`
	CustomerID   string `json:"customer_id"`
	Name         string `json:"name,omitempty"`
	CurrencyCode string `json:"currency_code,omitempty"`
}

// CampaignReport is one campaign row with derived metrics. Money is in
// whole currency units, converted from micros at this edge.
type CampaignReport struct {
	CampaignID       int64   `json:"campaign_id"`
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	Impressions      int64   `json:"impressions"`
	Clicks           int64   `json:"clicks"`
	Cost             float64 `json:"cost"`
	Conversions      float64 `json:"conversions"`
	ConversionsValue float64 `json:"conversions_value"`
	CTR              float64 `json:"ctr"`
	AvgCPC           float64 `json:"avg_cpc"`
	ConversionRate   float64 `json:"conversion_rate"`
	CPA              float64 `json:"cpa"`
	ROAS             float64 `json:"roas"`
}

// Summary aggregates an account's campaigns over one window.
type Summary struct {
	CustomerID       string  `json:"customer_id"`
	Range            string  `json:"range"`
	Campaigns        int     `json:"campaigns"`
	Impressions      int64   `json:"impressions"`
	Clicks           int64   `json:"clicks"`
	Cost             float64 `json:"cost"`
	Conversions      float64 `json:"conversions"`
	ConversionsValue float64 `json:"conversions_value"`
	CTR              float64 `json:"ctr"`
	AvgCPC           float64 `json:"avg_cpc"`
	ConversionRate   float64 `json:"conversion_rate"`
	CPA              float64 `json:"cpa"`
	ROAS             float64 `json:"roas"`
}

const microsPerUnit = 1_000_000

func fromMicros(m int64) float64 {
	return float64(m) / microsPerUnit
}

// safeDiv guards the zero-denominator cases that show up constantly in
// fresh campaigns.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// deriveCampaign computes the dashboard metrics for one campaign row.
func deriveCampaign(row adsapi.Row) CampaignReport {
	r := CampaignReport{}
	if row.Campaign != nil {
		r.CampaignID = row.Campaign.ID.Int64()
		r.Name = row.Campaign.Name
		r.Status = row.Campaign.Status
	}
	if row.Metrics == nil {
		return r
	}
	m := row.Metrics
	r.Impressions = m.Impressions.Int64()
	r.Clicks = m.Clicks.Int64()
	r.Cost = fromMicros(m.CostMicros.Int64())
	r.Conversions = m.Conversions
	r.ConversionsValue = m.ConversionsValue

	clicks := float64(r.Clicks)
	r.CTR = safeDiv(clicks, float64(r.Impressions)) * 100
	r.AvgCPC = safeDiv(r.Cost, clicks)
	r.ConversionRate = safeDiv(r.Conversions, clicks) * 100
	r.CPA = safeDiv(r.Cost, r.Conversions)
	r.ROAS = safeDiv(r.ConversionsValue, r.Cost)
	return r
}

// deriveSummary aggregates campaign reports; ratios are recomputed
// from the totals rather than averaged across campaigns.
func deriveSummary(customerID string, rng adsapi.DateRange, campaigns []CampaignReport) *Summary {
	s := &Summary{
		CustomerID: customerID,
		Range:      string(rng),
		Campaigns:  len(campaigns),
	}
	for _, c := range campaigns {
		s.Impressions += c.Impressions
		s.Clicks += c.Clicks
		s.Cost += c.Cost
		s.Conversions += c.Conversions
		s.ConversionsValue += c.ConversionsValue
	}
	clicks := float64(s.Clicks)
	s.CTR = safeDiv(clicks, float64(s.Impressions)) * 100
	s.AvgCPC = safeDiv(s.Cost, clicks)
	s.ConversionRate = safeDiv(s.Conversions, clicks) * 100
	s.CPA = safeDiv(s.Cost, s.Conversions)
	s.ROAS = safeDiv(s.ConversionsValue, s.Cost)
	return s
}
