package adsapi

import (
	"fmt"
	"strings"
)

// DateRange names a reporting window understood by the dashboard.
type DateRange string

const (
	RangeToday      DateRange = "today"
	RangeYesterday  DateRange = "yesterday"
	RangeLast7Days  DateRange = "last_7_days"
	RangeLast30Days DateRange = "last_30_days"
	RangeThisMonth  DateRange = "this_month"
	RangeLastMonth  DateRange = "last_month"
)

// gaqlRanges maps dashboard ranges onto GAQL DURING keywords.
var gaqlRanges = map[DateRange]string{
	RangeToday:      "TODAY",
	RangeYesterday:  "YESTERDAY",
	RangeLast7Days:  "LAST_7_DAYS",
	RangeLast30Days: "LAST_30_DAYS",
	RangeThisMonth:  "THIS_MONTH",
	RangeLastMonth:  "LAST_MONTH",
}

// ParseDateRange validates a range string from a query parameter.
// An empty string defaults to last_30_days.
func ParseDateRange(s string) (DateRange, error) {
	if s == "" {
		return RangeLast30Days, nil
	}
	rng := DateRange(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := gaqlRanges[rng]; !ok {
		return "", fmt.Errorf("invalid date range %q", s)
	}
	return rng, nil
}

// ValidDateRanges lists the accepted range values for error messages.
func ValidDateRanges() []string {
	return []string{
		string(RangeToday), string(RangeYesterday),
		string(RangeLast7Days), string(RangeLast30Days),
		string(RangeThisMonth), string(RangeLastMonth),
	}
}

func (r DateRange) during() string {
	return gaqlRanges[r]
}

// CampaignPerformanceQuery selects per-campaign delivery and conversion
// metrics for the window. Removed campaigns are noise on a dashboard.
func CampaignPerformanceQuery(rng DateRange) string {
	return fmt.Sprintf(`SELECT
  campaign.id,
  campaign.name,
  campaign.status,
  metrics.impressions,
  metrics.clicks,
  metrics.cost_micros,
  metrics.conversions,
  metrics.conversions_value
FROM campaign
WHERE segments.date DURING %s
  AND campaign.status != 'REMOVED'
ORDER BY metrics.cost_micros DESC`, rng.during())
}

// AccountHierarchyQuery lists the direct child accounts of the login
// (MCC) customer.
func AccountHierarchyQuery() string {
	return `SELECT
  customer_client.id,
  customer_client.descriptive_name,
  customer_client.level,
  customer_client.currency_code,
  customer_client.manager
FROM customer_client
WHERE customer_client.level <= 1`
}
