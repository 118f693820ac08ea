package report

import (
	"fmt"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/adsapi"
)

// Cache keys are logical; the store prepends its reserved namespace.

func accountsKey() string {
	return "accounts"
}

func campaignsKey(customerID string, rng adsapi.DateRange) string {
	return fmt.Sprintf("campaigns:%s:%s", customerID, rng)
}

func summaryKey(customerID string, rng adsapi.DateRange) string {
	return fmt.Sprintf("summary:%s:%s", customerID, rng)
}

// AccountPattern matches every cached report for one account, for
// targeted invalidation.
func AccountPattern(customerID string) string {
	return fmt.Sprintf("^(campaigns|summary):%s:", customerID)
}
