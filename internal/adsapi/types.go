package adsapi

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Int64String decodes the ads REST API's int64 fields, which arrive as
// JSON strings.
type Int64String int64

func (n *Int64String) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty int64 value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int64 value %q: %w", s, err)
		}
		*n = Int64String(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Int64String(v)
	return nil
}

func (n Int64String) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(n), 10))
}

func (n Int64String) Int64() int64 { return int64(n) }

// searchRequest is the googleAds:search request body.
type searchRequest struct {
	Query     string `json:"query"`
	PageToken string `json:"pageToken,omitempty"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Results       []Row  `json:"results"`
	NextPageToken string `json:"nextPageToken,omitempty"`
	FieldMask     string `json:"fieldMask,omitempty"`
}

// Row is a single GoogleAdsRow; only the attributes a query selects
// are populated.
type Row struct {
	Campaign       *Campaign       `json:"campaign,omitempty"`
	Metrics        *Metrics        `json:"metrics,omitempty"`
	CustomerClient *CustomerClient `json:"customerClient,omitempty"`
}

type Campaign struct {
	ResourceName string      `json:"resourceName,omitempty"`
	ID           Int64String `json:"id"`
	Name         string      `json:"name"`
	Status       string      `json:"status,omitempty"`
}

type Metrics struct {
	Impressions      Int64String `json:"impressions"`
	Clicks           Int64String `json:"clicks"`
	CostMicros       Int64String `json:"costMicros"`
	Conversions      float64     `json:"conversions"`
	ConversionsValue float64     `json:"conversionsValue"`
}

type CustomerClient struct {
	ResourceName    string      `json:"resourceName,omitempty"`
	ID              Int64String `json:"id"`
	DescriptiveName string      `json:"descriptiveName"`
	Level           Int64String `json:"level"`
	CurrencyCode    string      `json:"currencyCode,omitempty"`
	Manager         bool        `json:"manager,omitempty"`
}
