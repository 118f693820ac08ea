package utils

import "strings"

// ContainsString reports whether slice contains val.
func ContainsString(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}

// UniqueStrings returns the input with duplicates removed, keeping first
// occurrences in order.
func UniqueStrings(input []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, val := range input {
		if !seen[val] {
			result = append(result, val)
			seen[val] = true
		}
	}
	return result
}

// NormalizeCustomerID strips the dashes Google Ads UIs put into customer
// ids ("123-456-7890" -> "1234567890").
func NormalizeCustomerID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

// IsValidCustomerID reports whether id looks like a Google Ads customer
// id: exactly ten digits after normalization.
func IsValidCustomerID(id string) bool {
	id = NormalizeCustomerID(id)
	if len(id) != 10 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
