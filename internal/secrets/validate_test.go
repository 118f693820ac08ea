package secrets

import (
	"strings"
	"testing"
)

func TestValidateRequired(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		err := ValidateRequired(map[string]string{
			"ADS_DEVELOPER_TOKEN": "token",
			"ADS_CLIENT_ID":       "id",
		})
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("empty value", func(t *testing.T) {
		err := ValidateRequired(map[string]string{
			"ADS_DEVELOPER_TOKEN": "token",
			"ADS_REFRESH_TOKEN":   "",
		})
		if err == nil {
			t.Fatal("Expected error for empty secret")
		}
		if !strings.Contains(err.Error(), "ADS_REFRESH_TOKEN") {
			t.Errorf("Expected error to name the empty key, got %q", err.Error())
		}
	})

	t.Run("whitespace counts as empty", func(t *testing.T) {
		if err := ValidateRequired(map[string]string{"KEY": "   "}); err == nil {
			t.Error("Expected whitespace-only value to fail validation")
		}
	})
}
