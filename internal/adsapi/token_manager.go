package adsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/config"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/httpx"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/secrets"
)

// tokenURL is a package variable so tests can point it at a local server.
var tokenURL = "https://oauth2.googleapis.com/token"

// tokenManager exchanges the long-lived refresh token for short-lived
// access tokens, refreshing proactively before expiry.
type tokenManager struct {
	mu           sync.RWMutex
	accessToken  string
	tokenExpiry  time.Time
	refreshTimer *time.Timer

	// credentials, replaceable at runtime for rotation
	clientID     string
	clientSecret string
	refreshToken string
}

var globalTokenManager = &tokenManager{}

// ValidateCredentials checks the OAuth credentials at startup, before
// the server begins taking traffic.
func ValidateCredentials() error {
	return initTokenManager()
}

// RotateCredentials swaps OAuth credentials at runtime with rollback
// on failure, enabling zero-downtime rotation.
func RotateCredentials(newClientID, newClientSecret, newRefreshToken string) error {
	return globalTokenManager.rotateCredentials(newClientID, newClientSecret, newRefreshToken)
}

func initTokenManager() error {
	cfg := config.Load()

	globalTokenManager.mu.Lock()
	defer globalTokenManager.mu.Unlock()

	globalTokenManager.clientID = cfg.AdsClientID
	globalTokenManager.clientSecret = cfg.AdsClientSecret
	globalTokenManager.refreshToken = cfg.AdsRefreshToken

	if err := secrets.ValidateRequired(map[string]string{
		"ADS_CLIENT_ID":     globalTokenManager.clientID,
		"ADS_CLIENT_SECRET": globalTokenManager.clientSecret,
		"ADS_REFRESH_TOKEN": globalTokenManager.refreshToken,
	}); err != nil {
		return err
	}

	log.Printf("✓ OAuth credentials validated (client_id: %s)", secrets.Mask(globalTokenManager.clientID))
	return nil
}

// getAccessToken returns a valid access token, refreshing if necessary.
func (tm *tokenManager) getAccessToken() (string, error) {
	tm.mu.RLock()
	// 60s buffer so a token never expires mid-request
	if tm.accessToken != "" && time.Now().Add(60*time.Second).Before(tm.tokenExpiry) {
		token := tm.accessToken
		tm.mu.RUnlock()
		return token, nil
	}
	tm.mu.RUnlock()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if tm.accessToken != "" && time.Now().Add(60*time.Second).Before(tm.tokenExpiry) {
		return tm.accessToken, nil
	}

	return tm.refreshTokenLocked()
}

// invalidate drops the cached access token so the next call refreshes.
func (tm *tokenManager) invalidate() {
	tm.mu.Lock()
	tm.accessToken = ""
	tm.mu.Unlock()
}

// refreshTokenLocked fetches a new access token. Must be called with
// the write lock held.
func (tm *tokenManager) refreshTokenLocked() (string, error) {
	if tm.clientID == "" || tm.clientSecret == "" || tm.refreshToken == "" {
		return "", fmt.Errorf("OAuth credentials not initialized")
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", tm.clientID)
	data.Set("client_secret", tm.clientSecret)
	data.Set("refresh_token", tm.refreshToken)

	build := func() (*http.Request, error) {
		req, _ := http.NewRequest("POST", tokenURL, strings.NewReader(data.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	// Token requests share the upstream pacing so retries never burst.
	pre := func(ctx context.Context, attempt int) error {
		return waitForRateLimit(ctx)
	}

	resp, err := httpx.DoWithRetryFactory(httpClient, build, pre)
	if err != nil {
		log.Printf("⚠️ Failed to request access token: %v", err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		log.Printf("⚠️ Token request failed with status: %s", resp.Status)
		return "", fmt.Errorf("token request failed: %s", resp.Status)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		log.Printf("⚠️ Failed to decode token response: %v", err)
		return "", err
	}

	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("received empty access token")
	}

	tm.accessToken = tokenResp.AccessToken
	expiryDuration := time.Duration(tokenResp.ExpiresIn) * time.Second
	if expiryDuration > 120*time.Second {
		expiryDuration -= 60 * time.Second // renew 60s early
	} else {
		expiryDuration = expiryDuration / 2 // short-lived token, renew at half-life
	}
	tm.tokenExpiry = time.Now().Add(expiryDuration)

	if tm.refreshTimer != nil {
		tm.refreshTimer.Stop()
	}
	tm.refreshTimer = time.AfterFunc(expiryDuration, func() {
		tm.mu.Lock()
		defer tm.mu.Unlock()
		log.Printf("🔄 Proactively refreshing OAuth token")
		if _, err := tm.refreshTokenLocked(); err != nil {
			log.Printf("⚠️ Proactive token refresh failed: %v", err)
		} else {
			log.Printf("✓ Token refreshed successfully")
		}
	})

	log.Printf("✓ Obtained access token (expires in %v)", expiryDuration)
	return tm.accessToken, nil
}

func (tm *tokenManager) rotateCredentials(newClientID, newClientSecret, newRefreshToken string) error {
	if newClientID == "" || newClientSecret == "" || newRefreshToken == "" {
		return fmt.Errorf("new credentials cannot be empty")
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	oldID := tm.clientID
	oldSecret := tm.clientSecret
	oldRefresh := tm.refreshToken
	tm.clientID = newClientID
	tm.clientSecret = newClientSecret
	tm.refreshToken = newRefreshToken

	if _, err := tm.refreshTokenLocked(); err != nil {
		tm.clientID = oldID
		tm.clientSecret = oldSecret
		tm.refreshToken = oldRefresh
		return fmt.Errorf("failed to authenticate with new credentials: %w", err)
	}

	log.Printf("✓ Credentials rotated successfully (old: %s, new: %s)",
		secrets.Mask(oldID), secrets.Mask(newClientID))
	return nil
}

// getAccessToken is the package-level accessor used by the client.
func getAccessToken() (string, error) {
	return globalTokenManager.getAccessToken()
}

// ResetTokenManagerForTest clears token manager state; for tests only.
func ResetTokenManagerForTest() {
	globalTokenManager.mu.Lock()
	defer globalTokenManager.mu.Unlock()
	if globalTokenManager.refreshTimer != nil {
		globalTokenManager.refreshTimer.Stop()
		globalTokenManager.refreshTimer = nil
	}
	globalTokenManager.accessToken = ""
	globalTokenManager.tokenExpiry = time.Time{}
	globalTokenManager.clientID = ""
	globalTokenManager.clientSecret = ""
	globalTokenManager.refreshToken = ""
}
