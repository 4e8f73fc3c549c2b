package service

import (
	"blobvault/config"
	"blobvault/internal/apperr"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/context"
)

// tokenSkew is subtracted from a cached token's lifetime so a token is never
// handed out in the last moments before the issuer considers it expired.
const tokenSkew = 5 * time.Second

type serviceToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	issuedAt    time.Time
}

func (t serviceToken) valid(now time.Time) bool {
	deadline := t.issuedAt.Add(time.Duration(t.ExpiresIn)*time.Second - tokenSkew)
	return t.AccessToken != "" && now.Before(deadline)
}

var (
	svcTokenMu sync.RWMutex
	svcTokens  = make(map[string]serviceToken)

	// replaced in tests
	fetchServiceToken = fetchServiceTokenHTTP
)

// ServiceAccountToken returns a bearer token for calling the upstream API on
// behalf of a tenant, cached per tenant until close to expiry. The fetch runs
// outside the lock, so concurrent refreshes for one tenant may race; the last
// writer wins and every caller still gets a valid token.
func ServiceAccountToken(ctx context.Context, tenant string) (string, error) {
	now := time.Now()
	svcTokenMu.RLock()
	cached, ok := svcTokens[tenant]
	svcTokenMu.RUnlock()
	if ok && cached.valid(now) {
		return cached.AccessToken, nil
	}

	fresh, err := fetchServiceToken(ctx, tenant)
	if err != nil {
		return "", apperr.Internal(err)
	}
	fresh.issuedAt = now

	svcTokenMu.Lock()
	svcTokens[tenant] = fresh
	svcTokenMu.Unlock()
	return fresh.AccessToken, nil
}

func fetchServiceTokenHTTP(ctx context.Context, tenant string) (serviceToken, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", config.AppConfig.AuthClientID)
	form.Set("client_secret", config.AppConfig.AuthClientSecret)
	form.Set("tenant", tenant)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.AppConfig.AuthURI, strings.NewReader(form.Encode()))
	if err != nil {
		return serviceToken{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return serviceToken{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return serviceToken{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var token serviceToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return serviceToken{}, err
	}
	if token.AccessToken == "" {
		return serviceToken{}, fmt.Errorf("token endpoint returned empty token")
	}
	return token, nil
}
