package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pmcosta/dealfinder/internal/logger"
)

// tokenExpiryMargin refreshes tokens early so a request that starts just
// before expiry never carries a token that dies mid-flight.
const tokenExpiryMargin = 60 * time.Second

// defaultTokenLifetime is assumed when the token endpoint omits expires_in.
const defaultTokenLifetime = 1799

// TokenManager owns the OAuth2 client-credentials token for one
// provider-credential pair. Access is serialized by a mutex; the cached
// token is reused until it comes within the expiry margin.
type TokenManager struct {
	provider     string
	tokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client
	log          *zap.SugaredLogger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

func NewTokenManager(provider, tokenURL, clientID, clientSecret string, timeout time.Duration) *TokenManager {
	return &TokenManager{
		provider:     provider,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: timeout},
		log:          logger.GetLogger(provider + ".token"),
		now:          time.Now,
	}
}

// Token returns the cached token while it stays outside the expiry margin,
// otherwise fetches a fresh one.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiresAt.Add(-tokenExpiryMargin)) {
		return m.token, nil
	}
	return m.fetch(ctx)
}

// Invalidate drops the cached token so the next Token call forces a fresh
// credential exchange. Used after a request fails 401 with a token that
// looked valid.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiresAt = time.Time{}
}

func (m *TokenManager) fetch(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &APIError{Provider: m.provider, Kind: KindNetwork, Message: "invalid token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &APIError{Provider: m.provider, Kind: KindTimeout, Message: "token request timed out", Err: err}
		}
		return "", &APIError{Provider: m.provider, Kind: KindNetwork, Message: "network error during auth", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var payload struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.AccessToken == "" {
			return "", &APIError{Provider: m.provider, Kind: KindAuthFailed, Message: "token response missing access_token", Err: err}
		}
		expiresIn := payload.ExpiresIn
		if expiresIn <= 0 {
			expiresIn = defaultTokenLifetime
		}
		m.token = payload.AccessToken
		m.expiresAt = m.now().Add(time.Duration(expiresIn) * time.Second)
		m.log.Infow("token acquired", "expires_in", expiresIn)
		return m.token, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return "", &APIError{Provider: m.provider, Kind: KindAuthFailed, Status: resp.StatusCode, Message: "invalid client credentials"}

	default:
		return "", &APIError{Provider: m.provider, Kind: KindAuthFailed, Status: resp.StatusCode, Message: fmt.Sprintf("token fetch failed: %d", resp.StatusCode)}
	}
}
