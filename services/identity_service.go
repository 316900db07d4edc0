package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"go.uber.org/zap"
)

// UserInfo represents the profile returned by the identity provider's userinfo endpoint
type UserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone_number"`
}

// IdentityService fetches profiles from the identity provider
type IdentityService struct {
	userInfoURL string
	httpClient  *http.Client
}

// NewIdentityService creates a new identity service instance. The userinfo
// URL comes from IDENTITY_USERINFO_URL, or is derived from AUTH0_DOMAIN.
func NewIdentityService(cfg *config.Config) *IdentityService {
	url := cfg.IdentityUserInfoURL
	if url == "" && cfg.Auth0Domain != "" {
		domain := cfg.Auth0Domain
		if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
			domain = "https://" + domain
		}
		url = strings.TrimSuffix(domain, "/") + "/userinfo"
	}
	return &IdentityService{
		userInfoURL: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether a userinfo endpoint is configured
func (s *IdentityService) Enabled() bool {
	return s.userInfoURL != ""
}

// GetUserInfo fetches the caller's profile using their access token
func (s *IdentityService) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("identity provider userinfo endpoint is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call userinfo endpoint: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.FromContext(ctx).Warn("failed to close userinfo response", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("userinfo endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var userInfo UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return &userInfo, nil
}
