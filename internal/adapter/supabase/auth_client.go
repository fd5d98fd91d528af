// Package supabase talks to the Supabase Auth REST API.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/middleware/auth"
)

// ErrInvalidToken is returned when Supabase rejects the access token.
var ErrInvalidToken = errors.New("supabase rejected access token")

// User is the subset of the /auth/v1/user response the service needs.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthClient verifies access tokens against Supabase Auth.
type AuthClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// NewAuthClient creates a new Supabase Auth client
func NewAuthClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *AuthClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AuthClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

// GetUser returns the user the access token belongs to.
func (c *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	startTime := time.Now()
	endpoint := c.baseURL + "/auth/v1/user"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Supabase auth request failed",
			zap.String("url", endpoint),
			zap.Duration("request_duration", time.Since(startTime)),
			zap.Error(err))
		return nil, fmt.Errorf("supabase auth request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.Debug("Supabase rejected access token", zap.Int("status_code", resp.StatusCode))
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("Supabase auth returned unexpected status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", body))
		return nil, fmt.Errorf("supabase auth error: status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}

	c.logger.Debug("Supabase user verified",
		zap.String("user_id", user.ID),
		zap.Duration("request_duration", time.Since(startTime)))
	return &user, nil
}

// VerifyToken implements auth.RemoteVerifier.
func (c *AuthClient) VerifyToken(ctx context.Context, accessToken string) (*auth.AuthUser, error) {
	user, err := c.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return &auth.AuthUser{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}
