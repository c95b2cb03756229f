// Package identity is the REST client for the managed authentication
// provider. It owns sign-up, password sign-in, bearer-token verification and
// the privileged admin user listing. Profiles are not stored here; they live
// in the application database (see internal/store).
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	BaseURL    string
	ServiceKey string
	// JWTSecret enables local HS256 verification of access tokens. When empty
	// every verification is a remote round trip to the provider.
	JWTSecret string
}

type Client struct {
	baseURL    string
	serviceKey string
	jwtSecret  string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		jwtSecret:  cfg.JWTSecret,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// User is the provider-side identity record.
type User struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"user_metadata"`
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]string) (User, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	var user User
	if err := c.do(ctx, http.MethodPost, "/signup", body, "", &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Tokens, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var tokens Tokens
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", body, "", &tokens); err != nil {
		return Tokens{}, err
	}
	return tokens, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, accessToken, nil)
}

// VerifyToken resolves a bearer token to the identity it belongs to.
// With a configured JWT secret the token is parsed locally; otherwise the
// provider's /user endpoint is authoritative.
func (c *Client) VerifyToken(ctx context.Context, token string) (User, error) {
	if c.jwtSecret != "" {
		parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(c.jwtSecret), nil
		})
		if err != nil {
			return User{}, err
		}
		claims, ok := parsed.Claims.(*accessClaims)
		if !ok || !parsed.Valid || claims.Subject == "" {
			return User{}, jwt.ErrTokenInvalidClaims
		}
		return User{ID: claims.Subject, Email: claims.Email}, nil
	}

	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, token, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// ListUsersByEmail searches the provider's user list with the service key.
// Used when a caregiver links a child that has an identity but no profile.
func (c *Client) ListUsersByEmail(ctx context.Context, email string) ([]User, error) {
	path := "/admin/users?email=" + url.QueryEscape(strings.ToLower(email))
	var result struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, c.serviceKey, &result); err != nil {
		return nil, err
	}
	// The provider filters email as a substring; keep exact matches only.
	matched := result.Users[:0]
	for _, user := range result.Users {
		if strings.EqualFold(user.Email, email) {
			matched = append(matched, user)
		}
	}
	return matched, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, bearer string, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.serviceKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<10))
		return &ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("auth provider error %d: %s", e.Status, e.Body)
}
