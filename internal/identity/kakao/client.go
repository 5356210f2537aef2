package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AuthError is a Kakao API failure carrying the upstream HTTP status, so
// callers can distinguish an expired token (401) from everything else.
type AuthError struct {
	StatusCode int
	Op         string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("kakao %s responded with status %d", e.Op, e.StatusCode)
}

type User struct {
	AccountID string
	Nickname  string
	Email     string
}

type Token struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int    `json:"expires_in"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in"`
}

type ClientConfig struct {
	APIBaseURL   string
	AuthBaseURL  string
	RESTAPIKey   string
	ClientSecret string
	Timeout      time.Duration
}

// Client talks to the Kakao user-info and OAuth token endpoints.
type Client struct {
	http        *http.Client
	apiBaseURL  string
	authBaseURL string
	restAPIKey  string
	secret      string
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http:        &http.Client{Timeout: timeout},
		apiBaseURL:  strings.TrimRight(cfg.APIBaseURL, "/"),
		authBaseURL: strings.TrimRight(cfg.AuthBaseURL, "/"),
		restAPIKey:  cfg.RESTAPIKey,
		secret:      cfg.ClientSecret,
	}
}

// FetchUser resolves the user behind an access token.
func (c *Client) FetchUser(ctx context.Context, accessToken string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/v2/user/me", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("kakao user info call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, &AuthError{StatusCode: resp.StatusCode, Op: "user info"}
	}

	var body struct {
		ID           *int64 `json:"id"`
		KakaoAccount struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname string `json:"nickname"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return User{}, fmt.Errorf("kakao user info decode: %w", err)
	}
	if body.ID == nil {
		return User{}, fmt.Errorf("kakao user info response has no id")
	}

	return User{
		AccountID: strconv.FormatInt(*body.ID, 10),
		Nickname:  body.KakaoAccount.Profile.Nickname,
		Email:     body.KakaoAccount.Email,
	}, nil
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (Token, error) {
	if c.restAPIKey == "" {
		return Token{}, fmt.Errorf("kakao REST API key is not configured")
	}
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {c.restAPIKey},
		"redirect_uri": {redirectURI},
		"code":         {code},
	}
	if c.secret != "" {
		form.Set("client_secret", c.secret)
	}
	return c.token(ctx, form, "code exchange")
}

// Refresh rotates an expired access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.restAPIKey},
		"refresh_token": {refreshToken},
	}
	if c.secret != "" {
		form.Set("client_secret", c.secret)
	}
	return c.token(ctx, form, "token refresh")
}

func (c *Client) token(ctx context.Context, form url.Values, op string) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("kakao %s call: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Token{}, &AuthError{StatusCode: resp.StatusCode, Op: op}
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return Token{}, fmt.Errorf("kakao %s decode: %w", op, err)
	}
	if tok.AccessToken == "" {
		return Token{}, fmt.Errorf("kakao %s response has no access token", op)
	}
	return tok, nil
}
