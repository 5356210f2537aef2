package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"daybook/internal/auth"
	"daybook/internal/identity/kakao"
)

type fakeOAuth struct {
	exchangeFn  func(ctx context.Context, code, redirectURI string) (kakao.Token, error)
	fetchUserFn func(ctx context.Context, accessToken string) (kakao.User, error)
}

func (f *fakeOAuth) ExchangeCode(ctx context.Context, code, redirectURI string) (kakao.Token, error) {
	if f.exchangeFn == nil {
		panic("ExchangeCode not configured")
	}
	return f.exchangeFn(ctx, code, redirectURI)
}

func (f *fakeOAuth) FetchUser(ctx context.Context, accessToken string) (kakao.User, error) {
	if f.fetchUserFn == nil {
		panic("FetchUser not configured")
	}
	return f.fetchUserFn(ctx, accessToken)
}

type recordingSessions struct {
	saved   map[string]kakao.Token
	deleted []string
	saveErr error
}

func (r *recordingSessions) SaveSession(ctx context.Context, accountID string, tok kakao.Token) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.saved == nil {
		r.saved = map[string]kakao.Token{}
	}
	r.saved[accountID] = tok
	return nil
}

func (r *recordingSessions) DeleteSession(ctx context.Context, accountID string) error {
	r.deleted = append(r.deleted, accountID)
	return nil
}

type authFixture struct {
	router   *gin.Engine
	tokens   *auth.TokenService
	sessions *recordingSessions
}

func newAuthFixture(t *testing.T, oauth oauthClient) authFixture {
	t.Helper()
	tokens, err := auth.NewTokenService(testTokenSecret, "daybook", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService error: %v", err)
	}
	log := quietLogger()
	sessions := &recordingSessions{}
	authh := NewAuthHandler(oauth, sessions, tokens, "https://daybook.test/callback", 3600, log)
	svc := &fakeBookingService{}
	return authFixture{
		router:   NewRouter(NewBookingHandler(svc, log), authh, tokens, log),
		tokens:   tokens,
		sessions: sessions,
	}
}

func TestKakaoCallback_IssuesSessionCookie(t *testing.T) {
	tok := kakao.Token{AccessToken: "at-1", RefreshToken: "rt-1"}
	oauth := &fakeOAuth{
		exchangeFn: func(ctx context.Context, code, redirectURI string) (kakao.Token, error) {
			if code != "abc" {
				t.Fatalf("exchange got code %q, want %q", code, "abc")
			}
			if redirectURI != "https://daybook.test/callback" {
				t.Fatalf("exchange got redirect %q", redirectURI)
			}
			return tok, nil
		},
		fetchUserFn: func(ctx context.Context, accessToken string) (kakao.User, error) {
			if accessToken != tok.AccessToken {
				t.Fatalf("fetch got token %q, want %q", accessToken, tok.AccessToken)
			}
			return kakao.User{AccountID: "12345", Nickname: "keon"}, nil
		},
	}
	f := newAuthFixture(t, oauth)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/kakao/callback?code=abc", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}

	var resp struct {
		AccountID string `json:"accountId"`
		Nickname  string `json:"nickname"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode error: %v", err)
	}
	if resp.AccountID != "12345" || resp.Nickname != "keon" {
		t.Fatalf("response = %+v, want account 12345 nickname keon", resp)
	}

	if got := f.sessions.saved["12345"]; got != tok {
		t.Fatalf("saved session = %+v, want %+v", got, tok)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie set")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}
	if acct, err := f.tokens.ParseAccountID(cookie.Value); err != nil || acct != "12345" {
		t.Fatalf("cookie parses to (%q, %v), want account 12345", acct, err)
	}
}

func TestKakaoCallback_MissingCode(t *testing.T) {
	f := newAuthFixture(t, &fakeOAuth{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/kakao/callback", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestKakaoCallback_UpstreamRejection(t *testing.T) {
	oauth := &fakeOAuth{
		exchangeFn: func(ctx context.Context, code, redirectURI string) (kakao.Token, error) {
			return kakao.Token{}, &kakao.AuthError{StatusCode: http.StatusUnauthorized, Op: "token"}
		},
	}
	f := newAuthFixture(t, oauth)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/kakao/callback?code=bad", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; body %s", rec.Code, rec.Body)
	}
	if len(f.sessions.saved) != 0 {
		t.Fatalf("sessions saved = %d, want 0", len(f.sessions.saved))
	}
}

func TestKakaoCallback_TransportFailure(t *testing.T) {
	oauth := &fakeOAuth{
		exchangeFn: func(ctx context.Context, code, redirectURI string) (kakao.Token, error) {
			return kakao.Token{}, fmt.Errorf("connection refused")
		},
	}
	f := newAuthFixture(t, oauth)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/kakao/callback?code=abc", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestLogout_DeletesSessionAndExpiresCookie(t *testing.T) {
	f := newAuthFixture(t, &fakeOAuth{})

	session, err := f.tokens.Create("12345")
	if err != nil {
		t.Fatalf("token create error: %v", err)
	}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204; body %s", rec.Code, rec.Body)
	}
	if len(f.sessions.deleted) != 1 || f.sessions.deleted[0] != "12345" {
		t.Fatalf("deleted sessions = %v, want [12345]", f.sessions.deleted)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no expiring cookie set")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Fatalf("cookie = %q max-age %d, want cleared and expired", cookie.Value, cookie.MaxAge)
	}
}

func TestLogout_RequiresSession(t *testing.T) {
	f := newAuthFixture(t, &fakeOAuth{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/auth/session", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
