package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"daybook/internal/auth"
	"daybook/internal/identity/kakao"
)

type oauthClient interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (kakao.Token, error)
	FetchUser(ctx context.Context, accessToken string) (kakao.User, error)
}

type sessionStore interface {
	SaveSession(ctx context.Context, accountID string, tok kakao.Token) error
	DeleteSession(ctx context.Context, accountID string) error
}

type AuthHandler struct {
	oauth       oauthClient
	sessions    sessionStore
	tokens      *auth.TokenService
	redirectURI string
	cookieTTL   int
	log         *slog.Logger
}

func NewAuthHandler(oauth oauthClient, sessions sessionStore, tokens *auth.TokenService, redirectURI string, cookieTTLSeconds int, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		oauth:       oauth,
		sessions:    sessions,
		tokens:      tokens,
		redirectURI: redirectURI,
		cookieTTL:   cookieTTLSeconds,
		log:         log.With(slog.String("component", "web.auth")),
	}
}

// GET /api/v1/auth/kakao/callback?code=
//
// Completes the OAuth dance: code -> tokens -> user, stores the provider
// session, and hands the browser a signed session cookie.
func (h *AuthHandler) KakaoCallback(c *gin.Context) {
	log := h.log.With(slog.String("handler", "KakaoCallback"))

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "code is required"})
		return
	}

	ctx := c.Request.Context()
	tok, err := h.oauth.ExchangeCode(ctx, code, h.redirectURI)
	if err != nil {
		h.writeAuthError(c, log, "code exchange failed", err)
		return
	}

	user, err := h.oauth.FetchUser(ctx, tok.AccessToken)
	if err != nil {
		h.writeAuthError(c, log, "user info failed", err)
		return
	}

	if err := h.sessions.SaveSession(ctx, user.AccountID, tok); err != nil {
		log.Error("session save failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	session, err := h.tokens.Create(user.AccountID)
	if err != nil {
		log.Error("session token issue failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	c.SetCookie(SessionCookie, session, h.cookieTTL, "/", "", false, true)
	log.Info("login completed", slog.String("account_id", user.AccountID))
	c.JSON(http.StatusOK, gin.H{
		"accountId": user.AccountID,
		"nickname":  user.Nickname,
	})
}

// DELETE /api/v1/auth/session
func (h *AuthHandler) Logout(c *gin.Context) {
	log := h.log.With(slog.String("handler", "Logout"))

	acct := accountID(c)
	if err := h.sessions.DeleteSession(c.Request.Context(), acct); err != nil {
		log.Error("session delete failed", slog.Any("err", err), slog.String("account_id", acct))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	log.Info("logout completed", slog.String("account_id", acct))
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) writeAuthError(c *gin.Context, log *slog.Logger, msg string, err error) {
	var authErr *kakao.AuthError
	if errors.As(err, &authErr) {
		log.Warn(msg, slog.Int("upstream_status", authErr.StatusCode))
		c.JSON(http.StatusUnauthorized, gin.H{"message": "kakao authentication failed"})
		return
	}
	log.Error(msg, slog.Any("err", err))
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
}
