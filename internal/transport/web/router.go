// Package web is the Gin HTTP surface in front of the booking service.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"daybook/internal/auth"
)

// SessionCookie carries the signed session token issued after Kakao login.
const SessionCookie = "daybook_session"

func NewRouter(bookings *BookingHandler, authh *AuthHandler, tokens *auth.TokenService, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), accessLog(log))

	v1 := r.Group("/api/v1")
	v1.GET("/bookings", bookings.ListMonth)
	v1.GET("/auth/kakao/callback", authh.KakaoCallback)

	secured := v1.Group("")
	secured.Use(RequireAccount(tokens, log))
	secured.POST("/booking", bookings.Create)
	secured.DELETE("/booking/:id", bookings.Delete)
	secured.GET("/bookings/me", bookings.ListMine)
	secured.DELETE("/auth/session", authh.Logout)

	return r
}

// accessLog logs one line per request with method, path, status and
// latency.
func accessLog(log *slog.Logger) gin.HandlerFunc {
	log = log.With(slog.String("component", "web.access"))
	return func(c *gin.Context) {
		startedAt := time.Now()
		c.Next()
		log.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(startedAt)),
		)
	}
}

// RequireAccount authenticates the request from the session cookie (or an
// Authorization bearer token) and puts the account id on the context.
func RequireAccount(tokens *auth.TokenService, log *slog.Logger) gin.HandlerFunc {
	log = log.With(slog.String("component", "web.auth"))
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || raw == "" {
			raw = bearerToken(c)
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		accountID, err := tokens.ParseAccountID(raw)
		if err != nil {
			log.Warn("session token rejected", slog.Any("err", err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid session"})
			return
		}
		c.Set(ctxAccountID, accountID)
		c.Next()
	}
}

const ctxAccountID = "account_id"

func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	h := c.GetHeader("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func accountID(c *gin.Context) string {
	v, _ := c.Get(ctxAccountID)
	id, _ := v.(string)
	return id
}
