package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"daybook/internal/identity"
)

const (
	sessionKeyPrefix   = "daybook:session:"
	userCacheKeyPrefix = "daybook:kakao:user:"
)

// userFetcher is what SessionStore needs from the Kakao client.
type userFetcher interface {
	FetchUser(ctx context.Context, accessToken string) (User, error)
	Refresh(ctx context.Context, refreshToken string) (Token, error)
}

// SessionStore keeps provider tokens per account in Redis and resolves
// nicknames through the Kakao API, caching user-info responses by access
// token. It implements identity.Reader.
type SessionStore struct {
	rdb     *redis.Client
	client  userFetcher
	userTTL time.Duration
}

func NewSessionStore(rdb *redis.Client, client *Client, userTTL time.Duration) *SessionStore {
	if userTTL <= 0 {
		userTTL = 5 * time.Minute
	}
	return &SessionStore{rdb: rdb, client: client, userTTL: userTTL}
}

func (s *SessionStore) SaveSession(ctx context.Context, accountID string, tok Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKeyPrefix+accountID, b, 0).Err()
}

func (s *SessionStore) DeleteSession(ctx context.Context, accountID string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+accountID).Err()
}

// Nickname resolves the account's display name through its stored session.
// An expired access token is refreshed once and the rotated tokens replace
// the stored session; a second failure surfaces as-is.
func (s *SessionStore) Nickname(ctx context.Context, accountID string) (string, error) {
	tok, err := s.session(ctx, accountID)
	if err != nil {
		return "", err
	}

	user, err := s.cachedUser(ctx, tok.AccessToken)
	if err == nil {
		return user.Nickname, nil
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.StatusCode != 401 || tok.RefreshToken == "" {
		return "", err
	}

	newTok, err := s.client.Refresh(ctx, tok.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh after expired access token: %w", err)
	}
	if newTok.RefreshToken == "" {
		// Kakao omits the refresh token when it is still valid.
		newTok.RefreshToken = tok.RefreshToken
	}

	user, err = s.cachedUser(ctx, newTok.AccessToken)
	if err != nil {
		return "", fmt.Errorf("user info after token refresh: %w", err)
	}
	if err := s.SaveSession(ctx, accountID, newTok); err != nil {
		return "", err
	}
	return user.Nickname, nil
}

func (s *SessionStore) session(ctx context.Context, accountID string) (Token, error) {
	b, err := s.rdb.Get(ctx, sessionKeyPrefix+accountID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Token{}, identity.ErrNoSession
	}
	if err != nil {
		return Token{}, err
	}
	var tok Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (s *SessionStore) cachedUser(ctx context.Context, accessToken string) (User, error) {
	key := userCacheKeyPrefix + accessToken
	if b, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var u User
		if err := json.Unmarshal(b, &u); err == nil {
			return u, nil
		}
	}

	u, err := s.client.FetchUser(ctx, accessToken)
	if err != nil {
		return User{}, err
	}
	if b, err := json.Marshal(u); err == nil {
		// Cache loss only costs an extra upstream call.
		_ = s.rdb.Set(ctx, key, b, s.userTTL).Err()
	}
	return u, nil
}
