package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"policy-records-go/internal/domain/session"
	userdomain "policy-records-go/internal/domain/user"
	"policy-records-go/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey int

const (
	userKey contextKey = iota
	holderKey
)

type UserLoader interface {
	GetByID(ctx context.Context, userID string) (*userdomain.User, error)
}

// SessionAuth issues bearer tokens naming a session slot and resolves them
// back to the logged-in user. Logging out clears the slot, which revokes the
// token even before it expires.
type SessionAuth struct {
	secret   []byte
	ttl      time.Duration
	sessions *session.Manager
	users    UserLoader
	log      logger.Logger
	now      func() time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

func NewSessionAuth(secret string, ttl time.Duration, sessions *session.Manager, users UserLoader, log logger.Logger) *SessionAuth {
	return &SessionAuth{
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: sessions,
		users:    users,
		log:      log,
		now:      time.Now,
	}
}

// Login stores user in a fresh session slot and returns a token for it.
func (a *SessionAuth) Login(ctx context.Context, user userdomain.User) (string, time.Time, error) {
	now := a.now().UTC()
	expiresAt := now.Add(a.ttl)

	holder, err := a.sessions.Start(ctx, user, expiresAt)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("start session: %w", err)
	}
	claims := sessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        holder.ID(),
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		_ = holder.Logout(ctx)
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		claims, err := a.parse(raw)
		if err != nil {
			a.log.BusinessError("auth.middleware: token rejected", err)
			unauthorized(w)
			return
		}

		holder := a.sessions.Open(claims.ID)
		current, err := holder.CurrentUser(r.Context())
		if err != nil {
			a.log.InternalError("auth.middleware: load session failed", err, "session_id", claims.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		if current == nil || current.ID != claims.Subject {
			a.log.BusinessError("auth.middleware: session closed", session.ErrNotAuthenticated, "user_id", claims.Subject)
			unauthorized(w)
			return
		}

		fresh, err := a.users.GetByID(r.Context(), current.ID)
		if errors.Is(err, userdomain.ErrUserNotFound) {
			unauthorized(w)
			return
		}
		if err != nil {
			a.log.InternalError("auth.middleware: load user failed", err, "user_id", current.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}

		ctx := WithHolder(WithUser(r.Context(), *fresh), holder)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *SessionAuth) parse(raw string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("incomplete token claims")
	}
	return claims, nil
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user userdomain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func WithHolder(ctx context.Context, holder *session.Holder) context.Context {
	return context.WithValue(ctx, holderKey, holder)
}

func UserFromContext(ctx context.Context) (userdomain.User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(userdomain.User)
	if !ok || user.ID == "" {
		return userdomain.User{}, false
	}
	return user, true
}

func HolderFromContext(ctx context.Context) (*session.Holder, bool) {
	holder, ok := ctx.Value(holderKey).(*session.Holder)
	return holder, ok && holder != nil
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
