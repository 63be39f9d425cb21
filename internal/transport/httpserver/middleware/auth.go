package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"welfare-app-go/internal/auth"
	"welfare-app-go/internal/domain/member"
	"welfare-app-go/pkg/logger"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Auth turns bearer tokens into a member.Actor stored on the request context.
type Auth struct {
	tokens TokenParser
	log    logger.Logger
}

type contextKey int

const actorKey contextKey = iota

func NewAuth(tokens TokenParser, log logger.Logger) *Auth {
	return &Auth{tokens: tokens, log: log}
}

// Require rejects requests without a valid token.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.actor(r)
		if err != nil {
			a.log.BusinessError("auth.require: rejected token", err, "path", r.URL.Path)
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// Optional attaches the actor when a valid token is present and lets
// anonymous requests through. An invalid token is still rejected.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := a.actor(r)
		if err != nil {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireAdmin must run after Require.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())
		if !actor.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) actor(r *http.Request) (member.Actor, error) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return member.Actor{}, auth.ErrInvalidToken
	}
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return member.Actor{}, err
	}
	return member.Actor{ID: claims.ID, Role: claims.Role}, nil
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
	writeError(w, http.StatusUnauthorized, "invalid_token", "Not authorized")
}

func WithActor(ctx context.Context, actor member.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the zero Actor when the request is anonymous.
func ActorFromContext(ctx context.Context) (member.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(member.Actor)
	if !ok || actor.ID == "" {
		return member.Actor{}, false
	}
	return actor, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
