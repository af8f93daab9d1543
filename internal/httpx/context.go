package httpx

import (
	"context"
	"net/http"
	"time"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	roleKey      contextKey = "role"
	claimsKey    contextKey = "claims"
	requestIDKey contextKey = "requestID"
)

// Claims is the verified identity behind a bearer token.
type Claims struct {
	UserID    string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// UserIDFrom retrieves the user ID from the request context.
func UserIDFrom(r *http.Request) string {
	return UserIDFromContext(r.Context())
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// RoleFrom retrieves the user role from the request context.
func RoleFrom(r *http.Request) string {
	if v, ok := r.Context().Value(roleKey).(string); ok {
		return v
	}
	return ""
}

// ClaimsFrom returns the verified token claims, if any.
func ClaimsFrom(r *http.Request) (Claims, bool) {
	c, ok := r.Context().Value(claimsKey).(Claims)
	return c, ok
}

// ContextWithUser returns a new context with the user ID and role.
func ContextWithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// ContextWithClaims stores the claims along with the user ID and role.
func ContextWithClaims(ctx context.Context, c Claims) context.Context {
	ctx = ContextWithUser(ctx, c.UserID, c.Role)
	return context.WithValue(ctx, claimsKey, c)
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
