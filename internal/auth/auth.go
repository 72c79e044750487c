package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"retail-dashboard/internal/roles"
)

const CookieName = "token"

var ErrNoToken = errors.New("auth: no credential")

type claims struct {
	ID   string `json:"id"`
	Role struct {
		Name string `json:"name"`
	} `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the caller's credential and the role decoded from it. The role
// only drives presentation; the backend enforces access.
type Principal struct {
	Token  string
	UserID string
	Role   roles.Role
}

// Decode reads the role claim without verifying the signature.
func Decode(token string) (Principal, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Principal{}, fmt.Errorf("decode token: %w", err)
	}
	role, err := roles.Parse(c.Role.Name)
	if err != nil {
		return Principal{}, fmt.Errorf("decode token: %w", err)
	}
	userID := c.ID
	if userID == "" {
		userID = c.Subject
	}
	return Principal{Token: token, UserID: userID, Role: role}, nil
}

// TokenFromRequest looks at the Authorization header first and then at the
// token cookie set by the login page.
func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return "", ErrNoToken
		}
		return strings.TrimSpace(token), nil
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", ErrNoToken
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
