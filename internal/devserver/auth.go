package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abhisek/practiz/internal/portal"
)

type claimsKey struct{}

type authService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (a *authService) issue(u FixtureUser) (string, error) {
	now := a.now()
	claims := portal.Claims{
		UserID:   u.ID,
		Role:     u.Role,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *authService) parse(token string) (*portal.Claims, error) {
	var claims portal.Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no userId claim")
	}
	return &claims, nil
}

// middleware rejects requests without a valid bearer token with a plain
// 401, as the portal does, and stores the claims in the request context.
func (a *authService) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authorization header required"})
			return
		}
		claims, err := a.parse(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": fmt.Sprintf("Invalid token: %v", err)})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func claimsFrom(ctx context.Context) *portal.Claims {
	c, _ := ctx.Value(claimsKey{}).(*portal.Claims)
	return c
}
