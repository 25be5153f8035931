package portal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/mod/semver"
)

// Role is a portal account role.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// User is the account returned by login.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Grade    int    `json:"grade,omitempty"`
}

// LoginResult is the login response data.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login exchanges credentials for a token. The returned client is not
// changed; use WithToken to authenticate later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.call(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/login",
		body:    map[string]string{"username": username, "password": password},
		noRetry: true,
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login: response has no token")
	}
	return &res, nil
}

// Claims are the JWT claims the portal puts in its tokens.
type Claims struct {
	UserID   string `json:"userId"`
	Role     Role   `json:"role"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Learner reads the identity claims from token without verifying its
// signature; the portal verifies it on every request.
func Learner(token string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.UserID == "" {
		return Claims{}, fmt.Errorf("token has no userId claim")
	}
	return claims, nil
}

// PublicConfig is the unauthenticated portal configuration.
type PublicConfig struct {
	SiteName         string `json:"siteName,omitempty"`
	MinClientVersion string `json:"minClientVersion,omitempty"`
	AllowRegister    bool   `json:"allowRegister,omitempty"`
}

// PublicConfig fetches /config/public.
func (c *Client) PublicConfig(ctx context.Context) (*PublicConfig, error) {
	var pc PublicConfig
	if err := c.call(ctx, request{method: http.MethodGet, path: "/config/public"}, &pc); err != nil {
		return nil, fmt.Errorf("public config: %w", err)
	}
	return &pc, nil
}

// Compatibility is the outcome of comparing this build against the portal's
// minimum client version.
type Compatibility struct {
	Current string
	Minimum string
	// OK is false only when both versions are valid semver and Current is
	// older than Minimum.
	OK bool
}

// CheckCompatibility compares version with the portal's minClientVersion.
// Development builds and portals without a minimum are always compatible.
func (c *Client) CheckCompatibility(ctx context.Context, version string) (Compatibility, error) {
	pc, err := c.PublicConfig(ctx)
	if err != nil {
		return Compatibility{Current: version, OK: true}, err
	}
	return compareVersions(version, pc.MinClientVersion), nil
}

func compareVersions(current, minimum string) Compatibility {
	res := Compatibility{Current: current, Minimum: minimum, OK: true}
	cur, floor := canonicalVersion(current), canonicalVersion(minimum)
	if cur == "" || floor == "" {
		return res
	}
	res.OK = semver.Compare(cur, floor) >= 0
	return res
}

// canonicalVersion returns v in "vMAJOR.MINOR.PATCH" form, or "" if v is
// not a semantic version.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}
