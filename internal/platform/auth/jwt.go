package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserLookup re-fetches the account behind a verified credential so roles
// and names reflect the database, not a possibly stale token.
type UserLookup func(ctx context.Context, id int64) (Identity, error)

type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

func NewTokenIssuer(cfg Config) (*TokenIssuer, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	expiry := cfg.JWTExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), expiry: expiry}, nil
}

func (i *TokenIssuer) Issue(identity Identity) (string, error) {
	if i == nil {
		return "", errors.New("token issuer not initialized")
	}
	if identity.ID <= 0 {
		return "", errors.New("identity id is required")
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(identity.ID, 10),
		"email": identity.Email,
		"role":  identity.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(i.expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// JWTAuthenticator verifies service-issued HS256 tokens carried in the
// Authorization header or the session cookie.
type JWTAuthenticator struct {
	secret     []byte
	cookieName string
	lookup     UserLookup
}

func NewJWTAuthenticator(cfg Config, lookup UserLookup) (*JWTAuthenticator, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if lookup == nil {
		return nil, errors.New("user lookup is required")
	}
	return &JWTAuthenticator{
		secret:     []byte(secret),
		cookieName: cfg.SessionCookieName,
		lookup:     lookup,
	}, nil
}

func (a *JWTAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	raw := tokenFromHeader(r)
	if raw == "" {
		raw = tokenFromCookie(r, a.cookieName)
	}
	if raw == "" {
		return Identity{}, ErrUnauthenticated
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("verify token: %w", errors.Join(err, ErrUnauthenticated))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, ErrUnauthenticated
	}

	identity, err := a.lookup(ctx, id)
	if err != nil {
		return Identity{}, fmt.Errorf("lookup user: %w", errors.Join(err, ErrUnauthenticated))
	}
	return identity, nil
}

func tokenFromHeader(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func tokenFromCookie(r *http.Request, name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
