package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrNoToken is returned when a request carries no bearer token.
var ErrNoToken = errors.New("no token")

// Config holds the shared secret used to sign auction tokens
type Config struct {
	Secret string
	Issuer string
}

// Claims represents the claims carried by an auction token
type Claims struct {
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Identity is who a connection acts as. The zero value is an anonymous viewer.
type Identity struct {
	Subject string
	Name    string
	IsAdmin bool
}

// Authenticator validates HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	issuer string
	clock  clockwork.Clock
}

func NewAuthenticator(cfg Config, clock clockwork.Clock) *Authenticator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Secret == "" {
		log.Warn().Msg("auth secret not set, every connection will be a viewer")
	}
	return &Authenticator{secret: []byte(cfg.Secret), issuer: cfg.Issuer, clock: clock}
}

// ValidateToken parses and verifies a token string
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("auth secret not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token or claims")
	}
	return claims, nil
}

// Issue signs a token for subject valid for ttl.
func (a *Authenticator) Issue(subject, name string, isAdmin bool, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("auth secret not configured")
	}
	now := a.clock.Now()
	claims := Claims{
		Name:    name,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// TokenFromRequest reads the bearer token from the Authorization header, or
// from the token query parameter since browsers cannot set headers on a
// websocket upgrade.
func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token := strings.TrimPrefix(h, "Bearer ")
		if token == h || token == "" {
			return "", errors.New("bearer token required")
		}
		return token, nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrNoToken
}

// Identify resolves the caller. A missing or invalid token yields a viewer.
func (a *Authenticator) Identify(r *http.Request) Identity {
	token, err := TokenFromRequest(r)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			log.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("malformed authorization, treating as viewer")
		}
		return Identity{}
	}
	claims, err := a.ValidateToken(token)
	if err != nil {
		log.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("token rejected, treating as viewer")
		return Identity{}
	}
	return Identity{Subject: claims.Subject, Name: claims.Name, IsAdmin: claims.IsAdmin}
}
