// Package auth is the identity provider: anonymous and custom-token sign-in,
// plus the session tokens clients present on every request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskhub/internal/models"
)

const (
	sessionIssuer = "taskhub"
	leeway        = 2 * time.Minute
)

var (
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrCustomTokensDisabled = errors.New("custom token sign-in is not configured")
	// ErrProviderUnavailable marks failures worth retrying.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// IsTransient reports whether a sign-in may succeed when tried again.
func IsTransient(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

type Provider interface {
	SignInAnonymously(ctx context.Context) (models.Identity, error)
	SignInWithToken(ctx context.Context, token string) (models.Identity, error)
	IssueSession(id models.Identity) (string, error)
	VerifySession(token string) (models.Identity, error)
}

type sessionClaims struct {
	Anonymous bool `json:"anon,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider signs sessions with HS256. Custom tokens are HS256 JWTs minted
// by a trusted backend with the user id in "sub".
type JWTProvider struct {
	sessionKey []byte
	customKey  []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewJWTProvider(sessionSecret, customTokenSecret string, ttl time.Duration) *JWTProvider {
	return &JWTProvider{
		sessionKey: []byte(sessionSecret),
		customKey:  []byte(customTokenSecret),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (p *JWTProvider) SignInAnonymously(ctx context.Context) (models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return models.Identity{}, err
	}
	return models.Identity{UserID: uuid.NewString(), Anonymous: true}, nil
}

func (p *JWTProvider) SignInWithToken(ctx context.Context, token string) (models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return models.Identity{}, err
	}
	if len(p.customKey) == 0 {
		return models.Identity{}, ErrCustomTokensDisabled
	}
	claims := &jwt.RegisteredClaims{}
	if err := p.parse(token, claims, p.customKey); err != nil {
		return models.Identity{}, err
	}
	return models.Identity{UserID: claims.Subject}, nil
}

func (p *JWTProvider) IssueSession(id models.Identity) (string, error) {
	if id.UserID == "" {
		return "", fmt.Errorf("issue session: empty user id")
	}
	now := p.now()
	claims := sessionClaims{
		Anonymous: id.Anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.sessionKey)
}

func (p *JWTProvider) VerifySession(token string) (models.Identity, error) {
	claims := &sessionClaims{}
	if err := p.parse(token, claims, p.sessionKey, jwt.WithIssuer(sessionIssuer)); err != nil {
		return models.Identity{}, err
	}
	return models.Identity{UserID: claims.Subject, Anonymous: claims.Anonymous}, nil
}

func (p *JWTProvider) parse(token string, claims jwt.Claims, key []byte, opts ...jwt.ParserOption) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(p.now),
	)
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return nil
}
