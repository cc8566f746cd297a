package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenMalformed = errors.New("token_malformed")
	ErrTokenExpired   = errors.New("token_expired")
	ErrTokenInvalid   = errors.New("token_invalid")
)

type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

type CodecConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec signs and verifies HS256 tokens. Its fields are set once in NewCodec
// and only read afterwards.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, fmt.Errorf("refresh ttl %s must exceed access ttl %s", cfg.RefreshTTL, cfg.AccessTTL)
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Codec{
		secret:     secret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// IssueAccess signs an access token for subject. The audience claim records
// which principal table subject belongs to.
func (c *Codec) IssueAccess(subject string, pk PrincipalKind, now time.Time) (string, error) {
	return c.issue(subject, pk, KindAccess, now, c.accessTTL)
}

func (c *Codec) IssueRefresh(subject string, pk PrincipalKind, now time.Time) (string, error) {
	return c.issue(subject, pk, KindRefresh, now, c.refreshTTL)
}

func (c *Codec) issue(subject string, pk PrincipalKind, kind TokenKind, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{pk.String()},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Decode verifies signature, expiry against now, the kind discriminator and
// that the audience names pk.
func (c *Codec) Decode(tokenStr string, expected TokenKind, pk PrincipalKind, now time.Time) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(pk.String()),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, classify(err)
	}
	if claims.Kind != expected {
		return nil, fmt.Errorf("%w: kind %q, want %q", ErrTokenInvalid, claims.Kind, expected)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrTokenInvalid)
	}
	return &claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
