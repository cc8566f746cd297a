package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-api/internal/model"
	"blog-api/internal/store"
)

var ErrPrincipalNotFound = errors.New("principal_not_found")

type PrincipalKind int

const (
	PrincipalUser PrincipalKind = iota + 1
	PrincipalAdmin
)

func (k PrincipalKind) String() string {
	switch k {
	case PrincipalUser:
		return "user"
	case PrincipalAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Principal is exactly one of User or Admin, selected by Kind.
type Principal struct {
	Kind  PrincipalKind
	User  *model.User
	Admin *model.Admin
}

func (p Principal) Username() string {
	switch p.Kind {
	case PrincipalUser:
		return p.User.Username
	case PrincipalAdmin:
		return p.Admin.Username
	}
	return ""
}

// PrincipalStore is the lookup surface the resolver needs from persistence.
type PrincipalStore interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
}

type Resolver struct {
	codec *Codec
	store PrincipalStore
}

func NewResolver(codec *Codec, st PrincipalStore) *Resolver {
	return &Resolver{codec: codec, store: st}
}

// Resolve decodes token and loads the principal named by its subject. Store
// failures other than not-found are returned as-is.
func (r *Resolver) Resolve(ctx context.Context, token string, kind TokenKind, pk PrincipalKind, now time.Time) (Principal, error) {
	claims, err := r.codec.Decode(token, kind, pk, now)
	if err != nil {
		return Principal{}, err
	}

	switch pk {
	case PrincipalUser:
		u, err := r.store.GetUserByUsername(ctx, claims.Subject)
		if err != nil {
			return Principal{}, lookupErr(err, pk, claims.Subject)
		}
		return Principal{Kind: PrincipalUser, User: u}, nil
	case PrincipalAdmin:
		a, err := r.store.GetAdminByUsername(ctx, claims.Subject)
		if err != nil {
			return Principal{}, lookupErr(err, pk, claims.Subject)
		}
		return Principal{Kind: PrincipalAdmin, Admin: a}, nil
	default:
		return Principal{}, fmt.Errorf("unknown principal kind %d", pk)
	}
}

func lookupErr(err error, pk PrincipalKind, subject string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %q", ErrPrincipalNotFound, pk, subject)
	}
	return fmt.Errorf("lookup %s: %w", pk, err)
}

// IsUnauthorized reports whether err is one of the token or principal
// failures that map to a 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrPrincipalNotFound)
}
