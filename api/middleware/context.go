package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	UserID   uuid.UUID
	Email    string
	FullName string
	Role     enums.Role
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(Principal)
	return p, ok && p.UserID != uuid.Nil
}

// WithPrincipal places p on ctx. Handlers under test use it to skip token
// parsing.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

// PrincipalFromRequest returns the caller or an UNAUTHORIZED error for
// handlers mounted outside Auth by mistake.
func PrincipalFromRequest(r *http.Request) (Principal, error) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return p, nil
}
