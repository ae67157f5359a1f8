package httpx

import (
	"context"

	"github.com/aussiebroadwan/fundme/pkg/credential"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

func contextWithClaims(ctx context.Context, c credential.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.SubjectID)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// ClaimsFromContext returns the verified claims placed by AuthnMiddleware.
func ClaimsFromContext(ctx context.Context) (credential.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(credential.Claims)
	return c, ok
}
