package httpx

import "context"

type ctxKey string

const ctxKeyBearer ctxKey = "bearer_token"

// WithBearer stores the raw bearer token on the context.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyBearer, token)
}

// BearerFromContext returns the token placed by RequireBearer.
func BearerFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(ctxKeyBearer).(string)
	return tok, ok && tok != ""
}
