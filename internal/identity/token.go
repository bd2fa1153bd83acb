package identity

import "context"

type tokenKey struct{}

// WithToken stores a raw bearer token in the context. The transport
// layer (HTTP middleware, WebSocket handshake) attaches the token it
// extracted; the provider reads it back during resolution.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext retrieves the raw bearer token, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}
