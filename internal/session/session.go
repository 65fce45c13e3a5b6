// Package session holds the signed-in identity of one request.
// A Session is created by the authentication middleware and lives exactly as long as the request
// (or WebSocket connection) that carries it.
package session

import "context"

// Session is the current authenticated identity.
type Session struct {
	UID   string
	Email string
	// Provider is "firebase" for identity provider tokens and "session" for tokens issued by this server.
	Provider string
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil && s.UID != ""
}
