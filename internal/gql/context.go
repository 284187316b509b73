// Package gql implements the authorized GraphQL query layer: a read-only
// schema derived from the relational model registry, with per-field
// authorization, structured filtering and sorting, and relay pagination with
// total counts.
package gql

import (
	"context"

	"hookline/internal/db"
	"hookline/internal/db/models"
	"hookline/internal/plugin"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const requestContextKey contextKey = "gql.request"

// RequestContext is the per-execution resource bag. Session may be nil, in
// which case authorization is disabled and every field is readable (the mode
// for internal trusted callers).
type RequestContext struct {
	Session models.ReadAccessSession
	DB      *db.Session
	Plugins *plugin.Manager

	middleware []Middleware
}

// WithRequestContext stores the request context for the duration of one
// execution.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// RequestContextFrom retrieves the execution's request context. A missing
// context behaves like an empty one.
func RequestContextFrom(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestContextKey).(*RequestContext); ok && rc != nil {
		return rc
	}
	return &RequestContext{}
}
