package gql

import (
	"github.com/graphql-go/graphql"

	"hookline/internal/db/models"
)

// Middleware wraps field resolution. Implementations either call next or
// short-circuit the field to a value of their own.
type Middleware func(p graphql.ResolveParams, next graphql.FieldResolveFn) (interface{}, error)

// AuthorizationMiddleware prunes fields the caller session may not read. When
// the parent value is an entity row and the session denies the requested
// column on that row, resolution short-circuits to null without invoking the
// inner resolver. Executions without a session run unrestricted.
func AuthorizationMiddleware(p graphql.ResolveParams, next graphql.FieldResolveFn) (interface{}, error) {
	if entity, ok := p.Source.(*models.Entity); ok {
		if !hasReadAccess(p, entity.Descriptor(), models.CamelToSnake(p.Info.FieldName), entity) {
			return nil, nil
		}
	}
	return next(p)
}

// hasReadAccess answers the session permission check for one column. The
// instance may be nil for the class level check used when validating filter
// and sort references.
func hasReadAccess(p graphql.ResolveParams, model *models.Descriptor, column string, instance *models.Entity) bool {
	session := RequestContextFrom(p.Context).Session
	if session == nil {
		return true
	}
	return session.MayRead(model, column, instance)
}

// resolve runs the execution's middleware chain around the final resolver.
// Every generated resolver funnels through here.
func resolve(p graphql.ResolveParams, final graphql.FieldResolveFn) (interface{}, error) {
	return applyChain(RequestContextFrom(p.Context).middleware, p, final)
}

func applyChain(chain []Middleware, p graphql.ResolveParams, final graphql.FieldResolveFn) (interface{}, error) {
	if len(chain) == 0 {
		return final(p)
	}
	next := func(q graphql.ResolveParams) (interface{}, error) {
		return applyChain(chain[1:], q, final)
	}
	return chain[0](p, next)
}

// wrap binds a final resolver to the execution middleware chain.
func wrap(final graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		return resolve(p, final)
	}
}
