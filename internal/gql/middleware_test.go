package gql

import (
	"context"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookline/internal/db/models"
)

func TestAuthorizationMiddlewareShortCircuits(t *testing.T) {
	campaigns, _ := models.Lookup(models.TableCampaigns)
	entity := models.NewEntity(campaigns, map[string]interface{}{"id": "1", "name": "x"})
	session := denyColumns{table: models.TableCampaigns, columns: map[string]bool{"name": true}}

	called := false
	inner := func(p graphql.ResolveParams) (interface{}, error) {
		called = true
		return "resolved", nil
	}

	p := graphql.ResolveParams{
		Source:  entity,
		Context: WithRequestContext(context.Background(), &RequestContext{Session: session}),
		Info:    graphql.ResolveInfo{FieldName: "name"},
	}
	value, err := AuthorizationMiddleware(p, inner)
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.False(t, called, "denied fields must skip the inner resolver")

	p.Info.FieldName = "description"
	value, err = AuthorizationMiddleware(p, inner)
	require.NoError(t, err)
	assert.Equal(t, "resolved", value)
	assert.True(t, called)
}

func TestAuthorizationMiddlewarePassesNonEntities(t *testing.T) {
	session := denyColumns{table: models.TableCampaigns, columns: map[string]bool{"name": true}}
	p := graphql.ResolveParams{
		Source:  "not an entity",
		Context: WithRequestContext(context.Background(), &RequestContext{Session: session}),
		Info:    graphql.ResolveInfo{FieldName: "name"},
	}
	value, err := AuthorizationMiddleware(p, func(graphql.ResolveParams) (interface{}, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestApplyChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(p graphql.ResolveParams, next graphql.FieldResolveFn) (interface{}, error) {
			order = append(order, name)
			return next(p)
		}
	}
	final := func(graphql.ResolveParams) (interface{}, error) {
		order = append(order, "resolver")
		return nil, nil
	}
	_, err := applyChain([]Middleware{mw("first"), mw("second")}, graphql.ResolveParams{}, final)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "resolver"}, order)
}
