package gql

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/graphql-go/graphql"

	"hookline/internal/db/models"
	"hookline/internal/geoip"
	"hookline/internal/version"
)

// Schema is the executable query schema. It is built once and safe for
// concurrent executions; per-request state travels in the RequestContext.
type Schema struct {
	schema   graphql.Schema
	registry *models.Registry
	geoip    geoip.Resolver
	version  string
}

// Option configures schema construction.
type Option func(*Schema)

// WithGeoIP attaches the geolocation resolver backing geoloc lookups.
func WithGeoIP(resolver geoip.Resolver) Option {
	return func(s *Schema) { s.geoip = resolver }
}

// WithVersion overrides the version literal reported by the version field.
func WithVersion(v string) Option {
	return func(s *Schema) { s.version = v }
}

// New builds the schema from the static model registry.
func New(opts ...Option) (*Schema, error) {
	s := &Schema{
		registry: models.Tables(),
		version:  version.Version,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.registry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model registry: %w", err)
	}
	b := newBuilder(s)
	b.buildAuxTypes()
	b.buildEntityTypes()
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: b.buildQueryType(),
	})
	if err != nil {
		return nil, fmt.Errorf("building schema: %w", err)
	}
	s.schema = schema
	return s, nil
}

// databaseRoot is the stateless value behind the db field.
type databaseRoot struct{}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// buildDatabaseType exposes every entity both as a single lookup field and as
// a connection.
func (b *builder) buildDatabaseType() *graphql.Object {
	fields := graphql.Fields{}
	for _, desc := range b.registry.All() {
		model := desc
		args := graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.String},
		}
		if model.HasColumn("name") {
			args["name"] = &graphql.ArgumentConfig{Type: graphql.String}
		}
		fields[lowerFirst(model.TypeName)] = &graphql.Field{
			Type: b.objects[model.Table],
			Args: args,
			Resolve: wrap(func(p graphql.ResolveParams) (interface{}, error) {
				return firstEntity(p, model)
			}),
		}
		fields[models.SnakeToCamel(model.Table)] = &graphql.Field{
			Type: b.connections.forNode(b.objects[model.Table], nil),
			Args: connectionArgs(),
			Resolve: wrap(func(p graphql.ResolveParams) (interface{}, error) {
				// a nil inner result means "use the model's default query"
				return resolveConnection(p, model, func(graphql.ResolveParams) (interface{}, error) {
					return nil, nil
				})
			}),
		}
	}
	return graphql.NewObject(graphql.ObjectConfig{
		Name:   "Database",
		Fields: fields,
	})
}

// buildQueryType builds the top level query object.
func (b *builder) buildQueryType() *graphql.Object {
	pluginConnection := b.connections.forNode(b.plugin, graphql.Fields{
		"total": &graphql.Field{
			Type: graphql.Int,
			Resolve: wrap(func(p graphql.ResolveParams) (interface{}, error) {
				if plugins := RequestContextFrom(p.Context).Plugins; plugins != nil {
					return plugins.Len(), nil
				}
				return 0, nil
			}),
		},
	})
	database := b.buildDatabaseType()
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"db": &graphql.Field{
				Type: database,
				Resolve: wrap(func(p graphql.ResolveParams) (interface{}, error) {
					return databaseRoot{}, nil
				}),
			},
			"geoloc": &graphql.Field{
				Type: b.geoLocation,
				Args: graphql.FieldConfigArgument{
					"ip": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: wrap(func(p graphql.ResolveParams) (interface{}, error) {
					ip, ok := p.Args["ip"].(string)
					if !ok || ip == "" {
						return nil, nil
					}
					return b.schema.locationFromIP(ip)
				}),
			},
			"plugin": &graphql.Field{
				Type: b.plugin,
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: wrap(func(p graphql.ResolveParams) (interface{}, error) {
					plugins := RequestContextFrom(p.Context).Plugins
					name, _ := p.Args["name"].(string)
					if plugins == nil || name == "" {
						return nil, nil
					}
					if pl, ok := plugins.Get(name); ok {
						return pl, nil
					}
					return nil, nil
				}),
			},
			"plugins": &graphql.Field{
				Type: pluginConnection,
				Args: graphql.FieldConfigArgument{
					"first":  &graphql.ArgumentConfig{Type: graphql.Int},
					"last":   &graphql.ArgumentConfig{Type: graphql.Int},
					"before": &graphql.ArgumentConfig{Type: graphql.String},
					"after":  &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: wrap(func(p graphql.ResolveParams) (interface{}, error) {
					return resolveConnection(p, nil, func(q graphql.ResolveParams) (interface{}, error) {
						plugins := RequestContextFrom(q.Context).Plugins
						if plugins == nil {
							return []interface{}{}, nil
						}
						return materialized(plugins.Sorted()), nil
					})
				}),
			},
			"version": &graphql.Field{
				Type: graphql.String,
				Resolve: wrap(func(p graphql.ResolveParams) (interface{}, error) {
					return b.schema.version, nil
				}),
			},
		},
	})
}

// locationFromIP parses and looks up one IP address. Private and otherwise
// non-routable addresses resolve to null without touching the database.
func (s *Schema) locationFromIP(ip string) (*geoip.Location, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil, fmt.Errorf("invalid IP address: %s", ip)
	}
	if !geoip.IsRoutable(addr) {
		return nil, nil
	}
	if s.geoip == nil {
		return nil, fmt.Errorf("geolocation is not available")
	}
	return s.geoip.Lookup(addr)
}

// ExecuteParams carries one execution's document and per-request resources.
type ExecuteParams struct {
	Query         string
	OperationName string
	Variables     map[string]interface{}
	Context       *RequestContext
	Middleware    []Middleware
}

// Execute runs one GraphQL document. The authorization middleware is always
// prepended to any caller-supplied middleware.
func (s *Schema) Execute(ctx context.Context, p ExecuteParams) *graphql.Result {
	rc := p.Context
	if rc == nil {
		rc = &RequestContext{}
	}
	rc.middleware = append([]Middleware{AuthorizationMiddleware}, p.Middleware...)
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  p.Query,
		OperationName:  p.OperationName,
		VariableValues: p.Variables,
		Context:        WithRequestContext(ctx, rc),
	})
}

// ExecuteFile reads a GraphQL document from a filesystem path and executes
// it.
func (s *Schema) ExecuteFile(ctx context.Context, path string, p ExecuteParams) (*graphql.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	p.Query = string(raw)
	return s.Execute(ctx, p), nil
}
