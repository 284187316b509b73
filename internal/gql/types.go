package gql

import (
	"fmt"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/graphql-go/graphql"

	"hookline/internal/db/models"
	"hookline/internal/plugin"
)

// builder constructs the schema's object types from the model registry. All
// types are built once at schema construction.
type builder struct {
	schema      *Schema
	registry    *models.Registry
	node        *graphql.Interface
	objects     map[string]*graphql.Object
	connections *connectionTypes
	geoLocation *graphql.Object
	plugin      *graphql.Object
}

func newBuilder(s *Schema) *builder {
	b := &builder{
		schema:      s,
		registry:    s.registry,
		objects:     make(map[string]*graphql.Object),
		connections: newConnectionTypes(),
	}
	b.node = graphql.NewInterface(graphql.InterfaceConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			switch v := p.Value.(type) {
			case *models.Entity:
				return b.objects[v.Descriptor().Table]
			case *plugin.Plugin:
				return b.plugin
			}
			return nil
		},
	})
	return b
}

// scalarType maps a column kind to its GraphQL terminal type.
func scalarType(kind models.Kind) graphql.Output {
	switch kind {
	case models.KindInt:
		return graphql.Int
	case models.KindFloat:
		return graphql.Float
	case models.KindBool:
		return graphql.Boolean
	case models.KindTime:
		return dateTimeScalar
	default:
		return graphql.String
	}
}

func sourceEntity(p graphql.ResolveParams) (*models.Entity, error) {
	entity, ok := p.Source.(*models.Entity)
	if !ok {
		return nil, fmt.Errorf("field %s resolved against a %T, not an entity", p.Info.FieldName, p.Source)
	}
	return entity, nil
}

// resolveEntityField is the shared default resolver for entity types: column
// fields return the column value directly, relationship names delegate to the
// session's relationship resolver.
func resolveEntityField(p graphql.ResolveParams) (interface{}, error) {
	entity, err := sourceEntity(p)
	if err != nil {
		return nil, err
	}
	name := models.CamelToSnake(p.Info.FieldName)
	if _, ok := entity.Descriptor().Relationship(name); ok {
		rc := RequestContextFrom(p.Context)
		if rc.DB == nil {
			return nil, fmt.Errorf("no database session in context")
		}
		return rc.DB.Relationship(p.Context, entity, name)
	}
	value, ok := entity.Get(name)
	if !ok {
		return nil, fmt.Errorf("%s has no column %s", entity.Descriptor().Table, name)
	}
	return value, nil
}

// buildEntityTypes builds every entity object type in two passes so that
// cyclic relationships can reference each other.
func (b *builder) buildEntityTypes() {
	for _, desc := range b.registry.All() {
		b.objects[desc.Table] = graphql.NewObject(graphql.ObjectConfig{
			Name:       desc.TypeName,
			Interfaces: []*graphql.Interface{b.node},
			Fields:     graphql.Fields{},
		})
	}
	for _, desc := range b.registry.All() {
		object := b.objects[desc.Table]
		for _, col := range desc.ColumnDefs() {
			fieldType := scalarType(col.Kind)
			if col.Name == desc.PK {
				fieldType = graphql.NewNonNull(graphql.ID)
			}
			object.AddFieldConfig(models.SnakeToCamel(col.Name), &graphql.Field{
				Type:    fieldType,
				Resolve: wrap(resolveEntityField),
			})
		}
		for _, rel := range desc.Relationships() {
			target := b.objects[rel.Target]
			if rel.Uselist {
				object.AddFieldConfig(models.SnakeToCamel(rel.Name), b.connectionField(rel))
				continue
			}
			object.AddFieldConfig(models.SnakeToCamel(rel.Name), &graphql.Field{
				Type:    target,
				Resolve: wrap(resolveEntityField),
			})
		}
		b.addDerivedFields(desc, object)
	}
}

// connectionField wraps a collection relationship as a relay connection; the
// inner resolver is the shared default resolver, which yields the lazy
// relationship query for the connection machinery to filter, sort, count and
// slice.
func (b *builder) connectionField(rel models.Relationship) *graphql.Field {
	target, _ := b.registry.Get(rel.Target)
	return &graphql.Field{
		Type: b.connections.forNode(b.objects[rel.Target], nil),
		Args: connectionArgs(),
		Resolve: wrap(func(p graphql.ResolveParams) (interface{}, error) {
			return resolveConnection(p, target, resolveEntityField)
		}),
	}
}

// addDerivedFields attaches the explicit resolvers entities expose on top of
// their raw columns.
func (b *builder) addDerivedFields(desc *models.Descriptor, object *graphql.Object) {
	switch desc.Table {
	case models.TableCampaigns, models.TableUsers, models.TableAlertSubscriptions:
		object.AddFieldConfig("hasExpired", &graphql.Field{
			Type:    graphql.Boolean,
			Resolve: wrap(resolveHasExpired),
		})
	}
	switch desc.Table {
	case models.TableVisits, models.TableDeaddropConnections:
		object.AddFieldConfig("visitorGeoloc", &graphql.Field{
			Type:    b.geoLocation,
			Resolve: wrap(b.geolocField("ip")),
		})
	case models.TableMessages:
		object.AddFieldConfig("openerGeoloc", &graphql.Field{
			Type:    b.geoLocation,
			Resolve: wrap(b.geolocField("opener_ip")),
		})
	}
}

func resolveHasExpired(p graphql.ResolveParams) (interface{}, error) {
	entity, err := sourceEntity(p)
	if err != nil {
		return nil, err
	}
	value, _ := entity.Get("expiration")
	expiration, ok := value.(time.Time)
	if !ok {
		return false, nil
	}
	return expiration.Before(time.Now()), nil
}

// geolocField resolves a geolocation from the row's IP column, yielding null
// when the IP is absent or private.
func (b *builder) geolocField(column string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		entity, err := sourceEntity(p)
		if err != nil {
			return nil, err
		}
		value, _ := entity.Get(column)
		ip, ok := value.(string)
		if !ok || ip == "" {
			return nil, nil
		}
		return b.schema.locationFromIP(ip)
	}
}

// buildAuxTypes builds the GeoLocation and Plugin object types.
func (b *builder) buildAuxTypes() {
	b.geoLocation = graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoLocation",
		Fields: graphql.Fields{
			"city":        &graphql.Field{Type: graphql.String},
			"continent":   &graphql.Field{Type: graphql.String},
			"coordinates": &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"country":     &graphql.Field{Type: graphql.String},
			"postalCode":  &graphql.Field{Type: graphql.String},
			"timeZone":    &graphql.Field{Type: graphql.String},
		},
	})
	b.plugin = graphql.NewObject(graphql.ObjectConfig{
		Name:       "Plugin",
		Interfaces: []*graphql.Interface{b.node},
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if pl, ok := p.Source.(*plugin.Plugin); ok {
						return pl.Name, nil
					}
					return nil, nil
				},
			},
			"authors":     &graphql.Field{Type: graphql.NewList(graphql.String)},
			"title":       &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"homepage":    &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"version":     &graphql.Field{Type: graphql.String},
		},
	})
}

// firstEntity materializes a single-entity lookup: the model's default query
// with every provided argument applied as an equality predicate.
func firstEntity(p graphql.ResolveParams, model *models.Descriptor) (interface{}, error) {
	rc := RequestContextFrom(p.Context)
	if rc.DB == nil {
		return nil, fmt.Errorf("no database session in context")
	}
	query := rc.DB.Query(model)
	args := make([]string, 0, len(p.Args))
	for arg := range p.Args {
		args = append(args, arg)
	}
	sort.Strings(args)
	for _, arg := range args {
		query.Where(entsql.EQ(arg, p.Args[arg]))
	}
	row, err := query.First(p.Context)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return row, nil
}
