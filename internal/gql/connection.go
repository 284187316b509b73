package gql

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/graphql-go/graphql"

	"hookline/internal/db"
	"hookline/internal/db/models"
)

const cursorPrefix = "arrayconnection:"

// PageInfo reports the slice position of one connection page.
type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor"`
	EndCursor       string `json:"endCursor"`
}

// Edge pairs a node with its slice cursor.
type Edge struct {
	Node   interface{} `json:"node"`
	Cursor string      `json:"cursor"`
}

// Connection is the resolved value of a connection field. Besides the relay
// edges and page info it reports the total cardinality of the underlying
// iterable and carries the iterable back for callers.
type Connection struct {
	Edges    []*Edge   `json:"edges"`
	PageInfo *PageInfo `json:"pageInfo"`
	Total    int       `json:"total"`

	Iterable interface{} `json:"-"`
	Length   int         `json:"-"`
}

func offsetToCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// cursorToOffset decodes a cursor; malformed cursors report ok=false and are
// ignored, matching relay's array connection behavior.
func cursorToOffset(cursor string) (int, bool) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil || !strings.HasPrefix(string(raw), cursorPrefix) {
		return 0, false
	}
	offset, err := strconv.Atoi(strings.TrimPrefix(string(raw), cursorPrefix))
	if err != nil {
		return 0, false
	}
	return offset, true
}

// pageArgs are the relay pagination arguments of one resolution.
type pageArgs struct {
	first, last   int
	before, after string
	hasFirst      bool
	hasLast       bool
}

func pageArgsFrom(args map[string]interface{}) pageArgs {
	var pa pageArgs
	if n, ok := args["first"].(int); ok {
		pa.first, pa.hasFirst = n, true
	}
	if n, ok := args["last"].(int); ok {
		pa.last, pa.hasLast = n, true
	}
	if s, ok := args["before"].(string); ok {
		pa.before = s
	}
	if s, ok := args["after"].(string); ok {
		pa.after = s
	}
	return pa
}

// sliceBounds computes the half-open [start, end) range of the requested page
// against a list of the given total length, following relay array connection
// semantics.
func (pa pageArgs) sliceBounds(total int) (start, end int, lower, upper int) {
	lower, upper = 0, total
	if offset, ok := cursorToOffset(pa.after); ok {
		lower = offset + 1
	}
	if offset, ok := cursorToOffset(pa.before); ok && offset < upper {
		upper = offset
	}
	start, end = lower, upper
	if pa.hasFirst && pa.first >= 0 && start+pa.first < end {
		end = start + pa.first
	}
	if pa.hasLast && pa.last >= 0 && end-pa.last > start {
		start = end - pa.last
	}
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if end < start {
		end = start
	}
	return start, end, lower, upper
}

// connectionFromFetcher realizes one page. fetch is called with the slice
// bounds and must return the nodes of exactly that range.
func connectionFromFetcher(pa pageArgs, total int, fetch func(start, end int) ([]interface{}, error)) (*Connection, error) {
	start, end, lower, upper := pa.sliceBounds(total)
	nodes, err := fetch(start, end)
	if err != nil {
		return nil, err
	}
	edges := make([]*Edge, len(nodes))
	for i, node := range nodes {
		edges[i] = &Edge{Node: node, Cursor: offsetToCursor(start + i)}
	}
	info := &PageInfo{
		HasPreviousPage: pa.hasLast && start > lower,
		HasNextPage:     pa.hasFirst && end < upper,
	}
	if len(edges) > 0 {
		info.StartCursor = edges[0].Cursor
		info.EndCursor = edges[len(edges)-1].Cursor
	}
	return &Connection{Edges: edges, PageInfo: info, Total: total, Length: total}, nil
}

var pageInfoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PageInfo",
	Fields: graphql.Fields{
		"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"startCursor":     &graphql.Field{Type: graphql.String},
		"endCursor":       &graphql.Field{Type: graphql.String},
	},
})

// connectionTypes memoizes one connection object type per node type. The
// cache is written during schema construction and read-only afterwards;
// the lock keeps racing builders from publishing two instances of the same
// type.
type connectionTypes struct {
	mu    sync.Mutex
	types map[string]*graphql.Object
}

func newConnectionTypes() *connectionTypes {
	return &connectionTypes{types: make(map[string]*graphql.Object)}
}

// forNode returns the connection type for a node type, building it on first
// reference. The optional override replaces generated connection fields
// (used by the plugin connection's total).
func (c *connectionTypes) forNode(node *graphql.Object, override graphql.Fields) *graphql.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := node.Name() + "Connection"
	if existing, ok := c.types[name]; ok {
		return existing
	}
	edge := graphql.NewObject(graphql.ObjectConfig{
		Name: node.Name() + "Edge",
		Fields: graphql.Fields{
			"node":   &graphql.Field{Type: node},
			"cursor": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	fields := graphql.Fields{
		"edges":    &graphql.Field{Type: graphql.NewList(edge)},
		"pageInfo": &graphql.Field{Type: graphql.NewNonNull(pageInfoType)},
		"total":    &graphql.Field{Type: graphql.Int},
	}
	for fieldName, field := range override {
		fields[fieldName] = field
	}
	connection := graphql.NewObject(graphql.ObjectConfig{
		Name:   name,
		Fields: fields,
	})
	c.types[name] = connection
	return connection
}

// connectionArgs are the arguments every connection field accepts.
func connectionArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"first":  &graphql.ArgumentConfig{Type: graphql.Int},
		"last":   &graphql.ArgumentConfig{Type: graphql.Int},
		"before": &graphql.ArgumentConfig{Type: graphql.String},
		"after":  &graphql.ArgumentConfig{Type: graphql.String},
		"filter": &graphql.ArgumentConfig{Type: filterInput},
		"sort":   &graphql.ArgumentConfig{Type: graphql.NewList(sortInput)},
	}
}

// resolveConnection adapts an inner resolver's result into a connection. A
// nil result falls back to the model's default query; lazy queries get the
// filter and sort arguments applied and are counted and sliced in the
// database; materialized sequences are sliced in memory.
func resolveConnection(p graphql.ResolveParams, model *models.Descriptor, inner graphql.FieldResolveFn) (interface{}, error) {
	iterable, err := inner(p)
	if err != nil {
		return nil, err
	}
	if iterable == nil && model != nil {
		rc := RequestContextFrom(p.Context)
		if rc.DB == nil {
			return nil, fmt.Errorf("no database session in context")
		}
		iterable = rc.DB.Query(model)
	}
	pa := pageArgsFrom(p.Args)
	switch it := iterable.(type) {
	case *db.Query:
		if err := applyQueryShim(p, it.Model(), it); err != nil {
			return nil, err
		}
		total, err := it.Count(p.Context)
		if err != nil {
			return nil, err
		}
		conn, err := connectionFromFetcher(pa, total, func(start, end int) ([]interface{}, error) {
			entities, err := it.Slice(p.Context, start, end)
			if err != nil {
				return nil, err
			}
			nodes := make([]interface{}, len(entities))
			for i, entity := range entities {
				nodes[i] = entity
			}
			return nodes, nil
		})
		if err != nil {
			return nil, err
		}
		conn.Iterable = it
		return conn, nil
	case []interface{}:
		conn, err := connectionFromFetcher(pa, len(it), func(start, end int) ([]interface{}, error) {
			return it[start:end], nil
		})
		if err != nil {
			return nil, err
		}
		conn.Iterable = it
		return conn, nil
	default:
		return nil, fmt.Errorf("cannot paginate %T", iterable)
	}
}

// materialized adapts a typed slice for a connection resolver.
func materialized[T any](items []T) []interface{} {
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
