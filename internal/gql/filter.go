package gql

import (
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/graphql-go/graphql"

	"hookline/internal/db"
	"hookline/internal/db/models"
)

var filterOperators = map[string]func(col string, value interface{}) *entsql.Predicate{
	"eq": entsql.EQ,
	"ge": entsql.GTE,
	"gt": entsql.GT,
	"le": entsql.LTE,
	"lt": entsql.LT,
	"ne": entsql.NEQ,
}

// columnRef validates a client-supplied field reference and translates it to
// its column name. GraphQL field names containing underscores are malformed,
// and the translated name must be a column of the model.
func columnRef(model *models.Descriptor, field string) (string, error) {
	column := models.CamelToSnake(field)
	if strings.Contains(field, "_") || !model.HasColumn(column) {
		return "", fmt.Errorf("invalid field: %s", field)
	}
	return column, nil
}

// compileFilter compiles one filter tree node into a predicate. A node
// carries exactly one of and, or and field; leaves referencing columns the
// session may not read compile to nil and are dropped by their parent.
func compileFilter(p graphql.ResolveParams, model *models.Descriptor, gqlFilter map[string]interface{}) (*entsql.Predicate, error) {
	andChildren, hasAnd := filterList(gqlFilter["and"])
	orChildren, hasOr := filterList(gqlFilter["or"])
	field, _ := gqlFilter["field"].(string)

	var pred *entsql.Predicate
	if hasAnd {
		compiled, err := compileFilterList(p, model, andChildren)
		if err != nil {
			return nil, err
		}
		if len(compiled) > 0 {
			pred = entsql.And(compiled...)
		}
	}
	if hasOr {
		if hasAnd {
			return nil, fmt.Errorf("the 'and', 'or', and 'field' filter operators are mutually exclusive")
		}
		compiled, err := compileFilterList(p, model, orChildren)
		if err != nil {
			return nil, err
		}
		if len(compiled) > 0 {
			pred = entsql.Or(compiled...)
		}
	}
	if field != "" {
		if hasAnd || hasOr {
			return nil, fmt.Errorf("the 'and', 'or', and 'field' filter operators are mutually exclusive")
		}
		operator := "eq"
		if name, ok := gqlFilter["operator"].(string); ok && name != "" {
			operator = name
		}
		build, ok := filterOperators[operator]
		if !ok {
			return nil, fmt.Errorf("invalid operator: %s", operator)
		}
		column, err := columnRef(model, field)
		if err != nil {
			return nil, fmt.Errorf("invalid filter field: %s", field)
		}
		if hasReadAccess(p, model, column, nil) {
			pred = build(column, gqlFilter["value"])
		}
	}
	return pred, nil
}

func compileFilterList(p graphql.ResolveParams, model *models.Descriptor, gqlFilters []map[string]interface{}) ([]*entsql.Predicate, error) {
	var compiled []*entsql.Predicate
	for _, gqlFilter := range gqlFilters {
		pred, err := compileFilter(p, model, gqlFilter)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			compiled = append(compiled, pred)
		}
	}
	return compiled, nil
}

func filterList(value interface{}) ([]map[string]interface{}, bool) {
	items, ok := value.([]interface{})
	if !ok || len(items) == 0 {
		return nil, false
	}
	filters := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if gqlFilter, ok := item.(map[string]interface{}); ok {
			filters = append(filters, gqlFilter)
		}
	}
	return filters, true
}

// compileSort appends ORDER BY terms to the query in listed order. Entries
// referencing columns the session may not read are skipped silently.
func compileSort(p graphql.ResolveParams, model *models.Descriptor, query *db.Query, gqlSort []interface{}) error {
	for _, item := range gqlSort {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		field, _ := entry["field"].(string)
		column, err := columnRef(model, field)
		if err != nil {
			return fmt.Errorf("invalid sort field: %s", field)
		}
		if !hasReadAccess(p, model, column, nil) {
			continue
		}
		direction := "aesc"
		if d, ok := entry["direction"].(string); ok && d != "" {
			direction = d
		}
		switch direction {
		case "aesc":
			query.Order(entsql.Asc(column))
		case "desc":
			query.Order(entsql.Desc(column))
		default:
			return fmt.Errorf("sort direction must be either 'aesc' or 'desc'")
		}
	}
	return nil
}

// applyQueryShim applies the execution's filter and sort arguments to a lazy
// query.
func applyQueryShim(p graphql.ResolveParams, model *models.Descriptor, query *db.Query) error {
	if gqlFilter, ok := p.Args["filter"].(map[string]interface{}); ok {
		pred, err := compileFilter(p, model, gqlFilter)
		if err != nil {
			return err
		}
		if pred != nil {
			query.Where(pred)
		}
	}
	if gqlSort, ok := p.Args["sort"].([]interface{}); ok {
		if err := compileSort(p, model, query, gqlSort); err != nil {
			return err
		}
	}
	return nil
}
