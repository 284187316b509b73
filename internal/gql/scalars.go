package gql

import (
	"strconv"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// TimeLayout is the wire format for timestamps: ISO-8601 with microsecond
// precision.
const TimeLayout = "2006-01-02T15:04:05.000000"

// anyScalar accepts any literal as an input value. Integer and float literals
// are parsed to their numeric types, strings and booleans pass through and
// anything else (including null) is a nil value. It is only used as an input
// type, so serialization is undefined.
var anyScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Any",
	Description: "An arbitrary literal value, used for filter comparisons.",
	Serialize: func(value interface{}) interface{} {
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		return value
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		switch node := valueAST.(type) {
		case *ast.IntValue:
			if n, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
				return n
			}
		case *ast.FloatValue:
			if f, err := strconv.ParseFloat(node.Value, 64); err == nil {
				return f
			}
		case *ast.StringValue:
			return node.Value
		case *ast.BooleanValue:
			return node.Value
		}
		return nil
	},
})

// dateTimeScalar carries timestamps in the TimeLayout wire format. Literals
// of any other kind parse to nil.
var dateTimeScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "DateTime",
	Description: "A timestamp in YYYY-MM-DDTHH:MM:SS.ffffff form.",
	Serialize: func(value interface{}) interface{} {
		switch t := value.(type) {
		case time.Time:
			return t.Format(TimeLayout)
		case *time.Time:
			if t == nil {
				return nil
			}
			return t.Format(TimeLayout)
		}
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		t, err := time.Parse(TimeLayout, s)
		if err != nil {
			return nil
		}
		return t
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		node, ok := valueAST.(*ast.StringValue)
		if !ok {
			return nil
		}
		t, err := time.Parse(TimeLayout, node.Value)
		if err != nil {
			return nil
		}
		return t
	},
})

// filterOperatorEnum enumerates the comparison operators accepted in filter
// leaves.
var filterOperatorEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "FilterOperator",
	Values: graphql.EnumValueConfigMap{
		"EQ": &graphql.EnumValueConfig{Value: "eq"},
		"GE": &graphql.EnumValueConfig{Value: "ge"},
		"GT": &graphql.EnumValueConfig{Value: "gt"},
		"LE": &graphql.EnumValueConfig{Value: "le"},
		"LT": &graphql.EnumValueConfig{Value: "lt"},
		"NE": &graphql.EnumValueConfig{Value: "ne"},
	},
})

// sortDirectionEnum enumerates sort directions. The aesc spelling is part of
// the wire contract and is kept for compatibility.
var sortDirectionEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "SortDirection",
	Values: graphql.EnumValueConfigMap{
		"AESC": &graphql.EnumValueConfig{Value: "aesc"},
		"DESC": &graphql.EnumValueConfig{Value: "desc"},
	},
})

// filterInput is the recursive filter tree. Exactly one of and, or and field
// may be set per node.
var filterInput *graphql.InputObject

func init() {
	filterInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "FilterInput",
		Fields: (graphql.InputObjectConfigFieldMapThunk)(func() graphql.InputObjectConfigFieldMap {
			return graphql.InputObjectConfigFieldMap{
				"and":      &graphql.InputObjectFieldConfig{Type: graphql.NewList(filterInput)},
				"or":       &graphql.InputObjectFieldConfig{Type: graphql.NewList(filterInput)},
				"field":    &graphql.InputObjectFieldConfig{Type: graphql.String},
				"value":    &graphql.InputObjectFieldConfig{Type: anyScalar},
				"operator": &graphql.InputObjectFieldConfig{Type: filterOperatorEnum},
			}
		}),
	})
}

// sortInput is one ORDER BY entry.
var sortInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "SortInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"field":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"direction": &graphql.InputObjectFieldConfig{Type: sortDirectionEnum},
	},
})
