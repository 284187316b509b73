// Package models holds the static description of the campaign database that
// the GraphQL layer projects: one Descriptor per table with its typed columns
// and relationships, plus the generic Entity value that query results are
// scanned into. The registry is built once at package init and is read-only
// afterwards.
package models

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// Kind is the scalar type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

// Column describes a single table column.
type Column struct {
	Name string
	Kind Kind
}

// Relationship describes a named relationship between two tables. A uselist
// relationship is a one-to-many collection; otherwise it is a many-to-one
// single reference. In both cases the related rows are found by comparing
// TargetColumn on the target table against the LocalColumn value of the
// current row.
type Relationship struct {
	Name         string
	Target       string // target table name
	TargetColumn string // join column on the target table
	LocalColumn  string // join column on the local table
	Uselist      bool
}

// Descriptor describes one database table exposed through the API.
type Descriptor struct {
	// TypeName is the GraphQL object type name, e.g. "Campaign".
	TypeName string
	// Table is the database table name, e.g. "campaigns".
	Table string
	// PK is the primary key column. Exposed identifiers are the raw local
	// primary key values, there is no global id encoding.
	PK string

	columns  []Column
	colIndex map[string]Kind
	rels     []Relationship
	relIndex map[string]Relationship
}

func newDescriptor(typeName, table string, columns []Column, rels []Relationship) *Descriptor {
	d := &Descriptor{
		TypeName: typeName,
		Table:    table,
		PK:       "id",
		columns:  columns,
		colIndex: make(map[string]Kind, len(columns)),
		rels:     rels,
		relIndex: make(map[string]Relationship, len(rels)),
	}
	for _, c := range columns {
		d.colIndex[c.Name] = c.Kind
	}
	for _, r := range rels {
		d.relIndex[r.Name] = r
	}
	return d
}

// Columns returns the column names in declaration order.
func (d *Descriptor) Columns() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// ColumnDefs returns the full column definitions in declaration order.
func (d *Descriptor) ColumnDefs() []Column {
	return d.columns
}

// HasColumn reports whether name is a column of the table.
func (d *Descriptor) HasColumn(name string) bool {
	_, ok := d.colIndex[name]
	return ok
}

// ColumnKind returns the scalar kind of the named column.
func (d *Descriptor) ColumnKind(name string) (Kind, bool) {
	k, ok := d.colIndex[name]
	return k, ok
}

// Relationships returns the relationship definitions in declaration order.
func (d *Descriptor) Relationships() []Relationship {
	return d.rels
}

// Relationship returns the named relationship.
func (d *Descriptor) Relationship(name string) (Relationship, bool) {
	r, ok := d.relIndex[name]
	return r, ok
}

// Entity is one row of a table, scanned into a generic value bag keyed by
// column name. Entities live only for the duration of one query execution.
type Entity struct {
	desc   *Descriptor
	values map[string]interface{}
}

// NewEntity builds an entity from a descriptor and its scanned column values.
func NewEntity(desc *Descriptor, values map[string]interface{}) *Entity {
	return &Entity{desc: desc, values: values}
}

// Descriptor returns the table descriptor this entity belongs to.
func (e *Entity) Descriptor() *Descriptor {
	return e.desc
}

// Get returns the value of the named column. Missing columns report ok=false;
// NULL column values are returned as a nil interface.
func (e *Entity) Get(column string) (interface{}, bool) {
	if !e.desc.HasColumn(column) {
		return nil, false
	}
	return e.values[column], true
}

// ID returns the primary key value of this row.
func (e *Entity) ID() interface{} {
	return e.values[e.desc.PK]
}

// ReadAccessSession is the capability the authorization layer requires from an
// authenticated caller session: given a model, a column name in database
// naming and optionally a concrete row, decide whether the column may be read.
// A nil instance requests the class level check used when validating filter
// and sort references.
type ReadAccessSession interface {
	MayRead(model *Descriptor, column string, instance *Entity) bool
}

// Registry is the set of exposed tables, keyed by table name.
type Registry struct {
	tables map[string]*Descriptor
	order  []string
}

func newRegistry(descs ...*Descriptor) *Registry {
	r := &Registry{tables: make(map[string]*Descriptor, len(descs))}
	for _, d := range descs {
		r.tables[d.Table] = d
		r.order = append(r.order, d.Table)
	}
	sort.Strings(r.order)
	return r
}

// Get returns the descriptor for the named table.
func (r *Registry) Get(table string) (*Descriptor, bool) {
	d, ok := r.tables[table]
	return d, ok
}

// All returns all descriptors ordered by table name.
func (r *Registry) All() []*Descriptor {
	descs := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		descs = append(descs, r.tables[name])
	}
	return descs
}

// Validate checks the internal consistency of the registry: every
// relationship must reference a registered table and existing join columns.
func (r *Registry) Validate() error {
	var result *multierror.Error
	for _, d := range r.All() {
		for _, rel := range d.rels {
			target, ok := r.tables[rel.Target]
			if !ok {
				result = multierror.Append(result, fmt.Errorf("%s.%s: unknown target table %q", d.Table, rel.Name, rel.Target))
				continue
			}
			if !target.HasColumn(rel.TargetColumn) {
				result = multierror.Append(result, fmt.Errorf("%s.%s: target table %q has no column %q", d.Table, rel.Name, rel.Target, rel.TargetColumn))
			}
			if !d.HasColumn(rel.LocalColumn) {
				result = multierror.Append(result, fmt.Errorf("%s.%s: local table has no column %q", d.Table, rel.Name, rel.LocalColumn))
			}
		}
	}
	return result.ErrorOrNil()
}
