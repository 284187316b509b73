package db

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"hookline/internal/db/models"
)

// Query is a lazy SELECT over one table. Predicates, ordering and paging are
// accumulated and only compiled into SQL when the query is materialized.
// Only the table's declared columns are ever selected, so related rows are
// never loaded implicitly.
type Query struct {
	sess   *Session
	model  *models.Descriptor
	preds  []*entsql.Predicate
	orders []string
	limit  int
	offset int
}

// Model returns the descriptor of the queried table.
func (q *Query) Model() *models.Descriptor {
	return q.model
}

// Where adds a predicate. Multiple predicates are combined with AND.
func (q *Query) Where(p *entsql.Predicate) *Query {
	if p != nil {
		q.preds = append(q.preds, p)
	}
	return q
}

// Order appends ORDER BY terms, e.g. sql.Asc("created") or sql.Desc("name").
func (q *Query) Order(terms ...string) *Query {
	q.orders = append(q.orders, terms...)
	return q
}

// Limit bounds the number of returned rows. Zero means no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset skips the first n rows.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

func (q *Query) selector(columns ...string) *entsql.Selector {
	sel := entsql.Dialect(q.sess.dialect).
		Select(columns...).
		From(entsql.Table(q.model.Table))
	switch len(q.preds) {
	case 0:
	case 1:
		sel.Where(q.preds[0])
	default:
		sel.Where(entsql.And(q.preds...))
	}
	return sel
}

// SQL compiles the query to its SELECT statement and bound arguments without
// executing it.
func (q *Query) SQL() (string, []interface{}) {
	sel := q.selector(q.model.Columns()...)
	if len(q.orders) > 0 {
		sel.OrderBy(q.orders...)
	}
	if q.limit > 0 {
		sel.Limit(q.limit)
	}
	if q.offset > 0 {
		sel.Offset(q.offset)
	}
	return sel.Query()
}

// Count returns the total number of rows matching the predicates. Ordering
// and paging are not part of the count.
func (q *Query) Count(ctx context.Context) (int, error) {
	query, args := q.selector(entsql.Count("*")).Query()
	q.sess.logger.Debug("count", "table", q.model.Table, "query", query)
	var n int
	if err := q.sess.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", q.model.Table, err)
	}
	return n, nil
}

// All materializes every matching row.
func (q *Query) All(ctx context.Context) ([]*models.Entity, error) {
	query, args := q.SQL()
	q.sess.logger.Debug("select", "table", q.model.Table, "query", query)
	rows, err := q.sess.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.model.Table, err)
	}
	defer rows.Close()
	var entities []*models.Entity
	for rows.Next() {
		entity, err := scanEntity(q.model, rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", q.model.Table, err)
	}
	return entities, nil
}

// First returns the first matching row, or nil when there is none.
func (q *Query) First(ctx context.Context) (*models.Entity, error) {
	limited := *q
	limited.limit = 1
	entities, err := limited.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

// Slice materializes the half-open row range [start, end) in the query's
// order, the way a connection realizes one page.
func (q *Query) Slice(ctx context.Context, start, end int) ([]*models.Entity, error) {
	if end <= start {
		return nil, nil
	}
	paged := *q
	paged.offset = start
	paged.limit = end - start
	return paged.All(ctx)
}

func scanEntity(model *models.Descriptor, rows *sql.Rows) (*models.Entity, error) {
	defs := model.ColumnDefs()
	dest := make([]interface{}, len(defs))
	for i, col := range defs {
		switch col.Kind {
		case models.KindInt:
			dest[i] = new(sql.NullInt64)
		case models.KindFloat:
			dest[i] = new(sql.NullFloat64)
		case models.KindBool:
			dest[i] = new(sql.NullBool)
		case models.KindTime:
			dest[i] = new(sql.NullTime)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scanning %s row: %w", model.Table, err)
	}
	values := make(map[string]interface{}, len(defs))
	for i, col := range defs {
		switch v := dest[i].(type) {
		case *sql.NullInt64:
			if v.Valid {
				values[col.Name] = v.Int64
			}
		case *sql.NullFloat64:
			if v.Valid {
				values[col.Name] = v.Float64
			}
		case *sql.NullBool:
			if v.Valid {
				values[col.Name] = v.Bool
			}
		case *sql.NullTime:
			if v.Valid {
				values[col.Name] = v.Time
			}
		case *sql.NullString:
			if v.Valid {
				values[col.Name] = v.String
			}
		}
	}
	return models.NewEntity(model, values), nil
}
