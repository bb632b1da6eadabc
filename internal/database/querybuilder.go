package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// QueryBuilder wraps a *sql.DB with sqlx functionality and handles bindvar
// conversion, so queries can be written once with ? placeholders and run
// against postgres, mysql or sqlite.
type QueryBuilder struct {
	db         *sqlx.DB
	driverName string
}

// NewQueryBuilder creates a QueryBuilder from an existing *sql.DB
// connection.
func NewQueryBuilder(db *sql.DB, driverName string) *QueryBuilder {
	return &QueryBuilder{
		db:         sqlx.NewDb(db, driverName),
		driverName: driverName,
	}
}

// DB returns the underlying sqlx.DB for advanced operations.
func (qb *QueryBuilder) DB() *sqlx.DB {
	return qb.db
}

// Rebind converts a query with ? placeholders to the appropriate format
// for the active driver.
func (qb *QueryBuilder) Rebind(query string) string {
	return qb.db.Rebind(query)
}

// SelectContext executes a query with context and scans results into dest
// (slice of structs).
func (qb *QueryBuilder) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return qb.db.SelectContext(ctx, dest, qb.Rebind(query), args...)
}

// GetContext executes a query with context expecting a single row.
func (qb *QueryBuilder) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return qb.db.GetContext(ctx, dest, qb.Rebind(query), args...)
}

// ExecContext executes a query with context without returning rows.
func (qb *QueryBuilder) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return qb.db.ExecContext(ctx, qb.Rebind(query), args...)
}

// In expands slice arguments for IN clauses.
// Example: In("SELECT * FROM groups WHERE uuid IN (?)", uuids).
func (qb *QueryBuilder) In(query string, args ...interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return qb.Rebind(q), a, nil
}

// SelectBuilder provides a fluent interface for building SELECT queries
// safely.
type SelectBuilder struct {
	qb       *QueryBuilder
	columns  []string
	table    string
	joins    []string
	where    []string
	args     []interface{}
	orderBy  []string
	limit    int
	offset   int
	hasLimit bool
	hasOff   bool
}

// NewSelect creates a new SelectBuilder.
func (qb *QueryBuilder) NewSelect(columns ...string) *SelectBuilder {
	return &SelectBuilder{
		qb:      qb,
		columns: columns,
	}
}

// From sets the table to select from.
func (sb *SelectBuilder) From(table string) *SelectBuilder {
	sb.table = table
	return sb
}

// LeftJoin adds a LEFT JOIN clause.
func (sb *SelectBuilder) LeftJoin(join string) *SelectBuilder {
	sb.joins = append(sb.joins, "LEFT JOIN "+join)
	return sb
}

// Where adds a WHERE condition with parameterized values.
func (sb *SelectBuilder) Where(condition string, args ...interface{}) *SelectBuilder {
	sb.where = append(sb.where, condition)
	sb.args = append(sb.args, args...)
	return sb
}

// OrderBy adds ORDER BY columns.
func (sb *SelectBuilder) OrderBy(columns ...string) *SelectBuilder {
	sb.orderBy = append(sb.orderBy, columns...)
	return sb
}

// Limit sets the LIMIT clause.
func (sb *SelectBuilder) Limit(limit int) *SelectBuilder {
	sb.limit = limit
	sb.hasLimit = true
	return sb
}

// Offset sets the OFFSET clause.
func (sb *SelectBuilder) Offset(offset int) *SelectBuilder {
	sb.offset = offset
	sb.hasOff = true
	return sb
}

// ToSQL builds the SQL query and returns it with arguments.
func (sb *SelectBuilder) ToSQL() (string, []interface{}, error) {
	if sb.table == "" {
		return "", nil, fmt.Errorf("table not specified")
	}

	var query strings.Builder
	query.WriteString("SELECT ")
	if len(sb.columns) == 0 {
		query.WriteString("*")
	} else {
		query.WriteString(strings.Join(sb.columns, ", "))
	}
	query.WriteString(" FROM ")
	query.WriteString(sb.table)

	for _, join := range sb.joins {
		query.WriteString(" ")
		query.WriteString(join)
	}

	allArgs := make([]interface{}, 0, len(sb.args)+2)
	allArgs = append(allArgs, sb.args...)

	if len(sb.where) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(sb.where, " AND "))
	}

	if len(sb.orderBy) > 0 {
		query.WriteString(" ORDER BY ")
		query.WriteString(strings.Join(sb.orderBy, ", "))
	}

	if sb.hasLimit {
		query.WriteString(" LIMIT ?")
		allArgs = append(allArgs, sb.limit)
	}

	if sb.hasOff {
		query.WriteString(" OFFSET ?")
		allArgs = append(allArgs, sb.offset)
	}

	// Handle IN clause expansion
	q, args, err := sb.qb.In(query.String(), allArgs...)
	if err != nil {
		return "", nil, err
	}
	return q, args, nil
}

// SelectContext executes the query with context and scans into dest.
func (sb *SelectBuilder) SelectContext(ctx context.Context, dest interface{}) error {
	query, args, err := sb.ToSQL()
	if err != nil {
		return err
	}
	return sb.qb.db.SelectContext(ctx, dest, query, args...)
}

// GetContext executes the query with context expecting a single row.
func (sb *SelectBuilder) GetContext(ctx context.Context, dest interface{}) error {
	query, args, err := sb.ToSQL()
	if err != nil {
		return err
	}
	return sb.qb.db.GetContext(ctx, dest, query, args...)
}
