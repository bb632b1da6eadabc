// Package resolver turns human-typed account references (login, email or
// display name) into canonical account ids.
package resolver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/groupdir-io/groupdir/internal/database"
	"github.com/groupdir-io/groupdir/internal/models"
)

// SQLResolver resolves accounts against the directory's accounts table.
type SQLResolver struct {
	qb *database.QueryBuilder
}

// NewSQLResolver creates a resolver over an existing database connection.
func NewSQLResolver(db *sql.DB, driverName string) *SQLResolver {
	return &SQLResolver{qb: database.NewQueryBuilder(db, driverName)}
}

// FindAll returns every active account matching the input by exact email,
// exact login or case-insensitive full name. Ambiguous display names
// legitimately return more than one id; no match returns an empty slice
// with a nil error.
func (r *SQLResolver) FindAll(ctx context.Context, nameOrEmail string) ([]models.AccountID, error) {
	var ids []models.AccountID
	err := r.qb.NewSelect("id").
		From("accounts").
		Where("active = ?", true).
		Where("(email = ? OR login = ? OR LOWER(full_name) = LOWER(?))",
			nameOrEmail, nameOrEmail, nameOrEmail).
		OrderBy("id ASC").
		SelectContext(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("resolve account %q: %w", nameOrEmail, err)
	}
	return ids, nil
}
