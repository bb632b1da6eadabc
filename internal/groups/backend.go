package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/groupdir-io/groupdir/internal/database"
	"github.com/groupdir-io/groupdir/internal/models"
)

// SQLBackend produces fuzzy group-name suggestions from the groups table.
type SQLBackend struct {
	qb *database.QueryBuilder
}

// NewSQLBackend creates a suggestion backend over an existing database
// connection.
func NewSQLBackend(db *sql.DB, driverName string) *SQLBackend {
	return &SQLBackend{qb: database.NewQueryBuilder(db, driverName)}
}

// FindBestSuggestion returns the single best group match for a typed name
// or uuid: case-insensitive exact name first, then prefix, then substring,
// preferring shorter names on ties. Nothing plausible returns (nil, nil).
func (b *SQLBackend) FindBestSuggestion(ctx context.Context, nameOrUUID string) (*models.GroupReference, error) {
	ladder := []struct {
		cond string
		arg  string
	}{
		{"LOWER(name) = LOWER(?)", nameOrUUID},
		{"LOWER(name) LIKE LOWER(?)", likeEscape(nameOrUUID) + "%"},
		{"LOWER(name) LIKE LOWER(?)", "%" + likeEscape(nameOrUUID) + "%"},
	}
	for _, step := range ladder {
		ref, err := b.lookup(ctx, step.cond, step.arg)
		if err != nil {
			return nil, fmt.Errorf("suggest group for %q: %w", nameOrUUID, err)
		}
		if ref != nil {
			return ref, nil
		}
	}
	return nil, nil
}

func (b *SQLBackend) lookup(ctx context.Context, cond, arg string) (*models.GroupReference, error) {
	var ref models.GroupReference
	err := b.qb.NewSelect("uuid", "name").
		From("groups").
		Where(cond, arg).
		OrderBy("LENGTH(name) ASC", "name ASC").
		Limit(1).
		GetContext(ctx, &ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// likeEscape neutralizes LIKE wildcards in user input.
func likeEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
