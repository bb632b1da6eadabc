// Package groups provides group persistence, lookup caching, fuzzy name
// suggestions and the SQL-backed search index executor.
package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/groupdir-io/groupdir/internal/database"
	"github.com/groupdir-io/groupdir/internal/models"
)

// Store is the sqlx-backed persistence layer for groups.
type Store struct {
	qb *database.QueryBuilder
}

// NewStore creates a Store over an existing database connection.
func NewStore(db *sql.DB, driverName string) *Store {
	return &Store{qb: database.NewQueryBuilder(db, driverName)}
}

// GetByUUID loads a single group row. A missing uuid returns (nil, nil).
func (s *Store) GetByUUID(ctx context.Context, id models.GroupUUID) (*models.Group, error) {
	var g models.Group
	err := s.qb.NewSelect("uuid", "name", "description", "owner_uuid", "visible_to_all", "created_at").
		From("groups").
		Where("uuid = ?", string(id)).
		GetContext(ctx, &g)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", id, err)
	}
	return &g, nil
}

// Create inserts a group, assigning a fresh uuid when none is set.
func (s *Store) Create(ctx context.Context, g *models.Group) error {
	if g.UUID == "" {
		g.UUID = models.GroupUUID(uuid.NewString())
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := s.qb.ExecContext(ctx,
		"INSERT INTO groups (uuid, name, description, owner_uuid, visible_to_all, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		string(g.UUID), g.Name, g.Description, string(g.OwnerUUID), g.VisibleToAll, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create group %s: %w", g.Name, err)
	}
	return nil
}

// AddMember records an account's membership in a group.
func (s *Store) AddMember(ctx context.Context, group models.GroupUUID, account models.AccountID) error {
	_, err := s.qb.ExecContext(ctx,
		"INSERT INTO group_members (group_uuid, account_id) VALUES (?, ?)",
		string(group), int(account))
	if err != nil {
		return fmt.Errorf("add member %s to group %s: %w", account, group, err)
	}
	return nil
}

// AddSubgroup records a subgroup inclusion.
func (s *Store) AddSubgroup(ctx context.Context, group, subgroup models.GroupUUID) error {
	_, err := s.qb.ExecContext(ctx,
		"INSERT INTO group_subgroups (group_uuid, subgroup_uuid) VALUES (?, ?)",
		string(group), string(subgroup))
	if err != nil {
		return fmt.Errorf("add subgroup %s to group %s: %w", subgroup, group, err)
	}
	return nil
}
