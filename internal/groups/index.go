package groups

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/groupdir-io/groupdir/internal/database"
	"github.com/groupdir-io/groupdir/internal/index"
	"github.com/groupdir-io/groupdir/internal/models"
	"github.com/groupdir-io/groupdir/internal/query"
)

// Index executes predicate trees against the SQL group tables.
type Index struct {
	qb           *database.QueryBuilder
	defaultLimit int
	maxLimit     int
}

// IndexOptions bound how many results a search may return.
type IndexOptions struct {
	DefaultLimit int // applied when the query carries no limit operator
	MaxLimit     int // hard cap regardless of the query's limit operator
}

// NewIndex creates an executor over an existing database connection.
func NewIndex(db *sql.DB, driverName string, opts IndexOptions) *Index {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 25
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 500
	}
	return &Index{
		qb:           database.NewQueryBuilder(db, driverName),
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
	}
}

// Search evaluates a compiled predicate tree and returns matching groups
// ordered by name. The query's limit operator caps results, clamped to the
// configured maximum.
func (ix *Index) Search(ctx context.Context, p query.Predicate) ([]models.Group, error) {
	cond, args, err := toSQL(p)
	if err != nil {
		return nil, err
	}

	limit := query.ExtractLimit(p)
	if limit <= 0 {
		limit = ix.defaultLimit
	}
	if limit > ix.maxLimit {
		limit = ix.maxLimit
	}

	var out []models.Group
	err = ix.qb.NewSelect("g.uuid", "g.name", "g.description", "g.owner_uuid", "g.visible_to_all", "g.created_at").
		From("groups g").
		Where(cond, args...).
		OrderBy("g.name ASC", "g.uuid ASC").
		Limit(limit).
		SelectContext(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("execute group search: %w", err)
	}
	return out, nil
}

// toSQL translates one predicate node into a WHERE fragment with bound
// arguments.
func toSQL(p query.Predicate) (string, []interface{}, error) {
	switch node := p.(type) {
	case *query.FieldPredicate:
		return fieldToSQL(node)
	case *query.MemberPredicate:
		return "EXISTS (SELECT 1 FROM group_members m WHERE m.group_uuid = g.uuid AND m.account_id = ?)",
			[]interface{}{int(node.Account)}, nil
	case *query.SubgroupPredicate:
		return "EXISTS (SELECT 1 FROM group_subgroups s WHERE s.group_uuid = g.uuid AND s.subgroup_uuid = ?)",
			[]interface{}{string(node.Group)}, nil
	case *query.VisiblePredicate:
		return "g.visible_to_all = ?", []interface{}{true}, nil
	case *query.LimitPredicate:
		// The cap is applied to the whole statement, not per branch.
		return "1 = 1", nil, nil
	case *query.AndPredicate:
		return combineSQL(node.Children, " AND ")
	case *query.OrPredicate:
		return combineSQL(node.Children, " OR ")
	default:
		return "", nil, fmt.Errorf("unknown predicate type %T", p)
	}
}

func fieldToSQL(node *query.FieldPredicate) (string, []interface{}, error) {
	switch node.Field {
	case index.FieldUUID:
		return "g.uuid = ?", []interface{}{node.Value}, nil
	case index.FieldName:
		return "g.name = ?", []interface{}{node.Value}, nil
	case index.FieldNamePart:
		return "LOWER(g.name) LIKE LOWER(?)", []interface{}{"%" + likeEscape(node.Value) + "%"}, nil
	case index.FieldDescription:
		return "LOWER(g.description) LIKE LOWER(?)", []interface{}{"%" + likeEscape(node.Value) + "%"}, nil
	default:
		return "", nil, fmt.Errorf("field %s has no SQL mapping", node.Field)
	}
}

func combineSQL(children []query.Predicate, op string) (string, []interface{}, error) {
	conds := make([]string, 0, len(children))
	var args []interface{}
	for _, c := range children {
		cond, childArgs, err := toSQL(c)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, cond)
		args = append(args, childArgs...)
	}
	return "(" + strings.Join(conds, op) + ")", args, nil
}
