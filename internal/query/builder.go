package query

import (
	"context"
	"strconv"
	"strings"

	"github.com/groupdir-io/groupdir/internal/index"
	"github.com/groupdir-io/groupdir/internal/models"
)

// Externally visible field keywords. The tokenizer lowercases keywords
// before dispatch, so the registry is keyed by lowercase strings only.
const (
	FieldUUID        = "uuid"
	FieldDescription = "description"
	FieldInname      = "inname"
	FieldName        = "name"
	FieldIs          = "is"
	FieldMember      = "member"
	FieldSubgroup    = "subgroup"
	FieldLimit       = "limit"

	// Deprecated: FieldOwner is retained for backward compatibility with
	// older index schemas and is not wired to a handler.
	FieldOwner = "owner"
)

// AccountResolver resolves a human-typed name or email to account ids.
// An empty result with a nil error means no account matched; a non-nil
// error means the lookup itself could not be performed.
type AccountResolver interface {
	FindAll(ctx context.Context, nameOrEmail string) ([]models.AccountID, error)
}

// GroupCache looks a group up by exact uuid. A nil group with a nil error
// means the uuid is unknown.
type GroupCache interface {
	Get(ctx context.Context, uuid models.GroupUUID) (*models.Group, error)
}

// GroupBackend produces the best fuzzy suggestion for a group name or
// uuid. A nil reference with a nil error means nothing plausible matched.
type GroupBackend interface {
	FindBestSuggestion(ctx context.Context, nameOrUUID string) (*models.GroupReference, error)
}

// Args bundles the read-only collaborators every operator handler may
// consult. One Args value is shared across all handler invocations of a
// Builder and across concurrently compiled queries.
type Args struct {
	Schema   *index.Schema
	Accounts AccountResolver
	Groups   GroupCache
	Backend  GroupBackend
}

type operatorFunc func(ctx context.Context, value string) (Predicate, error)

// Builder compiles group search operators into predicate trees. The
// operator registry is built once at construction; Dispatch is a plain map
// lookup. A Builder is safe for concurrent use.
type Builder struct {
	args      Args
	operators map[string]operatorFunc
}

// NewBuilder creates a Builder around the given collaborators.
func NewBuilder(args Args) *Builder {
	b := &Builder{args: args}
	b.operators = map[string]operatorFunc{
		FieldUUID:        b.uuid,
		FieldDescription: b.description,
		FieldInname:      b.inname,
		FieldName:        b.name,
		FieldIs:          b.is,
		FieldMember:      b.member,
		FieldSubgroup:    b.subgroup,
		FieldLimit:       b.limit,
		FieldOwner:       b.owner,
	}
	return b
}

// Dispatch routes one already-lowercased field keyword and its raw value
// to the matching operator handler.
func (b *Builder) Dispatch(ctx context.Context, field, value string) (Predicate, error) {
	op, ok := b.operators[field]
	if !ok {
		return nil, parseErrorf("unsupported search operator: %s", field)
	}
	return op(ctx, value)
}

// DefaultField builds the implicit predicate for a bare search term:
// the OR of uuid, name and name-substring matches, plus a description
// match when the term is non-empty. It never fails.
func (b *Builder) DefaultField(term string) Predicate {
	preds := make([]Predicate, 0, 4)
	preds = append(preds, Uuid(term), Name(term))
	if term == "" {
		// Same collapse the inname operator applies to empty values.
		preds = append(preds, Name(term))
	} else {
		preds = append(preds, Inname(term), Description(term))
	}
	return Or(preds...)
}

func (b *Builder) uuid(_ context.Context, value string) (Predicate, error) {
	return Uuid(value), nil
}

func (b *Builder) description(_ context.Context, value string) (Predicate, error) {
	if value == "" {
		return nil, parseErrorf("description operator requires a value")
	}
	return Description(value), nil
}

func (b *Builder) inname(ctx context.Context, value string) (Predicate, error) {
	// An empty inname means "match the empty name exactly", not "match
	// everything".
	if value == "" {
		return b.name(ctx, value)
	}
	return Inname(value), nil
}

func (b *Builder) name(_ context.Context, value string) (Predicate, error) {
	return Name(value), nil
}

func (b *Builder) is(_ context.Context, value string) (Predicate, error) {
	if strings.EqualFold(value, "visibletoall") {
		return VisibleToAll(), nil
	}
	return nil, parseErrorf("Invalid query")
}

func (b *Builder) member(ctx context.Context, value string) (Predicate, error) {
	if !b.args.Schema.HasField(index.FieldMember) {
		return nil, unsupportedOperator(FieldMember)
	}
	accounts, err := b.parseAccount(ctx, value)
	if err != nil {
		return nil, err
	}
	preds := make([]Predicate, len(accounts))
	for i, id := range accounts {
		preds[i] = Member(id)
	}
	return Or(preds...), nil
}

func (b *Builder) subgroup(ctx context.Context, value string) (Predicate, error) {
	if !b.args.Schema.HasField(index.FieldSubgroup) {
		return nil, unsupportedOperator(FieldSubgroup)
	}
	uuid, err := b.parseGroup(ctx, value)
	if err != nil {
		return nil, err
	}
	return Subgroup(uuid), nil
}

func (b *Builder) limit(_ context.Context, value string) (Predicate, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, parseErrorf("Invalid limit: %s", value)
	}
	return Limit(n), nil
}

func (b *Builder) owner(_ context.Context, _ string) (Predicate, error) {
	return nil, parseErrorf("'%s' operator is reserved and not supported", FieldOwner)
}

// parseAccount resolves a name or email to the full set of matching
// account ids. Ambiguous input is legal; zero matches is not.
func (b *Builder) parseAccount(ctx context.Context, nameOrEmail string) ([]models.AccountID, error) {
	accounts, err := b.args.Accounts.FindAll(ctx, nameOrEmail)
	if err != nil {
		return nil, unavailable("account resolver unavailable", err)
	}
	if len(accounts) == 0 {
		return nil, notFoundf("User %s not found", nameOrEmail)
	}
	return accounts, nil
}

// parseGroup resolves a name or uuid to exactly one group uuid: an exact
// cache hit wins, otherwise the backend's best fuzzy suggestion.
func (b *Builder) parseGroup(ctx context.Context, nameOrUUID string) (models.GroupUUID, error) {
	group, err := b.args.Groups.Get(ctx, models.GroupUUID(nameOrUUID))
	if err != nil {
		return "", unavailable("group lookup unavailable", err)
	}
	if group != nil {
		return group.UUID, nil
	}
	ref, err := b.args.Backend.FindBestSuggestion(ctx, nameOrUUID)
	if err != nil {
		return "", unavailable("group backend unavailable", err)
	}
	if ref == nil {
		return "", notFoundf("Group %s not found", nameOrUUID)
	}
	return ref.UUID, nil
}
