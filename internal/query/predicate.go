package query

import (
	"fmt"
	"strings"

	"github.com/groupdir-io/groupdir/internal/index"
	"github.com/groupdir-io/groupdir/internal/models"
)

// MatchKind distinguishes how a field predicate compares its value.
type MatchKind int

const (
	// MatchExact requires the field to equal the value.
	MatchExact MatchKind = iota
	// MatchSubstring requires the field to contain the value,
	// case-insensitively.
	MatchSubstring
)

// Predicate is a node in a boolean expression tree over groups. Trees are
// built once per query, handed to the index executor and discarded; nodes
// are never mutated after construction.
type Predicate interface {
	fmt.Stringer
}

// FieldPredicate matches a string-valued index field.
type FieldPredicate struct {
	Field index.Field
	Match MatchKind
	Value string
}

func (p *FieldPredicate) String() string {
	if p.Match == MatchSubstring {
		return fmt.Sprintf("%s~%q", p.Field, p.Value)
	}
	return fmt.Sprintf("%s=%q", p.Field, p.Value)
}

// MemberPredicate matches groups containing a resolved account.
type MemberPredicate struct {
	Account models.AccountID
}

func (p *MemberPredicate) String() string {
	return "member=" + p.Account.String()
}

// SubgroupPredicate matches groups containing a resolved subgroup.
type SubgroupPredicate struct {
	Group models.GroupUUID
}

func (p *SubgroupPredicate) String() string {
	return "subgroup=" + p.Group.String()
}

// VisiblePredicate matches groups visible to all registered users.
type VisiblePredicate struct{}

func (p *VisiblePredicate) String() string {
	return "is:visibletoall"
}

// LimitPredicate caps the number of results the executor may return. It has
// no matching semantics of its own.
type LimitPredicate struct {
	Limit int
}

func (p *LimitPredicate) String() string {
	return fmt.Sprintf("limit:%d", p.Limit)
}

// AndPredicate is the conjunction of one or more children.
type AndPredicate struct {
	Children []Predicate
}

func (p *AndPredicate) String() string {
	return combinatorString("AND", p.Children)
}

// OrPredicate is the disjunction of one or more children.
type OrPredicate struct {
	Children []Predicate
}

func (p *OrPredicate) String() string {
	return combinatorString("OR", p.Children)
}

func combinatorString(op string, children []Predicate) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}

// Uuid returns a uuid equality predicate. The value is treated as opaque;
// a malformed uuid matches nothing rather than failing.
func Uuid(uuid string) Predicate {
	return &FieldPredicate{Field: index.FieldUUID, Match: MatchExact, Value: uuid}
}

// Name returns a name equality predicate.
func Name(name string) Predicate {
	return &FieldPredicate{Field: index.FieldName, Match: MatchExact, Value: name}
}

// Inname returns a name substring predicate.
func Inname(namePart string) Predicate {
	return &FieldPredicate{Field: index.FieldNamePart, Match: MatchSubstring, Value: namePart}
}

// Description returns a description substring predicate.
func Description(description string) Predicate {
	return &FieldPredicate{Field: index.FieldDescription, Match: MatchSubstring, Value: description}
}

// Member returns a membership predicate for a resolved account.
func Member(id models.AccountID) Predicate {
	return &MemberPredicate{Account: id}
}

// Subgroup returns a subgroup predicate for a resolved group.
func Subgroup(uuid models.GroupUUID) Predicate {
	return &SubgroupPredicate{Group: uuid}
}

// VisibleToAll returns the visibility predicate.
func VisibleToAll() Predicate {
	return &VisiblePredicate{}
}

// Limit returns a limit predicate.
func Limit(n int) Predicate {
	return &LimitPredicate{Limit: n}
}

// And combines one or more predicates conjunctively. A single child is
// returned as-is.
func And(children ...Predicate) Predicate {
	if len(children) == 1 {
		return children[0]
	}
	return &AndPredicate{Children: children}
}

// Or combines one or more predicates disjunctively. A single child is
// returned as-is.
func Or(children ...Predicate) Predicate {
	if len(children) == 1 {
		return children[0]
	}
	return &OrPredicate{Children: children}
}

// ExtractLimit walks the tree and returns the value of the first limit
// predicate found, or 0 if the query carries none.
func ExtractLimit(p Predicate) int {
	switch node := p.(type) {
	case *LimitPredicate:
		return node.Limit
	case *AndPredicate:
		for _, c := range node.Children {
			if n := ExtractLimit(c); n > 0 {
				return n
			}
		}
	case *OrPredicate:
		for _, c := range node.Children {
			if n := ExtractLimit(c); n > 0 {
				return n
			}
		}
	}
	return 0
}
