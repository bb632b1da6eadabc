package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinatorsCollapseSingleChild(t *testing.T) {
	leaf := Name("admins")

	assert.Equal(t, leaf, And(leaf))
	assert.Equal(t, leaf, Or(leaf))

	and := And(leaf, VisibleToAll())
	require.IsType(t, &AndPredicate{}, and)
	assert.Len(t, and.(*AndPredicate).Children, 2)
}

func TestPredicateString(t *testing.T) {
	p := And(
		Or(Name("admins"), Inname("adm")),
		VisibleToAll(),
		Limit(10),
	)
	assert.Equal(t, `((name="admins" OR name_part~"adm") AND is:visibletoall AND limit:10)`, p.String())
}

func TestExtractLimit(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		want int
	}{
		{"no limit", Name("x"), 0},
		{"top level", Limit(5), 5},
		{"nested in and", And(Name("x"), Limit(7)), 7},
		{"nested in or", Or(Name("x"), And(VisibleToAll(), Limit(3))), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLimit(tt.pred))
		})
	}
}
