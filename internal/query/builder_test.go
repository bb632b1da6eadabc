package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupdir-io/groupdir/internal/index"
	"github.com/groupdir-io/groupdir/internal/models"
)

// fakeAccounts returns a fixed answer and counts calls so tests can verify
// that gated operators never reach the resolver.
type fakeAccounts struct {
	ids   []models.AccountID
	err   error
	calls int
}

func (f *fakeAccounts) FindAll(_ context.Context, _ string) ([]models.AccountID, error) {
	f.calls++
	return f.ids, f.err
}

type fakeGroupCache struct {
	groups map[models.GroupUUID]*models.Group
	err    error
	calls  int
}

func (f *fakeGroupCache) Get(_ context.Context, uuid models.GroupUUID) (*models.Group, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.groups[uuid], nil
}

type fakeBackend struct {
	ref   *models.GroupReference
	err   error
	calls int
}

func (f *fakeBackend) FindBestSuggestion(_ context.Context, _ string) (*models.GroupReference, error) {
	f.calls++
	return f.ref, f.err
}

func newTestBuilder(schema *index.Schema, accounts *fakeAccounts, cache *fakeGroupCache, backend *fakeBackend) *Builder {
	if accounts == nil {
		accounts = &fakeAccounts{}
	}
	if cache == nil {
		cache = &fakeGroupCache{}
	}
	if backend == nil {
		backend = &fakeBackend{}
	}
	return NewBuilder(Args{
		Schema:   schema,
		Accounts: accounts,
		Groups:   cache,
		Backend:  backend,
	})
}

func TestUuidOperator(t *testing.T) {
	b := newTestBuilder(index.LatestSchema(), nil, nil, nil)

	p, err := b.Dispatch(context.Background(), "uuid", "deadbeef")
	require.NoError(t, err)
	field, ok := p.(*FieldPredicate)
	require.True(t, ok)
	assert.Equal(t, index.FieldUUID, field.Field)
	assert.Equal(t, MatchExact, field.Match)
	assert.Equal(t, "deadbeef", field.Value)

	// Malformed uuids are opaque here, they just match nothing downstream.
	_, err = b.Dispatch(context.Background(), "uuid", "not-a-uuid")
	assert.NoError(t, err)
}

func TestDescriptionOperator(t *testing.T) {
	b := newTestBuilder(index.LatestSchema(), nil, nil, nil)

	_, err := b.Dispatch(context.Background(), "description", "")
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
	assert.Contains(t, err.Error(), "requires a value")

	p, err := b.Dispatch(context.Background(), "description", "x")
	require.NoError(t, err)
	field := p.(*FieldPredicate)
	assert.Equal(t, index.FieldDescription, field.Field)
	assert.Equal(t, MatchSubstring, field.Match)
}

func TestInnameOperator(t *testing.T) {
	b := newTestBuilder(index.LatestSchema(), nil, nil, nil)

	// Non-empty inname is a substring match, distinct from name equality.
	p, err := b.Dispatch(context.Background(), "inname", "dev")
	require.NoError(t, err)
	assert.Equal(t, Inname("dev"), p)
	assert.NotEqual(t, Name("dev"), p)

	// Empty inname collapses to an exact match on the empty name.
	p, err = b.Dispatch(context.Background(), "inname", "")
	require.NoError(t, err)
	assert.Equal(t, Name(""), p)
}

func TestIsOperator(t *testing.T) {
	b := newTestBuilder(index.LatestSchema(), nil, nil, nil)

	for _, value := range []string{"visibletoall", "visibleToAll", "VISIBLETOALL"} {
		p, err := b.Dispatch(context.Background(), "is", value)
		require.NoError(t, err, value)
		assert.Equal(t, VisibleToAll(), p)
	}

	_, err := b.Dispatch(context.Background(), "is", "bogus")
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
	assert.Contains(t, err.Error(), "Invalid query")
}

func TestLimitOperator(t *testing.T) {
	b := newTestBuilder(index.LatestSchema(), nil, nil, nil)

	p, err := b.Dispatch(context.Background(), "limit", "10")
	require.NoError(t, err)
	assert.Equal(t, Limit(10), p)

	_, err = b.Dispatch(context.Background(), "limit", "abc")
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
	assert.Contains(t, err.Error(), "abc")

	_, err = b.Dispatch(context.Background(), "limit", "")
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
}

func TestMemberOperator(t *testing.T) {
	t.Run("single match", func(t *testing.T) {
		accounts := &fakeAccounts{ids: []models.AccountID{7}}
		b := newTestBuilder(index.LatestSchema(), accounts, nil, nil)

		p, err := b.Dispatch(context.Background(), "member", "alice")
		require.NoError(t, err)
		assert.Equal(t, Member(7), p)
	})

	t.Run("ambiguous match yields OR", func(t *testing.T) {
		accounts := &fakeAccounts{ids: []models.AccountID{7, 8, 9}}
		b := newTestBuilder(index.LatestSchema(), accounts, nil, nil)

		p, err := b.Dispatch(context.Background(), "member", "alice")
		require.NoError(t, err)
		or, ok := p.(*OrPredicate)
		require.True(t, ok)
		require.Len(t, or.Children, 3)
		assert.Equal(t, Member(7), or.Children[0])
		assert.Equal(t, Member(9), or.Children[2])
	})

	t.Run("no match", func(t *testing.T) {
		b := newTestBuilder(index.LatestSchema(), &fakeAccounts{}, nil, nil)

		_, err := b.Dispatch(context.Background(), "member", "nobody@example.com")
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.Contains(t, err.Error(), "nobody@example.com")
	})

	t.Run("resolver failure is not masked as not found", func(t *testing.T) {
		accounts := &fakeAccounts{err: errors.New("connection refused")}
		b := newTestBuilder(index.LatestSchema(), accounts, nil, nil)

		_, err := b.Dispatch(context.Background(), "member", "alice")
		require.Error(t, err)
		assert.Equal(t, KindUnavailable, KindOf(err))
		var qe *Error
		require.ErrorAs(t, err, &qe)
		assert.EqualError(t, qe.Unwrap(), "connection refused")
	})

	t.Run("unsupported schema fails before resolving", func(t *testing.T) {
		accounts := &fakeAccounts{ids: []models.AccountID{7}}
		b := newTestBuilder(index.SchemaV2(), accounts, nil, nil)

		_, err := b.Dispatch(context.Background(), "member", "alice")
		require.Error(t, err)
		assert.Equal(t, KindUnsupported, KindOf(err))
		assert.Contains(t, err.Error(), "'member' operator is not supported by group index version")
		assert.Zero(t, accounts.calls)
	})
}

func TestSubgroupOperator(t *testing.T) {
	admins := &models.Group{UUID: "00000000-aaaa", Name: "Admins"}

	t.Run("exact cache hit bypasses the backend", func(t *testing.T) {
		cache := &fakeGroupCache{groups: map[models.GroupUUID]*models.Group{admins.UUID: admins}}
		backend := &fakeBackend{}
		b := newTestBuilder(index.LatestSchema(), nil, cache, backend)

		p, err := b.Dispatch(context.Background(), "subgroup", "00000000-aaaa")
		require.NoError(t, err)
		assert.Equal(t, Subgroup(admins.UUID), p)
		assert.Zero(t, backend.calls)
	})

	t.Run("cache miss falls back to best suggestion", func(t *testing.T) {
		backend := &fakeBackend{ref: &models.GroupReference{UUID: "dev-uuid", Name: "Developers"}}
		b := newTestBuilder(index.LatestSchema(), nil, &fakeGroupCache{}, backend)

		p, err := b.Dispatch(context.Background(), "subgroup", "Developers")
		require.NoError(t, err)
		assert.Equal(t, Subgroup("dev-uuid"), p)
		assert.Equal(t, 1, backend.calls)
	})

	t.Run("no match anywhere", func(t *testing.T) {
		b := newTestBuilder(index.LatestSchema(), nil, &fakeGroupCache{}, &fakeBackend{})

		_, err := b.Dispatch(context.Background(), "subgroup", "Ghosts")
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.Contains(t, err.Error(), "Ghosts")
	})

	t.Run("unsupported schema fails before any lookup", func(t *testing.T) {
		cache := &fakeGroupCache{}
		backend := &fakeBackend{}
		b := newTestBuilder(index.SchemaV2(), nil, cache, backend)

		_, err := b.Dispatch(context.Background(), "subgroup", "Admins")
		require.Error(t, err)
		assert.Equal(t, KindUnsupported, KindOf(err))
		assert.Zero(t, cache.calls)
		assert.Zero(t, backend.calls)
	})

	t.Run("backend failure propagates as unavailable", func(t *testing.T) {
		backend := &fakeBackend{err: errors.New("timeout")}
		b := newTestBuilder(index.LatestSchema(), nil, &fakeGroupCache{}, backend)

		_, err := b.Dispatch(context.Background(), "subgroup", "Admins")
		require.Error(t, err)
		assert.Equal(t, KindUnavailable, KindOf(err))
	})
}

func TestOwnerOperatorIsReserved(t *testing.T) {
	b := newTestBuilder(index.LatestSchema(), nil, nil, nil)

	_, err := b.Dispatch(context.Background(), "owner", "alice")
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
	assert.Contains(t, err.Error(), "reserved")
}

func TestDispatchUnknownField(t *testing.T) {
	b := newTestBuilder(index.LatestSchema(), nil, nil, nil)

	_, err := b.Dispatch(context.Background(), "flavor", "vanilla")
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
	assert.Contains(t, err.Error(), "flavor")
}

func TestDefaultField(t *testing.T) {
	b := newTestBuilder(index.LatestSchema(), nil, nil, nil)

	t.Run("non-empty term has four branches", func(t *testing.T) {
		p := b.DefaultField("foo")
		or, ok := p.(*OrPredicate)
		require.True(t, ok)
		require.Len(t, or.Children, 4)
		assert.Equal(t, Uuid("foo"), or.Children[0])
		assert.Equal(t, Name("foo"), or.Children[1])
		assert.Equal(t, Inname("foo"), or.Children[2])
		assert.Equal(t, Description("foo"), or.Children[3])
	})

	t.Run("empty term omits the description branch", func(t *testing.T) {
		p := b.DefaultField("")
		or, ok := p.(*OrPredicate)
		require.True(t, ok)
		require.Len(t, or.Children, 3)
		for _, c := range or.Children {
			field, ok := c.(*FieldPredicate)
			require.True(t, ok)
			assert.NotEqual(t, index.FieldDescription, field.Field)
		}
	})
}
