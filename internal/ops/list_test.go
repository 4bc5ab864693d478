package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/thread"
)

type listFixture struct {
	openPerf, closed, check, ignored string
}

func seedList(t *testing.T) (*listFixture, func(ListInput) *ListOutput) {
	t.Helper()
	database := openTestDB(t)

	f := &listFixture{
		openPerf: mustCreate(t, database, "thread", "Slow search page", "perf"),
		closed:   mustCreate(t, database, "thread", "Broken link"),
		check:    mustCreate(t, database, "check", "No TODO comments"),
		ignored:  mustCreate(t, database, "thread", "Flaky test"),
	}
	mustSetStatus(t, database, f.closed, thread.StatusClosed)
	mustSetStatus(t, database, f.ignored, thread.StatusIgnored)

	list := func(in ListInput) *ListOutput {
		t.Helper()
		out, err := List(context.Background(), database, config.DefaultConfig(), in)
		require.NoError(t, err)
		return out
	}
	return f, list
}

func itemIDs(out *ListOutput) []string {
	ids := make([]string, 0, len(out.Items))
	for _, it := range out.Items {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestList_DefaultQuery(t *testing.T) {
	f, list := seedList(t)

	out := list(ListInput{})
	assert.Equal(t, "is:thread is:open", out.Query)
	assert.Equal(t, thread.KindThread, out.Kind)
	assert.Equal(t, []string{f.openPerf}, itemIDs(out))
	assert.Equal(t, map[thread.Status]int{
		thread.StatusOpen:    1,
		thread.StatusClosed:  1,
		thread.StatusIgnored: 1,
	}, out.Counts)
	assert.Equal(t, "updated_at_desc", out.Sort)
}

func TestList_Links(t *testing.T) {
	_, list := seedList(t)

	out := list(ListInput{})
	require.Len(t, out.Links, 3)

	open, closed, ignored := out.Links[0], out.Links[1], out.Links[2]
	assert.Equal(t, "open", open.Label)
	assert.True(t, open.Active)
	assert.Equal(t, "is:thread is:open", open.Query)
	assert.Equal(t, 1, open.Count)

	assert.Equal(t, "closed", closed.Label)
	assert.False(t, closed.Active)
	assert.Equal(t, "is:thread is:closed", closed.Query)
	assert.Equal(t, 1, closed.Count)

	assert.False(t, ignored.Active)
	assert.Equal(t, []string{"thread", "ignored"}, ignored.Values)
}

func TestList_KindScopesRowsAndDefault(t *testing.T) {
	f, list := seedList(t)

	out := list(ListInput{Kind: "check"})
	assert.Equal(t, "is:check is:open", out.Query)
	assert.Equal(t, []string{f.check}, itemIDs(out))
	assert.Equal(t, 1, out.Counts[thread.StatusOpen])
	assert.Equal(t, 0, out.Counts[thread.StatusClosed])

	// Kind scoping holds even when the query would admit other kinds
	out = list(ListInput{Kind: "check", Query: stringPtr("")})
	assert.Equal(t, []string{f.check}, itemIDs(out))
}

func TestList_KindFromQuery(t *testing.T) {
	f, list := seedList(t)

	out := list(ListInput{Query: stringPtr("is:check")})
	assert.Equal(t, thread.KindCheck, out.Kind)
	assert.Equal(t, []string{f.check}, itemIDs(out))
	assert.Equal(t, "is:check is:open", out.Links[0].Query)
}

func TestList_EmptyQueryMatchesAll(t *testing.T) {
	_, list := seedList(t)

	out := list(ListInput{Query: stringPtr("")})
	assert.Equal(t, "", out.Query)
	assert.Len(t, out.Items, 4)
	assert.Equal(t, 4, out.Pagination.Total)
	for _, l := range out.Links {
		assert.False(t, l.Active, "link %s", l.Label)
	}
}

func TestList_Filters(t *testing.T) {
	f, list := seedList(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"label:perf", []string{f.openPerf}},
		{"-label:perf is:thread", []string{f.ignored, f.closed}},
		{"is:closed", []string{f.closed}},
		{"todo", []string{f.check}},
		{"flaky is:ignored", []string{f.ignored}},
		{"repo:github.com/x", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			out := list(ListInput{Query: stringPtr(tt.query)})
			assert.Equal(t, tt.want, itemIDs(out))
		})
	}
}

func TestList_CanonicalQuery(t *testing.T) {
	_, list := seedList(t)

	out := list(ListInput{Query: stringPtr("  is:open   label:perf ")})
	assert.Equal(t, "is:open label:perf", out.Query)
}

func TestList_Pagination(t *testing.T) {
	_, list := seedList(t)

	out := list(ListInput{Query: stringPtr(""), Limit: 3})
	assert.Len(t, out.Items, 3)
	assert.True(t, out.Pagination.HasMore)
	assert.Equal(t, 3, out.Pagination.Limit)

	out = list(ListInput{Query: stringPtr(""), Limit: 3, Offset: 3})
	assert.Len(t, out.Items, 1)
	assert.False(t, out.Pagination.HasMore)

	out = list(ListInput{Query: stringPtr(""), Offset: 10})
	assert.Empty(t, out.Items)
	assert.NotNil(t, out.Items)

	out = list(ListInput{Query: stringPtr(""), Limit: 1000, Offset: -5})
	assert.Equal(t, MaxListLimit, out.Pagination.Limit)
	assert.Equal(t, 0, out.Pagination.Offset)
}

func TestList_IncludeDeleted(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	id := mustCreate(t, database, "", "Gone")
	_, err := Delete(ctx, database, DeleteInput{ID: id})
	require.NoError(t, err)

	out, err := List(ctx, database, config.DefaultConfig(), ListInput{})
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	out, err = List(ctx, database, config.DefaultConfig(), ListInput{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.NotNil(t, out.Items[0].DeletedAt)
}

func TestList_InvalidKind(t *testing.T) {
	database := openTestDB(t)

	_, err := List(context.Background(), database, config.DefaultConfig(), ListInput{Kind: "issue"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestList_Cancelled(t *testing.T) {
	database := openTestDB(t)
	mustCreate(t, database, "", "A")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := List(ctx, database, config.DefaultConfig(), ListInput{})
	assert.Error(t, err)
}
