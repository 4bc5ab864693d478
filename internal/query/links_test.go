package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLinks(t *testing.T) {
	links := []Link{
		{Label: "open", Field: "is", Values: []string{"thread", "open"}, Count: 4},
		{Label: "closed", Field: "is", Values: []string{"thread", "closed"}, Count: 3},
	}

	got := ResolveLinks("is:thread is:open label:bug", links)
	require.Len(t, got, 2)

	assert.Equal(t, "open", got[0].Label)
	assert.Equal(t, 4, got[0].Count)
	assert.True(t, got[0].Active)
	assert.Equal(t, "label:bug is:thread is:open", got[0].Query)

	assert.False(t, got[1].Active)
	assert.Equal(t, "label:bug is:thread is:closed", got[1].Query)
}

func TestResolveLinks_NegatedValueIsInactive(t *testing.T) {
	got := ResolveLinks("-is:closed", []Link{{Label: "closed", Field: "is", Values: []string{"closed"}}})
	require.Len(t, got, 1)
	assert.False(t, got[0].Active)
	assert.Equal(t, "is:closed", got[0].Query)
}

func TestResolveLinks_NoValuesIsActive(t *testing.T) {
	got := ResolveLinks("is:open", []Link{{Label: "all", Field: "is"}})
	require.Len(t, got, 1)
	assert.True(t, got[0].Active)
	assert.Equal(t, "", got[0].Query)
}

func TestURLForQuery(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		q        string
		want     url.Values
	}{
		{
			name:     "adds q",
			rawQuery: "",
			q:        "is:open",
			want:     url.Values{"q": {"is:open"}},
		},
		{
			name:     "replaces q and keeps others",
			rawQuery: "limit=10&q=is%3Aclosed",
			q:        "is:open label:bug",
			want:     url.Values{"q": {"is:open label:bug"}, "limit": {"10"}},
		},
		{
			name:     "invalid query string is replaced",
			rawQuery: "%zz",
			q:        "is:open",
			want:     url.Values{"q": {"is:open"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := url.ParseQuery(URLForQuery(tt.rawQuery, tt.q))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromURL(t *testing.T) {
	q, ok := FromURL("q=is%3Aopen+TODO&limit=1")
	assert.True(t, ok)
	assert.Equal(t, "is:open TODO", q)

	q, ok = FromURL("q=")
	assert.True(t, ok)
	assert.Equal(t, "", q)

	_, ok = FromURL("limit=1")
	assert.False(t, ok)
}

func TestDefaultQuery(t *testing.T) {
	assert.Equal(t, "is:thread is:open", DefaultQuery("thread"))
	assert.Equal(t, "is:check is:open", DefaultQuery("check"))
}
