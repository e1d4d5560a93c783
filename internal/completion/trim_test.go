package completion

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/suggest/internal/fuzzy"
	"github.com/dshills/suggest/internal/protocol"
)

func wireItem(t *testing.T, label, sortText string, match *fuzzy.Match) protocol.CompletionItem {
	t.Helper()
	data, err := Handle{ProviderID: "p", Index: 0, Slot: 1, Match: match}.Encode()
	require.NoError(t, err)
	return protocol.CompletionItem{Label: label, SortText: sortText, Data: data}
}

func TestTrim_SortTextOrder(t *testing.T) {
	order := []int{7, 2, 9, 0, 5, 3, 8, 1, 6, 4}
	items := make([]protocol.CompletionItem, 0, len(order))
	for _, n := range order {
		items = append(items, wireItem(t, fmt.Sprintf("item%d", n), fmt.Sprintf("%02d", n), nil))
	}

	got := Trim(items, 3)

	assert.Equal(t, []string{"item0", "item1", "item2"}, labels(got))
}

func TestTrim_NotExceeded(t *testing.T) {
	items := []protocol.CompletionItem{
		wireItem(t, "b", "", nil),
		wireItem(t, "a", "", nil),
	}
	assert.Equal(t, items, Trim(items, 2))
	assert.Equal(t, items, Trim(items, 0))
}

func TestTrim_MatchesRankFirst(t *testing.T) {
	items := []protocol.CompletionItem{
		wireItem(t, "aaa", "", nil),
		wireItem(t, "bbb", "", &fuzzy.Match{Score: 10, Positions: []int{2}}),
		wireItem(t, "ccc", "", &fuzzy.Match{Score: 40, Positions: []int{0}}),
		wireItem(t, "ddd", "", &fuzzy.Match{Score: 10, Positions: []int{0}}),
		{Label: "eee"},
	}

	got := Trim(items, 4)

	assert.Equal(t, []string{"ccc", "ddd", "bbb", "aaa"}, labels(got))
}

func TestTrim_DefaultMatchRanksBySortKey(t *testing.T) {
	def := fuzzy.Default
	items := []protocol.CompletionItem{
		wireItem(t, "zeta", "", &def),
		wireItem(t, "alpha", "", &def),
		wireItem(t, "mid", "", &fuzzy.Match{Score: 1, Positions: []int{0}}),
	}

	got := Trim(items, 2)

	assert.Equal(t, []string{"mid", "alpha"}, labels(got))
}

func TestTrim_StableForEqualKeys(t *testing.T) {
	items := []protocol.CompletionItem{
		{Label: "x", Detail: "first"},
		{Label: "x", Detail: "second"},
		{Label: "x", Detail: "third"},
		{Label: "a"},
	}

	got := Trim(items, 3)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Label)
	assert.Equal(t, "first", got[1].Detail)
	assert.Equal(t, "second", got[2].Detail)
}
