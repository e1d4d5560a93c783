package completion

import (
	"sort"

	"github.com/tidwall/gjson"

	"github.com/dshills/suggest/internal/fuzzy"
	"github.com/dshills/suggest/internal/protocol"
)

type rankKey struct {
	sortKey string
	index   int
	match   *fuzzy.Match
}

// usable reports whether the key carries a match that says something about
// relevance.
func (k rankKey) usable() bool {
	return k.match != nil && !k.match.IsDefault()
}

// less orders by match (score descending, then earlier first match), then
// sort key ascending, then merge index.
func (k rankKey) less(o rankKey) bool {
	ku, ou := k.usable(), o.usable()
	if ku != ou {
		return ku
	}
	if ku {
		if k.match.Score != o.match.Score {
			return k.match.Score > o.match.Score
		}
		kp, op := k.match.FirstPosition(), o.match.FirstPosition()
		if kp != op {
			return kp < op
		}
	}
	if k.sortKey != o.sortKey {
		return k.sortKey < o.sortKey
	}
	return k.index < o.index
}

// Trim ranks items and keeps the first limit of them. The match used for
// ranking is read from each item's handle. Items are returned unchanged
// when limit is not positive or not exceeded.
func Trim(items []protocol.CompletionItem, limit int) []protocol.CompletionItem {
	if limit <= 0 || len(items) <= limit {
		return items
	}

	keys := make([]rankKey, len(items))
	for i := range items {
		keys[i] = rankKey{
			sortKey: items[i].SortKey(),
			index:   i,
			match:   matchFromData(items[i].Data),
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].less(keys[j])
	})

	out := make([]protocol.CompletionItem, limit)
	for i := range out {
		out[i] = items[keys[i].index]
	}
	return out
}

// matchFromData reads the handle match from item data. Items without a
// decodable match rank by sort key only.
func matchFromData(data []byte) *fuzzy.Match {
	if len(data) == 0 {
		return nil
	}
	m := gjson.GetBytes(data, handleKey+".match")
	if !m.Exists() {
		return nil
	}
	match, err := decodeMatch(m)
	if err != nil {
		return nil
	}
	return &match
}
