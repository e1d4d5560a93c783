package completion

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/suggest/internal/fuzzy"
	"github.com/dshills/suggest/internal/itemcache"
)

// handleKey is the key under which the handle is stored in item data.
const handleKey = "handle"

// Handle points back at a cached candidate. It is carried in the data of
// every wire item the aggregator returns.
type Handle struct {
	ProviderID string
	Index      int
	Slot       itemcache.SlotID

	// Match is the fuzzy match the candidate was kept with. Nil when fuzzy
	// filtering did not run for its batch.
	Match *fuzzy.Match
}

// Encode returns item data holding h:
//
//	{"handle":{"providerId":"words","index":2,"slot":7,"match":{"score":48,"positions":[0,1]}}}
func (h Handle) Encode() (json.RawMessage, error) {
	raw := []byte(`{}`)
	var err error

	set := func(path string, value any) {
		if err != nil {
			return
		}
		raw, err = sjson.SetBytes(raw, path, value)
	}

	set(handleKey+".providerId", h.ProviderID)
	set(handleKey+".index", h.Index)
	set(handleKey+".slot", int64(h.Slot))
	if h.Match != nil {
		set(handleKey+".match.score", h.Match.Score)
		positions := h.Match.Positions
		if positions == nil {
			positions = []int{}
		}
		set(handleKey+".match.positions", positions)
		if h.Match.IsDefault() {
			set(handleKey+".match.default", true)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("encode handle: %w", err)
	}
	return raw, nil
}

// DecodeHandle extracts a handle from item data. Every required field must
// be present with the right shape; anything else is ErrInvalidHandle.
func DecodeHandle(data []byte) (Handle, error) {
	if len(data) == 0 {
		return Handle{}, fmt.Errorf("%w: no data", ErrInvalidHandle)
	}
	if !gjson.ValidBytes(data) {
		return Handle{}, fmt.Errorf("%w: malformed json", ErrInvalidHandle)
	}

	obj := gjson.GetBytes(data, handleKey)
	if !obj.IsObject() {
		return Handle{}, fmt.Errorf("%w: missing %q object", ErrInvalidHandle, handleKey)
	}

	var h Handle

	id := obj.Get("providerId")
	if id.Type != gjson.String || id.Str == "" {
		return Handle{}, fmt.Errorf("%w: providerId", ErrInvalidHandle)
	}
	h.ProviderID = id.Str

	index, ok := integer(obj.Get("index"))
	if !ok || index < 0 {
		return Handle{}, fmt.Errorf("%w: index", ErrInvalidHandle)
	}
	h.Index = int(index)

	slot, ok := integer(obj.Get("slot"))
	if !ok || slot < 1 {
		return Handle{}, fmt.Errorf("%w: slot", ErrInvalidHandle)
	}
	h.Slot = itemcache.SlotID(slot)

	if m := obj.Get("match"); m.Exists() {
		match, err := decodeMatch(m)
		if err != nil {
			return Handle{}, err
		}
		h.Match = &match
	}
	return h, nil
}

func decodeMatch(m gjson.Result) (fuzzy.Match, error) {
	if !m.IsObject() {
		return fuzzy.Match{}, fmt.Errorf("%w: match", ErrInvalidHandle)
	}
	if m.Get("default").Bool() {
		return fuzzy.Default, nil
	}

	score, ok := integer(m.Get("score"))
	if !ok {
		return fuzzy.Match{}, fmt.Errorf("%w: match score", ErrInvalidHandle)
	}

	var positions []int
	if p := m.Get("positions"); p.Exists() {
		if !p.IsArray() {
			return fuzzy.Match{}, fmt.Errorf("%w: match positions", ErrInvalidHandle)
		}
		for _, v := range p.Array() {
			n, ok := integer(v)
			if !ok || n < 0 {
				return fuzzy.Match{}, fmt.Errorf("%w: match positions", ErrInvalidHandle)
			}
			positions = append(positions, int(n))
		}
	}
	return fuzzy.Match{Score: int(score), Positions: positions}, nil
}

// integer reports the value of r if it is a JSON number without a fraction.
func integer(r gjson.Result) (int64, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	if r.Num != math.Trunc(r.Num) || math.Abs(r.Num) > 1<<53 {
		return 0, false
	}
	return int64(r.Num), true
}
