package luaprovider

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/suggest/internal/completion"
	"github.com/dshills/suggest/internal/protocol"
)

// toGoValue converts a Lua value to plain Go values. Tables with keys 1..n
// become slices, other tables become maps. Functions and cycles become nil.
func toGoValue(lv lua.LValue) any {
	return toGoVisited(lv, make(map[*lua.LTable]bool))
}

func toGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		if n := v.Len(); n > 0 && countKeys(v) == n {
			arr := make([]any, n)
			for i := 1; i <= n; i++ {
				arr[i-1] = toGoVisited(v.RawGetInt(i), visited)
			}
			return arr
		}
		m := make(map[string]any)
		v.ForEach(func(k, val lua.LValue) {
			m[k.String()] = toGoVisited(val, visited)
		})
		return m
	default:
		return nil
	}
}

func countKeys(t *lua.LTable) int {
	n := 0
	t.ForEach(func(_, _ lua.LValue) { n++ })
	return n
}

// toLuaValue converts plain Go values to Lua.
func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case []any:
		t := L.NewTable()
		for _, e := range x {
			t.Append(toLuaValue(L, e))
		}
		return t
	case []string:
		t := L.NewTable()
		for _, e := range x {
			t.Append(lua.LString(e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLuaValue(L, x[k]))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(x))
	}
}

// tableString reads a string field, accepting numbers.
func tableString(t *lua.LTable, key string) string {
	switch v := t.RawGetString(key).(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		return v.String()
	default:
		return ""
	}
}

// candidateFromLua builds a candidate from a string or an item table:
//
//	{ label = "print", kind = "function", detail = "print(...)",
//	  documentation = "...", sort_text = "", filter_text = "",
//	  insert_text = "print($1)", snippet = true, preselect = false,
//	  needs_resolve = true, data = { ... },
//	  command = { title = "", command = "id", arguments = { ... } } }
func candidateFromLua(lv lua.LValue) (*completion.Candidate, error) {
	switch v := lv.(type) {
	case lua.LString:
		if v == "" {
			return nil, fmt.Errorf("empty label")
		}
		return &completion.Candidate{Label: string(v)}, nil
	case *lua.LTable:
		c := &completion.Candidate{
			Label:        tableString(v, "label"),
			Detail:       tableString(v, "detail"),
			SortText:     tableString(v, "sort_text"),
			FilterText:   tableString(v, "filter_text"),
			InsertText:   tableString(v, "insert_text"),
			Preselect:    lua.LVAsBool(v.RawGetString("preselect")),
			NeedsResolve: lua.LVAsBool(v.RawGetString("needs_resolve")),
		}
		if c.Label == "" {
			return nil, fmt.Errorf("item without label")
		}
		applyKind(c, v.RawGetString("kind"))
		if doc := tableString(v, "documentation"); doc != "" {
			c.Documentation = &protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: doc}
		}
		if lua.LVAsBool(v.RawGetString("snippet")) {
			c.InsertTextFormat = protocol.InsertTextFormatSnippet
		}
		if d := v.RawGetString("data"); d != lua.LNil {
			c.Data = toGoValue(d)
		}
		if cmd, ok := v.RawGetString("command").(*lua.LTable); ok {
			c.Command = commandFromLua(cmd)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("item must be a string or table, got %s", lv.Type())
	}
}

func applyKind(c *completion.Candidate, lv lua.LValue) {
	switch k := lv.(type) {
	case lua.LNumber:
		c.Kind = protocol.CompletionItemKind(int(k))
	case lua.LString:
		c.Kind = protocol.ParseCompletionItemKind(string(k))
	}
}

func commandFromLua(t *lua.LTable) *protocol.Command {
	id := tableString(t, "command")
	if id == "" {
		return nil
	}
	cmd := &protocol.Command{Title: tableString(t, "title"), Command: id}
	if args, ok := toGoValue(t.RawGetString("arguments")).([]any); ok {
		cmd.Arguments = args
	}
	return cmd
}

// candidateToLua builds the item table passed to resolve.
func candidateToLua(L *lua.LState, c *completion.Candidate) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("label", lua.LString(c.Label))
	t.RawSetString("kind", lua.LString(c.Kind.String()))
	if c.Detail != "" {
		t.RawSetString("detail", lua.LString(c.Detail))
	}
	if c.Documentation != nil {
		t.RawSetString("documentation", lua.LString(c.Documentation.Value))
	}
	if c.SortText != "" {
		t.RawSetString("sort_text", lua.LString(c.SortText))
	}
	if c.FilterText != "" {
		t.RawSetString("filter_text", lua.LString(c.FilterText))
	}
	if c.InsertText != "" {
		t.RawSetString("insert_text", lua.LString(c.InsertText))
	}
	if c.Data != nil {
		t.RawSetString("data", toLuaValue(L, c.Data))
	}
	return t
}

// mergeResolved returns a copy of c with the fields set in t applied.
func mergeResolved(c *completion.Candidate, t *lua.LTable) *completion.Candidate {
	out := *c
	if s := tableString(t, "label"); s != "" {
		out.Label = s
	}
	if s := tableString(t, "detail"); s != "" {
		out.Detail = s
	}
	if s := tableString(t, "documentation"); s != "" {
		out.Documentation = &protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: s}
	}
	if s := tableString(t, "insert_text"); s != "" {
		out.InsertText = s
	}
	if cmd, ok := t.RawGetString("command").(*lua.LTable); ok {
		out.Command = commandFromLua(cmd)
	}
	out.NeedsResolve = false
	return &out
}
