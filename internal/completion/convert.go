package completion

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/suggest/internal/protocol"
)

// Converter turns a candidate into its wire form, merging data into the
// item's data field.
type Converter interface {
	Convert(c *Candidate, data json.RawMessage) protocol.CompletionItem
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(c *Candidate, data json.RawMessage) protocol.CompletionItem

// Convert implements Converter.
func (f ConverterFunc) Convert(c *Candidate, data json.RawMessage) protocol.CompletionItem {
	return f(c, data)
}

// DefaultConverter copies candidate fields one to one. Provider Data that
// encodes to a JSON object is kept, with the keys of data written over it.
type DefaultConverter struct{}

// Convert implements Converter.
func (DefaultConverter) Convert(c *Candidate, data json.RawMessage) protocol.CompletionItem {
	item := protocol.CompletionItem{
		Label:               c.Label,
		LabelDetails:        c.LabelDetails,
		Kind:                c.Kind,
		Detail:              c.Detail,
		Documentation:       c.Documentation,
		Preselect:           c.Preselect,
		SortText:            c.SortText,
		FilterText:          c.FilterText,
		InsertText:          c.InsertText,
		InsertTextFormat:    c.InsertTextFormat,
		TextEdit:            c.TextEdit,
		AdditionalTextEdits: c.AdditionalTextEdits,
		CommitCharacters:    c.CommitCharacters,
		Command:             c.Command,
	}
	item.Data = mergeData(c.Data, data)
	return item
}

func mergeData(providerData any, data json.RawMessage) json.RawMessage {
	if providerData == nil {
		return data
	}
	base, err := json.Marshal(providerData)
	if err != nil || !gjson.ValidBytes(base) || !gjson.ParseBytes(base).IsObject() {
		return data
	}
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return base
	}

	merged := base
	ok := true
	gjson.ParseBytes(data).ForEach(func(key, value gjson.Result) bool {
		merged, err = sjson.SetRawBytes(merged, escapePathKey(key.String()), []byte(value.Raw))
		if err != nil {
			ok = false
			return false
		}
		return true
	})
	if !ok {
		return data
	}
	return merged
}

var pathEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

// escapePathKey makes key safe to use as a single sjson path component.
func escapePathKey(key string) string {
	return pathEscaper.Replace(key)
}
