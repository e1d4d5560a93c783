// Package protocol defines the wire-level types exchanged between the
// completion core and the transport that carries requests in and
// completion lists out.
//
// The shapes follow the Language Server Protocol. Character offsets in
// positions are measured in UTF-16 code units.
package protocol

import (
	"encoding/json"
	"net/url"
	"path/filepath"
	"strings"
)

// DocumentURI represents a URI as used in LSP.
// It is typically a file:// URI.
type DocumentURI string

// Position in a text document expressed as zero-based line and character offset.
// Character offset is measured in UTF-16 code units.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range in a text document expressed as start and end positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// IsEmpty reports whether the range covers no characters.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Contains reports whether pos lies inside the range, end inclusive.
func (r Range) Contains(pos Position) bool {
	return ComparePositions(r.Start, pos) <= 0 && ComparePositions(pos, r.End) <= 0
}

// ComparePositions returns -1 if a is before b, 0 if equal, 1 if after.
func ComparePositions(a, b Position) int {
	if a.Line < b.Line {
		return -1
	}
	if a.Line > b.Line {
		return 1
	}
	if a.Character < b.Character {
		return -1
	}
	if a.Character > b.Character {
		return 1
	}
	return 0
}

// TextDocumentIdentifier identifies a text document.
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// TextDocumentPositionParams is a parameter literal used in requests to pass
// a text document and a position inside that document.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// TextEdit represents a textual edit applicable to a text document.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// MarkupContent represents human readable text.
type MarkupContent struct {
	Kind  MarkupKind `json:"kind"`
	Value string     `json:"value"`
}

// MarkupKind describes the content type.
type MarkupKind string

const (
	MarkupKindPlainText MarkupKind = "plaintext"
	MarkupKindMarkdown  MarkupKind = "markdown"
)

// Command represents a reference to a command.
type Command struct {
	Title     string `json:"title"`
	Command   string `json:"command"`
	Arguments []any  `json:"arguments,omitempty"`
}

// --- Completion ---

// CompletionParams are parameters for textDocument/completion.
type CompletionParams struct {
	TextDocumentPositionParams
	Context *CompletionContext `json:"context,omitempty"`
}

// CompletionContext contains additional information about the context.
type CompletionContext struct {
	TriggerKind      CompletionTriggerKind `json:"triggerKind"`
	TriggerCharacter string                `json:"triggerCharacter,omitempty"`
}

// IsTriggerCharacter reports whether completion was started by typing a
// trigger character. A nil context means explicit invocation.
func (c *CompletionContext) IsTriggerCharacter() bool {
	return c != nil && c.TriggerKind == CompletionTriggerKindTriggerCharacter
}

// CompletionTriggerKind defines how a completion was triggered.
type CompletionTriggerKind int

const (
	CompletionTriggerKindInvoked                         CompletionTriggerKind = 1
	CompletionTriggerKindTriggerCharacter                CompletionTriggerKind = 2
	CompletionTriggerKindTriggerForIncompleteCompletions CompletionTriggerKind = 3
)

// String returns a readable name for the trigger kind.
func (k CompletionTriggerKind) String() string {
	switch k {
	case CompletionTriggerKindInvoked:
		return "invoked"
	case CompletionTriggerKindTriggerCharacter:
		return "triggerCharacter"
	case CompletionTriggerKindTriggerForIncompleteCompletions:
		return "incomplete"
	default:
		return "unknown"
	}
}

// CompletionList represents a collection of completion items.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// CompletionItemLabelDetails adds extra information to a label.
type CompletionItemLabelDetails struct {
	Detail      string `json:"detail,omitempty"`
	Description string `json:"description,omitempty"`
}

// CompletionItem represents a completion suggestion on the wire.
type CompletionItem struct {
	Label               string                      `json:"label"`
	LabelDetails        *CompletionItemLabelDetails `json:"labelDetails,omitempty"`
	Kind                CompletionItemKind          `json:"kind,omitempty"`
	Tags                []CompletionItemTag         `json:"tags,omitempty"`
	Detail              string                      `json:"detail,omitempty"`
	Documentation       *MarkupContent              `json:"documentation,omitempty"`
	Preselect           bool                        `json:"preselect,omitempty"`
	SortText            string                      `json:"sortText,omitempty"`
	FilterText          string                      `json:"filterText,omitempty"`
	InsertText          string                      `json:"insertText,omitempty"`
	InsertTextFormat    InsertTextFormat            `json:"insertTextFormat,omitempty"`
	TextEdit            *TextEdit                   `json:"textEdit,omitempty"`
	AdditionalTextEdits []TextEdit                  `json:"additionalTextEdits,omitempty"`
	CommitCharacters    []string                    `json:"commitCharacters,omitempty"`
	Command             *Command                    `json:"command,omitempty"`
	Data                json.RawMessage             `json:"data,omitempty"`
}

// SortKey returns the text used for lexicographic ordering: the sort text
// when present, else the label.
func (c *CompletionItem) SortKey() string {
	if c.SortText != "" {
		return c.SortText
	}
	return c.Label
}

// CompletionItemKind represents the type of completion item.
type CompletionItemKind int

const (
	CompletionItemKindText          CompletionItemKind = 1
	CompletionItemKindMethod        CompletionItemKind = 2
	CompletionItemKindFunction      CompletionItemKind = 3
	CompletionItemKindConstructor   CompletionItemKind = 4
	CompletionItemKindField         CompletionItemKind = 5
	CompletionItemKindVariable      CompletionItemKind = 6
	CompletionItemKindClass         CompletionItemKind = 7
	CompletionItemKindInterface     CompletionItemKind = 8
	CompletionItemKindModule        CompletionItemKind = 9
	CompletionItemKindProperty      CompletionItemKind = 10
	CompletionItemKindUnit          CompletionItemKind = 11
	CompletionItemKindValue         CompletionItemKind = 12
	CompletionItemKindEnum          CompletionItemKind = 13
	CompletionItemKindKeyword       CompletionItemKind = 14
	CompletionItemKindSnippet       CompletionItemKind = 15
	CompletionItemKindColor         CompletionItemKind = 16
	CompletionItemKindFile          CompletionItemKind = 17
	CompletionItemKindReference     CompletionItemKind = 18
	CompletionItemKindFolder        CompletionItemKind = 19
	CompletionItemKindEnumMember    CompletionItemKind = 20
	CompletionItemKindConstant      CompletionItemKind = 21
	CompletionItemKindStruct        CompletionItemKind = 22
	CompletionItemKindEvent         CompletionItemKind = 23
	CompletionItemKindOperator      CompletionItemKind = 24
	CompletionItemKindTypeParameter CompletionItemKind = 25
)

var kindNames = map[CompletionItemKind]string{
	CompletionItemKindText:          "text",
	CompletionItemKindMethod:        "method",
	CompletionItemKindFunction:      "function",
	CompletionItemKindConstructor:   "constructor",
	CompletionItemKindField:         "field",
	CompletionItemKindVariable:      "variable",
	CompletionItemKindClass:         "class",
	CompletionItemKindInterface:     "interface",
	CompletionItemKindModule:        "module",
	CompletionItemKindProperty:      "property",
	CompletionItemKindUnit:          "unit",
	CompletionItemKindValue:         "value",
	CompletionItemKindEnum:          "enum",
	CompletionItemKindKeyword:       "keyword",
	CompletionItemKindSnippet:       "snippet",
	CompletionItemKindColor:         "color",
	CompletionItemKindFile:          "file",
	CompletionItemKindReference:     "reference",
	CompletionItemKindFolder:        "folder",
	CompletionItemKindEnumMember:    "enumMember",
	CompletionItemKindConstant:      "constant",
	CompletionItemKindStruct:        "struct",
	CompletionItemKindEvent:         "event",
	CompletionItemKindOperator:      "operator",
	CompletionItemKindTypeParameter: "typeParameter",
}

// String returns the lower camel case name of the kind.
func (k CompletionItemKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return ""
}

// ParseCompletionItemKind maps a kind name back to its value.
// Unknown names map to CompletionItemKindText.
func ParseCompletionItemKind(name string) CompletionItemKind {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k
		}
	}
	return CompletionItemKindText
}

// CompletionItemTag represents a tag for completion items.
type CompletionItemTag int

const (
	CompletionItemTagDeprecated CompletionItemTag = 1
)

// InsertTextFormat defines the format of insert text.
type InsertTextFormat int

const (
	InsertTextFormatPlainText InsertTextFormat = 1
	InsertTextFormatSnippet   InsertTextFormat = 2
)

// FilePathToURI converts a file path to a DocumentURI.
func FilePathToURI(path string) DocumentURI {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	u := url.URL{Scheme: "file", Path: abs}
	return DocumentURI(u.String())
}

// URIToFilePath converts a DocumentURI back to a file path.
// Non-file URIs are returned unchanged.
func URIToFilePath(uri DocumentURI) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}
	return filepath.FromSlash(u.Path)
}
