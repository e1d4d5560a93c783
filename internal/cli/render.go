package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/dshills/suggest/internal/completion"
	"github.com/dshills/suggest/internal/protocol"
)

// Color modes accepted by --color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Printer writes command output, with or without color.
type Printer struct {
	out io.Writer

	header *color.Color
	match  *color.Color
	detail *color.Color
	warn   *color.Color
}

// NewPrinter creates a printer. In auto mode colors are used only when out
// is a terminal.
func NewPrinter(out io.Writer, mode string) *Printer {
	p := &Printer{
		out:    out,
		header: color.New(color.FgGreen, color.Bold),
		match:  color.New(color.FgYellow, color.Bold),
		detail: color.New(color.FgHiBlack),
		warn:   color.New(color.FgYellow),
	}

	enable := false
	switch mode {
	case ColorAlways:
		enable = true
	case ColorNever:
	default:
		enable = isTerminal(out)
	}
	for _, c := range []*color.Color{p.header, p.match, p.detail, p.warn} {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Highlight marks the runes of label at positions.
func (p *Printer) Highlight(label string, positions []int) string {
	if len(positions) == 0 {
		return label
	}
	marked := make(map[int]bool, len(positions))
	for _, pos := range positions {
		marked[pos] = true
	}

	var b strings.Builder
	i := 0
	for _, r := range label {
		if marked[i] {
			b.WriteString(p.match.Sprint(string(r)))
		} else {
			b.WriteRune(r)
		}
		i++
	}
	return b.String()
}

func (p *Printer) newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(p.out)
	table.SetHeader(header)
	table.SetBorder(true)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	align := make([]int, len(header))
	for i := range align {
		align[i] = tablewriter.ALIGN_LEFT
	}
	table.SetColumnAlignment(align)
	return table
}

// Completions prints a result list as a table.
func (p *Printer) Completions(list *protocol.CompletionList) {
	if len(list.Items) == 0 {
		fmt.Fprintln(p.out, p.detail.Sprint("no completions"))
		return
	}

	table := p.newTable("#", "Label", "Kind", "Detail", "Provider", "Score")
	for i, item := range list.Items {
		provider, score, positions := "", "", []int(nil)
		if h, err := completion.DecodeHandle(item.Data); err == nil {
			provider = h.ProviderID
			if h.Match != nil && !h.Match.IsDefault() {
				score = strconv.Itoa(h.Match.Score)
				if item.FilterText == "" {
					positions = h.Match.Positions
				}
			}
		}
		detail := item.Detail
		if detail == "" && item.LabelDetails != nil {
			detail = item.LabelDetails.Description
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			p.Highlight(item.Label, positions),
			item.Kind.String(),
			p.detail.Sprint(detail),
			provider,
			score,
		})
	}
	table.Render()

	if list.IsIncomplete {
		fmt.Fprintln(p.out, p.warn.Sprint("list is incomplete; typing more will query again"))
	}
}

// Item prints the fields of one item.
func (p *Printer) Item(item protocol.CompletionItem) {
	fmt.Fprintln(p.out, p.header.Sprint(item.Label))
	if item.Detail != "" {
		fmt.Fprintln(p.out, item.Detail)
	}
	if item.InsertText != "" && item.InsertText != item.Label {
		fmt.Fprintf(p.out, "%s %s\n", p.detail.Sprint("insert:"), item.InsertText)
	}
	if item.Documentation != nil && item.Documentation.Value != "" {
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, item.Documentation.Value)
	}
}

// KeyValues prints rows of two columns.
func (p *Printer) KeyValues(keyHeader, valueHeader string, rows [][2]string) {
	table := p.newTable(keyHeader, valueHeader)
	for _, row := range rows {
		table.Append([]string{row[0], row[1]})
	}
	table.Render()
}

// Message prints a line.
func (p *Printer) Message(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// JSON prints v indented.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
