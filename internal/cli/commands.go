// Package cli implements the suggest subcommands on top of internal/app.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/suggest/internal/app"
	"github.com/dshills/suggest/internal/protocol"
	"github.com/dshills/suggest/internal/telemetry"
)

// ErrInvalidPosition is returned for a malformed LINE:COLUMN argument.
var ErrInvalidPosition = errors.New("invalid position")

// CommonParams are shared by every subcommand.
type CommonParams struct {
	ConfigFiles []string
	Workspace   string
	LogLevel    string
	Color       string
	SessionID   string

	Out io.Writer
	Err io.Writer

	// Environ defaults to os.Environ.
	Environ func() []string

	// UserConfigDir overrides the user configuration directory.
	UserConfigDir string
}

func (p CommonParams) options(extraEnv ...string) app.Options {
	environ := p.Environ
	if environ == nil {
		environ = os.Environ
	}
	return app.Options{
		ConfigFiles:   p.ConfigFiles,
		WorkspacePath: p.Workspace,
		UserConfigDir: p.UserConfigDir,
		LogLevel:      p.LogLevel,
		LogOutput:     p.Err,
		TraceWriter:   p.Err,
		SessionID:     p.SessionID,
		Environ: func() []string {
			return append(environ(), extraEnv...)
		},
	}
}

// CompleteParams configures the complete subcommand.
type CompleteParams struct {
	CommonParams

	File     string
	Position string // LINE:COLUMN, both 1-based
	Language string
	Trigger  string

	// Limit overrides completion.entriesLimit when >= 0.
	Limit int
	// NoFuzzy turns server side fuzzy matching off.
	NoFuzzy bool

	// Resolve and Accept select a 1-based item of the result.
	Resolve int
	Accept  int

	JSON  bool
	Stats bool
	Trace bool
}

// Complete opens File, queries completions at Position and prints them.
func Complete(ctx context.Context, p CompleteParams) error {
	pos, err := ParsePosition(p.Position)
	if err != nil {
		return err
	}

	var env []string
	if p.Limit >= 0 {
		env = append(env, "SUGGEST_COMPLETION_ENTRIESLIMIT="+strconv.Itoa(p.Limit))
	}
	if p.NoFuzzy {
		env = append(env, "SUGGEST_COMPLETION_ENABLESERVERSIDEFUZZYMATCH=false")
	}
	if p.Stats {
		env = append(env, "SUGGEST_TELEMETRY_METRICS=true")
	}
	if p.Trace {
		env = append(env, "SUGGEST_TELEMETRY_TRACES=true")
	}

	a, err := app.New(ctx, p.options(env...))
	if err != nil {
		return err
	}
	defer a.Shutdown()

	doc, err := a.OpenFile(p.File, p.Language)
	if err != nil {
		return err
	}

	var trigger *protocol.CompletionContext
	if p.Trigger != "" {
		trigger = &protocol.CompletionContext{
			TriggerKind:      protocol.CompletionTriggerKindTriggerCharacter,
			TriggerCharacter: p.Trigger,
		}
	}

	list, err := a.Complete(ctx, doc.URI(), pos, trigger)
	if err != nil {
		return err
	}

	printer := NewPrinter(p.Out, p.Color)
	switch {
	case p.Resolve > 0:
		item, err := pick(list, p.Resolve)
		if err != nil {
			return err
		}
		resolved, err := a.Resolve(ctx, item)
		if err != nil {
			return err
		}
		if p.JSON {
			return printer.JSON(resolved)
		}
		printer.Item(resolved)

	case p.Accept > 0:
		item, err := pick(list, p.Accept)
		if err != nil {
			return err
		}
		result, err := a.Accept(ctx, item)
		if err != nil {
			return err
		}
		if p.JSON {
			return printer.JSON(map[string]any{"label": item.Label, "result": result})
		}
		printer.Message("accepted %s", item.Label)

	default:
		if p.JSON {
			if err := printer.JSON(list); err != nil {
				return err
			}
		} else {
			printer.Completions(list)
		}
	}

	if p.Stats {
		return printStats(ctx, printer, a.Telemetry())
	}
	return nil
}

func pick(list *protocol.CompletionList, n int) (protocol.CompletionItem, error) {
	if n < 1 || n > len(list.Items) {
		return protocol.CompletionItem{}, fmt.Errorf("item %d out of range: %d items", n, len(list.Items))
	}
	return list.Items[n-1], nil
}

func printStats(ctx context.Context, printer *Printer, tp *telemetry.Provider) error {
	rm, err := tp.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}
	var rows [][2]string
	for _, name := range []string{
		telemetry.MetricQueries,
		telemetry.MetricProviderInvocations,
		telemetry.MetricTrims,
		telemetry.MetricCacheMisses,
		telemetry.MetricSelections,
	} {
		v, _ := telemetry.CounterValue(rm, name)
		rows = append(rows, [2]string{name, strconv.FormatInt(v, 10)})
	}
	printer.KeyValues("Metric", "Value", rows)
	return nil
}

// ParsePosition parses a 1-based LINE:COLUMN into a protocol position.
// COLUMN counts UTF-16 code units.
func ParsePosition(s string) (protocol.Position, error) {
	lineStr, colStr, ok := strings.Cut(s, ":")
	if !ok {
		return protocol.Position{}, fmt.Errorf("%w: %q, want LINE:COLUMN", ErrInvalidPosition, s)
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return protocol.Position{}, fmt.Errorf("%w: line %q", ErrInvalidPosition, lineStr)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 1 {
		return protocol.Position{}, fmt.Errorf("%w: column %q", ErrInvalidPosition, colStr)
	}
	return protocol.Position{Line: line - 1, Character: col - 1}, nil
}

// Providers lists the registered providers.
func Providers(ctx context.Context, p CommonParams) error {
	a, err := app.New(ctx, p.options())
	if err != nil {
		return err
	}
	defer a.Shutdown()

	printer := NewPrinter(p.Out, p.Color)
	var rows [][2]string
	for i, id := range a.Providers().IDs() {
		rows = append(rows, [2]string{strconv.Itoa(i + 1), id})
	}
	printer.KeyValues("#", "Provider", rows)
	return nil
}

// Config prints the effective configuration.
func Config(ctx context.Context, p CommonParams) error {
	a, err := app.New(ctx, p.options())
	if err != nil {
		return err
	}
	defer a.Shutdown()

	store := a.Config()
	printer := NewPrinter(p.Out, p.Color)

	keys := store.Keys()
	rows := make([][2]string, 0, len(keys))
	for _, key := range keys {
		v, _ := store.Get(key)
		rows = append(rows, [2]string{key, fmt.Sprint(v)})
	}
	printer.KeyValues("Setting", "Value", rows)

	if files := store.Files(); len(files) > 0 {
		printer.Message("loaded from: %s", strings.Join(files, ", "))
	}
	return nil
}
