// Package app wires the completion components into one session: the
// configuration store, logging, telemetry, the document store, the
// provider registry, the command registry and the aggregator.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dshills/suggest/internal/command"
	"github.com/dshills/suggest/internal/completion"
	"github.com/dshills/suggest/internal/config"
	"github.com/dshills/suggest/internal/document"
	"github.com/dshills/suggest/internal/itemcache"
	"github.com/dshills/suggest/internal/logging"
	"github.com/dshills/suggest/internal/protocol"
	"github.com/dshills/suggest/internal/providers/keywords"
	"github.com/dshills/suggest/internal/providers/luaprovider"
	"github.com/dshills/suggest/internal/providers/words"
	"github.com/dshills/suggest/internal/registry"
	"github.com/dshills/suggest/internal/telemetry"
)

// shutdownTimeout bounds telemetry flushing on Shutdown.
const shutdownTimeout = 5 * time.Second

// Application owns every component of a completion session.
type Application struct {
	mu     sync.Mutex
	closed bool

	opts Options

	config     *config.Store
	log        *logging.Logger
	telemetry  *telemetry.Provider
	documents  *document.Store
	providers  *registry.Registry
	commands   *command.Registry
	completion *completion.Aggregator

	closers []func()
}

// Options configures the application.
type Options struct {
	// ConfigFiles are explicit configuration files. They must exist.
	ConfigFiles []string

	// WorkspacePath is searched for a project config file.
	WorkspacePath string

	// UserConfigDir overrides the user configuration directory.
	UserConfigDir string

	// LogLevel overrides log.level from the configuration.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// TraceWriter receives exported spans when traces are enabled.
	TraceWriter io.Writer

	// SessionID is attached to every log line when set.
	SessionID string

	// Environ replaces os.Environ as the source of SUGGEST_* overrides.
	Environ func() []string
}

// New creates an Application and initializes all components in
// dependency order.
func New(ctx context.Context, opts Options) (*Application, error) {
	app := &Application{
		opts:      opts,
		documents: document.NewStore(),
		commands:  command.NewRegistry(),
		providers: registry.New(),
	}

	if err := app.bootstrap(ctx); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

func (app *Application) bootstrap(ctx context.Context) error {
	// 1. Config
	configOpts := []config.Option{config.WithFiles(app.opts.ConfigFiles...)}
	if app.opts.WorkspacePath != "" {
		configOpts = append(configOpts, config.WithProjectDir(app.opts.WorkspacePath))
	}
	if app.opts.UserConfigDir != "" {
		configOpts = append(configOpts, config.WithUserConfigDir(app.opts.UserConfigDir))
	}
	if app.opts.Environ != nil {
		configOpts = append(configOpts, config.WithEnviron(app.opts.Environ))
	}
	app.config = config.New(configOpts...)
	if err := app.config.Load(ctx); err != nil {
		return NewComponentError("config", "load", err)
	}
	settings := app.config.Settings()

	// 2. Logging
	level := settings.Log.Level
	if app.opts.LogLevel != "" {
		level = app.opts.LogLevel
	}
	app.log = logging.New(level, settings.Log.Format, app.opts.LogOutput)
	if app.opts.SessionID != "" {
		app.log = app.log.With("session", app.opts.SessionID)
	}
	if app.opts.LogLevel == "" {
		app.config.OnChange(func(s config.Settings) {
			app.log.SetLevel(s.Log.Level)
		})
	}

	// 3. Telemetry
	tp, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:   settings.Telemetry.ServiceName,
		EnableMetrics: settings.Telemetry.Metrics,
		EnableTraces:  settings.Telemetry.Traces,
		TraceWriter:   app.opts.TraceWriter,
	})
	if err != nil {
		return NewComponentError("telemetry", "setup", err)
	}
	app.telemetry = tp

	// 4. Providers. Failures of optional providers are logged and skipped.
	if err := app.registerProviders(ctx, settings.Providers); err != nil {
		return err
	}

	// 5. Aggregator and commands
	cache := itemcache.New[*completion.Candidate](settings.Completion.CacheCapacity)
	app.closers = append(app.closers, cache.Dispose)
	app.completion = completion.New(app.providers, cache, app.config,
		completion.WithLogger(app.log.With("component", "completion")),
		completion.WithInstruments(tp.Instruments()),
	)
	if err := app.completion.RegisterCommands(app.commands); err != nil {
		return NewComponentError("completion", "register commands", err)
	}
	app.completion.OnSelect(func(sel completion.Selection) {
		app.log.Debug().
			Str("provider", sel.Handle.ProviderID).
			Str("label", sel.Item.Label).
			Msg("completion accepted")
	})

	app.log.Debug().
		Any("providers", app.providers.IDs()).
		Any("configFiles", app.config.Files()).
		Msg("application ready")
	return nil
}

func (app *Application) registerProviders(ctx context.Context, cfg config.ProvidersConfig) error {
	if cfg.Words.Enabled {
		if err := app.providers.Register(registry.Entry{
			ID:       words.ID,
			Provider: words.New(cfg.Words.MinLength),
		}); err != nil {
			return NewComponentError("words", "register", err)
		}
	}

	if cfg.Keywords.Enabled {
		kw, err := keywords.New()
		if err != nil {
			return NewComponentError("keywords", "load built-in sets", err)
		}
		for _, f := range cfg.Keywords.Files {
			if err := kw.LoadFile(app.resolvePath(f)); err != nil {
				app.log.Warn().Err(err).Str("file", f).Msg("skipping keyword set")
			}
		}
		var langs []string
		for lang := range kw.Languages() {
			langs = append(langs, lang)
		}
		if err := app.providers.Register(registry.Entry{
			ID:       keywords.ID,
			Provider: kw,
			Selector: registry.Selector{Languages: langs},
		}); err != nil {
			return NewComponentError("keywords", "register", err)
		}
	}

	for _, script := range cfg.Lua.Scripts {
		p, err := luaprovider.Load(ctx, app.resolvePath(script))
		if err != nil {
			app.log.Warn().Err(err).Str("script", script).Msg("skipping lua provider")
			continue
		}
		if err := app.providers.Register(registry.Entry{
			ID:                p.ID(),
			Provider:          p,
			TriggerCharacters: p.TriggerCharacters(),
		}); err != nil {
			p.Close()
			app.log.Warn().Err(err).Str("script", script).Msg("skipping lua provider")
			continue
		}
		app.closers = append(app.closers, p.Close)
	}
	return nil
}

// resolvePath makes relative provider paths relative to the workspace.
func (app *Application) resolvePath(p string) string {
	if filepath.IsAbs(p) || app.opts.WorkspacePath == "" {
		return p
	}
	return filepath.Join(app.opts.WorkspacePath, p)
}

// Config returns the configuration store.
func (app *Application) Config() *config.Store { return app.config }

// Logger returns the session logger.
func (app *Application) Logger() *logging.Logger { return app.log }

// Telemetry returns the telemetry provider.
func (app *Application) Telemetry() *telemetry.Provider { return app.telemetry }

// Documents returns the document store.
func (app *Application) Documents() *document.Store { return app.documents }

// Providers returns the provider registry.
func (app *Application) Providers() *registry.Registry { return app.providers }

// Commands returns the command registry.
func (app *Application) Commands() *command.Registry { return app.commands }

// Completion returns the aggregator.
func (app *Application) Completion() *completion.Aggregator { return app.completion }

// OpenFile reads path into the document store. The language is detected
// from the extension unless languageID is set.
func (app *Application) OpenFile(path, languageID string) (*document.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if languageID == "" {
		languageID = document.DetectLanguageID(path)
	}
	return app.documents.Open(protocol.FilePathToURI(path), languageID, string(content))
}

// Complete runs a completion query on an open document.
func (app *Application) Complete(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position, trigger *protocol.CompletionContext) (*protocol.CompletionList, error) {
	if app.isClosed() {
		return nil, ErrClosed
	}
	doc, ok := app.documents.Get(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, uri)
	}

	params := protocol.CompletionParams{Context: trigger}
	params.TextDocument.URI = uri
	params.Position = pos
	return app.completion.Query(ctx, doc, params)
}

// Resolve fills the deferred fields of an item returned by Complete.
func (app *Application) Resolve(ctx context.Context, item protocol.CompletionItem) (protocol.CompletionItem, error) {
	if app.isClosed() {
		return item, ErrClosed
	}
	return app.completion.Resolve(ctx, item)
}

// Accept runs the accept command attached to an item returned by Complete.
func (app *Application) Accept(ctx context.Context, item protocol.CompletionItem) (any, error) {
	if app.isClosed() {
		return nil, ErrClosed
	}
	if item.Command == nil {
		return nil, fmt.Errorf("item %q has no command", item.Label)
	}
	return app.commands.Execute(ctx, item.Command.Command, item.Command.Arguments...)
}

func (app *Application) isClosed() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.closed
}

// Shutdown releases providers, the item cache and telemetry. It is safe
// to call more than once.
func (app *Application) Shutdown() {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return
	}
	app.closed = true
	closers := app.closers
	app.closers = nil
	app.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}

	if app.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.telemetry.Shutdown(ctx); err != nil && app.log != nil {
			app.log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}
}
