package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override settings.
// SUGGEST_COMPLETION_ENTRIESLIMIT=50 sets completion.entriesLimit.
const EnvPrefix = "SUGGEST_"

// UserConfigNames are the file names looked up in the user config directory,
// in order of preference.
var UserConfigNames = []string{"config.toml", "config.yaml", "config.yml", "config.json"}

// ProjectConfigNames are the file names looked up in the project directory.
var ProjectConfigNames = []string{".suggest.toml", ".suggest.yaml", ".suggest.yml", ".suggest.json"}

const defaultsYAML = `
completion:
  enableServerSideFuzzyMatch: true
  entriesLimit: 0
  cacheCapacity: 5
  aggressiveThreshold: 2000
log:
  level: info
  format: text
telemetry:
  traces: false
  metrics: false
  serviceName: suggest
providers:
  words:
    enabled: true
    minLength: 3
  keywords:
    enabled: true
    files: []
  lua:
    scripts: []
`

// Store provides access to the merged configuration.
//
// Layers, lowest priority first: built-in defaults, the user config file,
// the project config file, explicit files, SUGGEST_* environment variables.
// Store implements completion.Settings so each query sees the values of
// the latest successful load.
type Store struct {
	mu sync.RWMutex

	k        *koanf.Koanf
	settings Settings
	loaded   []string

	userConfigDir string
	projectDir    string
	files         []string
	environ       func() []string

	observers []func(Settings)
}

// Option configures a Store.
type Option func(*Store)

// WithUserConfigDir sets the user configuration directory.
func WithUserConfigDir(dir string) Option {
	return func(s *Store) {
		s.userConfigDir = dir
	}
}

// WithProjectDir sets the directory searched for a project config file.
func WithProjectDir(dir string) Option {
	return func(s *Store) {
		s.projectDir = dir
	}
}

// WithFiles adds config files that must exist. They override the user
// and project files.
func WithFiles(paths ...string) Option {
	return func(s *Store) {
		s.files = append(s.files, paths...)
	}
}

// WithEnviron replaces os.Environ as the source of overrides.
func WithEnviron(environ func() []string) Option {
	return func(s *Store) {
		s.environ = environ
	}
}

// New creates a Store holding the built-in defaults. Call Load to read
// config files.
func New(opts ...Option) *Store {
	s := &Store{environ: os.Environ}
	for _, opt := range opts {
		opt(s)
	}
	if s.userConfigDir == "" {
		s.userConfigDir = defaultUserConfigDir()
	}

	k, err := loadDefaults()
	if err != nil {
		panic(fmt.Sprintf("config: built-in defaults: %v", err))
	}
	s.k = k
	if err := k.Unmarshal("", &s.settings); err != nil {
		panic(fmt.Sprintf("config: built-in defaults: %v", err))
	}
	return s
}

func defaultUserConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "suggest")
}

func loadDefaults() (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider([]byte(defaultsYAML)), yaml.Parser()); err != nil {
		return nil, err
	}
	return k, nil
}

// Load reads every layer. On error the previous configuration stays in
// effect.
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k, err := loadDefaults()
	if err != nil {
		return fmt.Errorf("built-in defaults: %w", err)
	}
	known := make(map[string]bool)
	for _, key := range k.Keys() {
		known[key] = true
	}

	s.mu.RLock()
	paths := s.candidatePaths()
	environ := s.environ
	s.mu.RUnlock()

	var loaded []string
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		fk, err := loadFile(p.path)
		if err != nil {
			if !p.required && os.IsNotExist(err) {
				continue
			}
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrFileNotFound, p.path)
			}
			return err
		}
		if errs := unknownKeys(fk, known, p.path); len(errs) > 0 {
			return errs
		}
		if err := k.Merge(fk); err != nil {
			return &ParseError{Path: p.path, Err: err}
		}
		loaded = append(loaded, p.path)
	}

	if err := applyEnvironment(k, environ(), known); err != nil {
		return err
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return ValidationErrors{{Message: err.Error(), Code: ErrCodeTypeMismatch}}
	}
	if errs := settings.validate(); len(errs) > 0 {
		return errs
	}

	s.mu.Lock()
	s.k = k
	s.settings = settings
	s.loaded = loaded
	observers := append([]func(Settings){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(settings)
	}
	return nil
}

// Reload re-reads every layer.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// OnChange registers fn to run after every successful load.
func (s *Store) OnChange(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

type candidate struct {
	path     string
	required bool
}

// candidatePaths must be called with s.mu held.
func (s *Store) candidatePaths() []candidate {
	var out []candidate
	if p := firstExisting(s.userConfigDir, UserConfigNames); p != "" {
		out = append(out, candidate{path: p})
	}
	if p := firstExisting(s.projectDir, ProjectConfigNames); p != "" {
		out = append(out, candidate{path: p})
	}
	for _, f := range s.files {
		out = append(out, candidate{path: f, required: true})
	}
	return out
}

func firstExisting(dir string, names []string) string {
	if dir == "" {
		return ""
	}
	for _, name := range names {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func loadFile(path string) (*koanf.Koanf, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return k, nil
}

func unknownKeys(k *koanf.Koanf, known map[string]bool, path string) ValidationErrors {
	var errs ValidationErrors
	for _, key := range k.Keys() {
		if !known[key] {
			errs = append(errs, &ValidationError{
				Path:    key,
				Message: "unknown setting in " + path,
				Value:   k.Get(key),
				Code:    ErrCodeUnknownSetting,
			})
		}
	}
	return errs
}

// applyEnvironment maps SUGGEST_SECTION_KEY variables onto known keys,
// ignoring case. List settings take comma separated values.
func applyEnvironment(k *koanf.Koanf, environ []string, known map[string]bool) error {
	byEnv := make(map[string]string, len(known))
	for key := range known {
		byEnv[strings.ToLower(strings.ReplaceAll(key, ".", "_"))] = key
	}

	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key, ok := byEnv[strings.ToLower(strings.TrimPrefix(name, EnvPrefix))]
		if !ok {
			continue
		}
		var v any = value
		if _, isList := k.Get(key).([]any); isList {
			v = splitList(value)
		}
		if err := k.Set(key, v); err != nil {
			return fmt.Errorf("environment %s: %w", name, err)
		}
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Files returns the config files read by the last successful load.
func (s *Store) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.loaded...)
}

// Keys returns every setting path, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.k.Keys()
	sort.Strings(keys)
	return keys
}

// Get returns the raw value at the given path from the merged configuration.
func (s *Store) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.k.Exists(path) {
		return nil, false
	}
	return s.k.Get(path), true
}

// GetString returns a string value at the given path.
func (s *Store) GetString(path string) (string, error) {
	v, ok := s.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	str, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return str, nil
}

// GetInt returns an integer value at the given path.
func (s *Store) GetInt(path string) (int, error) {
	v, ok := s.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n, nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
}

// GetBool returns a boolean value at the given path.
func (s *Store) GetBool(path string) (bool, error) {
	v, ok := s.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		if b, err := strconv.ParseBool(val); err == nil {
			return b, nil
		}
	}
	return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
}

// GetStringSlice returns a string slice at the given path.
func (s *Store) GetStringSlice(path string) ([]string, error) {
	v, ok := s.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}

	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...), nil
	case []any:
		result := make([]string, len(val))
		for i, item := range val {
			str, ok := item.(string)
			if !ok {
				return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
			}
			result[i] = str
		}
		return result, nil
	default:
		return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

// Settings returns a snapshot of the typed configuration.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.settings
	out.Providers.Keywords.Files = append([]string(nil), s.settings.Providers.Keywords.Files...)
	out.Providers.Lua.Scripts = append([]string(nil), s.settings.Providers.Lua.Scripts...)
	return out
}

// Completion returns the completion section.
func (s *Store) Completion() CompletionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Completion
}

// Log returns the log section.
func (s *Store) Log() LogConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Log
}

// Telemetry returns the telemetry section.
func (s *Store) Telemetry() TelemetryConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Telemetry
}

// Providers returns the provider sections.
func (s *Store) Providers() ProvidersConfig {
	return s.Settings().Providers
}

// EnableServerSideFuzzyMatch implements completion.Settings.
func (s *Store) EnableServerSideFuzzyMatch() bool {
	return s.Completion().EnableServerSideFuzzyMatch
}

// EntriesLimit implements completion.Settings.
func (s *Store) EntriesLimit() int {
	return s.Completion().EntriesLimit
}

// AggressiveThreshold implements completion.Settings.
func (s *Store) AggressiveThreshold() int {
	return s.Completion().AggressiveThreshold
}
