package config

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration.

// CompletionConfig holds the aggregator settings.
type CompletionConfig struct {
	// EnableServerSideFuzzyMatch filters and scores items before returning them.
	EnableServerSideFuzzyMatch bool `koanf:"enableServerSideFuzzyMatch"`

	// EntriesLimit caps the number of returned items. 0 means unlimited.
	EntriesLimit int `koanf:"entriesLimit"`

	// CacheCapacity is the number of query results kept for resolve and accept.
	CacheCapacity int `koanf:"cacheCapacity"`

	// AggressiveThreshold is the batch size above which the cheaper
	// fuzzy algorithm is used.
	AggressiveThreshold int `koanf:"aggressiveThreshold"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `koanf:"level"`

	// Format is "text" or "json".
	Format string `koanf:"format"`
}

// TelemetryConfig holds tracing and metrics settings.
type TelemetryConfig struct {
	Traces      bool   `koanf:"traces"`
	Metrics     bool   `koanf:"metrics"`
	ServiceName string `koanf:"serviceName"`
}

// WordsConfig configures the buffer words provider.
type WordsConfig struct {
	Enabled   bool `koanf:"enabled"`
	MinLength int  `koanf:"minLength"`
}

// KeywordsConfig configures the keyword provider.
type KeywordsConfig struct {
	Enabled bool `koanf:"enabled"`

	// Files are extra keyword set files loaded after the built-in sets.
	Files []string `koanf:"files"`
}

// LuaConfig lists Lua provider scripts.
type LuaConfig struct {
	Scripts []string `koanf:"scripts"`
}

// ProvidersConfig groups the provider sections.
type ProvidersConfig struct {
	Words    WordsConfig    `koanf:"words"`
	Keywords KeywordsConfig `koanf:"keywords"`
	Lua      LuaConfig      `koanf:"lua"`
}

// Settings is the whole typed configuration.
type Settings struct {
	Completion CompletionConfig `koanf:"completion"`
	Log        LogConfig        `koanf:"log"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Providers  ProvidersConfig  `koanf:"providers"`
}

// validate checks ranges and enums. Unknown keys are checked separately.
func (s *Settings) validate() ValidationErrors {
	var errs ValidationErrors
	if s.Completion.EntriesLimit < 0 {
		errs = append(errs, &ValidationError{
			Path:    "completion.entriesLimit",
			Message: "must not be negative",
			Value:   s.Completion.EntriesLimit,
			Code:    ErrCodeOutOfRange,
		})
	}
	if s.Completion.CacheCapacity < 1 {
		errs = append(errs, &ValidationError{
			Path:    "completion.cacheCapacity",
			Message: "must be at least 1",
			Value:   s.Completion.CacheCapacity,
			Code:    ErrCodeOutOfRange,
		})
	}
	if s.Completion.AggressiveThreshold < 1 {
		errs = append(errs, &ValidationError{
			Path:    "completion.aggressiveThreshold",
			Message: "must be at least 1",
			Value:   s.Completion.AggressiveThreshold,
			Code:    ErrCodeOutOfRange,
		})
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &ValidationError{
			Path:    "log.level",
			Message: "must be debug, info, warn or error",
			Value:   s.Log.Level,
			Code:    ErrCodeInvalidEnum,
		})
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, &ValidationError{
			Path:    "log.format",
			Message: "must be text or json",
			Value:   s.Log.Format,
			Code:    ErrCodeInvalidEnum,
		})
	}
	return errs
}
