// Package config loads the suggest configuration.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  5. SUGGEST_* environment   │  ← Highest priority
//	├─────────────────────────────┤
//	│  4. Explicit --config files │
//	├─────────────────────────────┤
//	│  3. Project .suggest.toml   │
//	├─────────────────────────────┤
//	│  2. ~/.config/suggest/      │
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Files may be TOML, YAML or JSON, chosen by extension. Keys not present in
// the defaults are rejected.
//
// # Basic Usage
//
//	store := config.New(config.WithProjectDir("."))
//	if err := store.Load(ctx); err != nil {
//	    return err
//	}
//	agg := completion.New(reg, cache, store)
//
// The Store implements completion.Settings, so a Reload takes effect on
// the next query.
package config
