// Package config loads and persists the client's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	toml "github.com/pelletier/go-toml/v2"
)

// Theme names accepted for the ui.theme preference.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Config is the full persisted client configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	UI      UIConfig      `toml:"ui"`
	Keys    KeyConfig     `toml:"keys"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig locates the backend the client talks to.
type ServerConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

// UIConfig holds display preferences. Theme is the client-local persisted
// preference; it never reaches the server.
type UIConfig struct {
	Theme            string `toml:"theme"`
	ShowDescriptions bool   `toml:"show_descriptions"`
	ShowEstimates    bool   `toml:"show_estimates"`
}

// KeyConfig holds user key overrides for a few contested bindings.
type KeyConfig struct {
	ToggleTheme string `toml:"toggle_theme"`
	TagManager  string `toml:"tag_manager"`
	Filter      string `toml:"filter"`
	NewCard     string `toml:"new_card"`
}

// LoggingConfig configures the runtime logger sinks.
type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig configures the optional dev-mode logfmt file sink.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the configuration used when no file exists.
func Default(serverURL string) Config {
	if strings.TrimSpace(serverURL) == "" {
		serverURL = "http://127.0.0.1:5001"
	}
	return Config{
		Server: ServerConfig{
			BaseURL: serverURL,
		},
		UI: UIConfig{
			Theme:            ThemeDark,
			ShowDescriptions: true,
			ShowEstimates:    true,
		},
		Keys: KeyConfig{
			ToggleTheme: "T",
			TagManager:  "g",
			Filter:      "f",
			NewCard:     "n",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
			},
		},
	}
}

// Load reads the config file at path, overlaying defaults. A missing or empty
// file yields the defaults unchanged.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// urlPattern keeps base_url restricted to plain http(s) origins.
var urlPattern = regexp.MustCompile(`^https?://`)

// Validate checks the loaded configuration.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.BaseURL, validation.Required, validation.Match(urlPattern).Error("must start with http:// or https://")),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.ValidateStruct(&c.UI,
		validation.Field(&c.UI.Theme, validation.Required, validation.In(ThemeLight, ThemeDark)),
	); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	if err := validation.ValidateStruct(&c.Logging,
		validation.Field(&c.Logging.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// UpsertTheme rewrites only the ui.theme key in the config file, preserving
// every other key the user may have set.
func UpsertTheme(path, theme string) error {
	theme = strings.TrimSpace(strings.ToLower(theme))
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("invalid theme %q", theme)
	}
	return upsert(path, func(doc map[string]any) {
		section, ok := doc["ui"].(map[string]any)
		if !ok {
			section = map[string]any{}
		}
		section["theme"] = theme
		doc["ui"] = section
	})
}

// UpsertServer rewrites the server.base_url key in the config file.
func UpsertServer(path, baseURL string) error {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return errors.New("server base url is required")
	}
	return upsert(path, func(doc map[string]any) {
		section, ok := doc["server"].(map[string]any)
		if !ok {
			section = map[string]any{}
		}
		section["base_url"] = baseURL
		doc["server"] = section
	})
}

// upsert applies one mutation to the raw TOML document at path with a
// read-modify-write cycle that keeps unknown keys intact.
func upsert(path string, mutate func(map[string]any)) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is required")
	}
	doc := map[string]any{}
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(content) > 0 {
			if decodeErr := toml.Unmarshal(content, &doc); decodeErr != nil {
				return fmt.Errorf("decode config: %w", decodeErr)
			}
		}
	case errors.Is(err, os.ErrNotExist):
		// First write creates the file.
	default:
		return fmt.Errorf("read config: %w", err)
	}

	mutate(doc)

	encoded, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// EnsureConfigDir creates the directory holding the config file.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
