package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/msalah0e/ontoview/internal/detail"
	"github.com/msalah0e/ontoview/internal/interaction"
	"github.com/msalah0e/ontoview/internal/layout"
	"github.com/msalah0e/ontoview/internal/render"
	"github.com/msalah0e/ontoview/internal/session"
	"github.com/msalah0e/ontoview/internal/source"
	"github.com/msalah0e/ontoview/internal/viewport"
)

// ProjectFile is the per-project override searched for upward from the
// working directory.
const ProjectFile = ".ontoview.toml"

// Config holds ontoview configuration.
type Config struct {
	Layout      layout.Config      `toml:"layout"`
	Viewport    viewport.Config    `toml:"viewport"`
	Interaction interaction.Config `toml:"interaction"`
	Source      source.Config      `toml:"source"`
	Neo4j       source.Neo4jConfig `toml:"neo4j"`
	Fetch       FetchConfig        `toml:"fetch"`
	Detail      detail.Config      `toml:"detail"`
	Serve       ServeConfig        `toml:"serve"`
	Log         LogConfig          `toml:"log"`
}

// FetchConfig controls the per-node relationship fan-out.
type FetchConfig struct {
	Concurrency int `toml:"concurrency" validate:"gte=0"` // 0 = one goroutine per node
}

// ServeConfig controls the HTTP viewer.
type ServeConfig struct {
	Addr    string         `toml:"addr" validate:"required"`
	ViewBox render.ViewBox `toml:"view_box"`
	Watch   bool           `toml:"watch"`
	Journal string         `toml:"journal"`
	Subject string         `toml:"subject"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=console json"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout:      layout.DefaultConfig(),
		Viewport:    viewport.DefaultConfig(),
		Interaction: interaction.DefaultConfig(),
		Source:      source.Config{Kind: "file", PageSize: 500},
		Neo4j:       source.Neo4jConfig{URI: "neo4j://localhost:7687", Username: "neo4j", Database: "neo4j"},
		Fetch:       FetchConfig{},
		Detail:      detail.DefaultConfig(),
		Serve: ServeConfig{
			Addr:    "127.0.0.1:7345",
			ViewBox: render.ViewBox{X: -500, Y: -400, W: 1000, H: 800},
			Watch:   true,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Session returns the settings of the components a session owns.
func (c *Config) Session() session.Config {
	return session.Config{
		Layout:      c.Layout,
		Viewport:    c.Viewport,
		Interaction: c.Interaction,
		Detail:      c.Detail,
	}
}

// ConfigDir returns the ontoview config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ontoview")
}

// Path returns the global config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load builds the effective configuration: defaults, then the global file,
// then the nearest project file, then the environment (a .env file in the
// working directory included). Missing files are fine; malformed ones and
// invalid results are errors.
func Load() (*Config, error) {
	cfg := Default()

	if err := decodeFile(Path(), cfg); err != nil {
		return nil, err
	}
	if project := findProjectConfig(); project != "" {
		if err := decodeFile(project, cfg); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// findProjectConfig walks up from the working directory looking for
// ProjectFile. Returns "" when there is none.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// applyEnv lets ONTOVIEW_* variables override file settings. Secrets are
// expected to arrive this way.
func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"ONTOVIEW_SOURCE":         &cfg.Source.Kind,
		"ONTOVIEW_SOURCE_PATH":    &cfg.Source.Path,
		"ONTOVIEW_BASE_URL":       &cfg.Source.BaseURL,
		"ONTOVIEW_TOKEN":          &cfg.Source.Token,
		"ONTOVIEW_NEO4J_URI":      &cfg.Neo4j.URI,
		"ONTOVIEW_NEO4J_USERNAME": &cfg.Neo4j.Username,
		"ONTOVIEW_NEO4J_PASSWORD": &cfg.Neo4j.Password,
		"ONTOVIEW_NEO4J_DATABASE": &cfg.Neo4j.Database,
		"ONTOVIEW_ADDR":           &cfg.Serve.Addr,
		"ONTOVIEW_LOG_LEVEL":      &cfg.Log.Level,
		"ONTOVIEW_LOG_FORMAT":     &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("ONTOVIEW_FETCH_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ONTOVIEW_FETCH_CONCURRENCY: %w", err)
		}
		cfg.Fetch.Concurrency = n
	}
	return nil
}

var validate = validator.New()

// Validate checks every section.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldError(e))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func fieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a URL", field)
	case "gt", "gte", "lt", "lte", "gtefield":
		return fmt.Sprintf("%s must be %s %s", field, e.Tag(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Save writes the config to the global file.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}
