package source

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config selects and configures a backend.
type Config struct {
	Kind     string        `toml:"kind" validate:"oneof=file rest neo4j"`
	Path     string        `toml:"path"`
	BaseURL  string        `toml:"base_url" validate:"omitempty,url"`
	Token    string        `toml:"token"`
	Timeout  time.Duration `toml:"timeout"`
	PageSize int           `toml:"page_size" validate:"gte=0"`
}

// Open creates the configured source.
func Open(ctx context.Context, cfg Config, n4j Neo4jConfig, log *zap.Logger) (Source, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Kind {
	case "file", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file source needs a path")
		}
		return OpenFile(cfg.Path)
	case "rest":
		return NewREST(cfg.BaseURL,
			WithToken(cfg.Token),
			WithTimeout(cfg.Timeout),
			WithPageSize(cfg.PageSize),
			WithRESTLogger(log),
		), nil
	case "neo4j":
		return OpenNeo4j(ctx, n4j, log)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
