package cmd

import (
	"context"
	"os"

	"github.com/msalah0e/ontoview/internal/assemble"
	"github.com/msalah0e/ontoview/internal/config"
	"github.com/msalah0e/ontoview/internal/metrics"
	"github.com/msalah0e/ontoview/internal/source"
	"github.com/msalah0e/ontoview/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "0.4.0"

var (
	sourceFlag string
	fileFlag   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ontoview",
	Short: "ontoview — ontology graph viewer",
	Long: ui.Brand.Sprint(ui.Mark+" ontoview") + " — turn ontology catalogs and query results into diagrams\n" +
		ui.Subtle.Sprint("Build, render and explore object-type graphs from a file, a REST backend or Neo4j"),
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.SetVersionTemplate("ontoview {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "Source kind: file, rest or neo4j")
	rootCmd.PersistentFlags().StringVarP(&fileFlag, "file", "f", "", "Model bundle for the file source (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")

	rootCmd.AddCommand(
		buildCmd(),
		domainCmd(),
		reachableCmd(),
		queryCmd(),
		replayCmd(),
		serveCmd(),
		journalCmd(),
		configCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig returns the effective configuration with flags applied.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		ui.Bad.Printf("  %v\n", err)
		os.Exit(1)
	}
	if fileFlag != "" {
		cfg.Source.Kind = "file"
		cfg.Source.Path = fileFlag
	}
	if sourceFlag != "" {
		cfg.Source.Kind = sourceFlag
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg
}

// newLogger builds a zap logger from the [log] section. Console format
// uses the development encoder, json the production one.
func newLogger(c config.LogConfig) *zap.Logger {
	zc := zap.NewDevelopmentConfig()
	if c.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(c.Level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	l, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// openSource opens the configured backend and an assembler over it.
func openSource(ctx context.Context, cfg *config.Config, log *zap.Logger, m *metrics.Collector) (source.Source, *assemble.Assembler) {
	src, err := source.Open(ctx, cfg.Source, cfg.Neo4j, log)
	if err != nil {
		ui.Bad.Printf("  Failed to open %s source: %v\n", cfg.Source.Kind, err)
		os.Exit(1)
	}
	return src, newAssembler(src, cfg, log, m)
}

func newAssembler(b assemble.Backend, cfg *config.Config, log *zap.Logger, m *metrics.Collector) *assemble.Assembler {
	return assemble.New(b,
		assemble.WithConcurrency(cfg.Fetch.Concurrency),
		assemble.WithLogger(log),
		assemble.WithMetrics(m),
	)
}
