package cmd

import (
	"os"
	"path/filepath"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/source"
	"github.com/msalah0e/ontoview/internal/ui"
	"github.com/spf13/cobra"
)

func buildCmd() *cobra.Command {
	var catalogPath string
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "build <result-file>",
		Short: "Build a graph from a saved query result",
		Long: `Build a graph from a saved query result (JSON or YAML sequence).

Nested lists are flattened. Records with sourceObjectTypeId/targetObjectTypeId
become edges between object types; records with sourceInstanceId/targetInstanceId
become edges between instances; anything else with an id becomes a node.
A catalog file names object types so their ids show as labels.`,
		Example: `  ontoview build result.json
  ontoview build result.yaml --catalog types.yaml --format svg -o diagram.svg
  ontoview build result.json --open`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			log := newLogger(cfg.Log)
			defer log.Sync()

			result, err := source.ReadResult(args[0])
			if err != nil {
				ui.Bad.Printf("  %v: %v\n", graph.ErrQueryUnavailable, err)
				os.Exit(1)
			}

			var catalog graph.Catalog
			if catalogPath != "" {
				types, err := source.ReadCatalog(catalogPath)
				if err != nil {
					ui.Bad.Printf("  %v\n", err)
					os.Exit(1)
				}
				catalog = graph.NewCatalog(types)
			}

			g, rep := graph.Build(result, catalog, graph.WithLogger(log))
			emit(out, cfg.Layout, g, rep, filepath.Base(args[0]))
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Object-type catalog used for labels")
	out.bind(cmd)
	return cmd
}
