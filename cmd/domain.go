package cmd

import (
	"context"
	"os"

	"github.com/msalah0e/ontoview/internal/assemble"
	"github.com/msalah0e/ontoview/internal/ui"
	"github.com/spf13/cobra"
)

func domainCmd() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "domain <domain-id>",
		Short: "Show the object types of a domain and the relationships among them",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runSubject(out, assemble.Subject{Domain: args[0]})
		},
	}

	out.bind(cmd)
	return cmd
}

// runSubject builds subj from the configured source and emits it.
func runSubject(out outputFlags, subj assemble.Subject) {
	cfg := loadConfig()
	log := newLogger(cfg.Log)
	defer log.Sync()

	ctx := context.Background()
	src, asm := openSource(ctx, cfg, log, nil)
	defer src.Close(ctx)

	res, err := asm.Build(ctx, subj)
	if err != nil {
		ui.Bad.Printf("  Failed to build %s: %v\n", subj, err)
		os.Exit(1)
	}
	if res.Failed > 0 {
		ui.Warn.Printf("  %s %d relationship lookups failed; their edges are missing\n", ui.WarnIcon(), res.Failed)
	}
	emit(out, cfg.Layout, res.Graph, res.Report, subj.String())
}
