package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/msalah0e/ontoview/internal/assemble"
	"github.com/msalah0e/ontoview/internal/source"
	"github.com/msalah0e/ontoview/internal/ui"
	"github.com/spf13/cobra"
)

func queryCmd() *cobra.Command {
	var params []string
	var out outputFlags

	kinds := make([]string, len(source.Kinds))
	for i, k := range source.Kinds {
		kinds[i] = string(k)
	}

	cmd := &cobra.Command{
		Use:   "query <kind>",
		Short: "Run a named query and show its result as a graph",
		Long: fmt.Sprintf(`Run a named query and show its result as a graph.

Kinds: %s`, strings.Join(kinds, ", ")),
		Example: `  ontoview query link-types --param objectTypeName=order
  ontoview query object-type-path --param sourceObjectTypeName=customer --param targetObjectTypeName=invoice
  ontoview query related --param instanceId=c-1 --param depth=1 --format json`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		Run: func(cmd *cobra.Command, args []string) {
			words := append([]string{args[0]}, params...)
			subj, err := assemble.ParseSubject(words)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			runSubject(out, subj)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	out.bind(cmd)
	return cmd
}
