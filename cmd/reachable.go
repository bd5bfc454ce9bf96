package cmd

import (
	"strconv"

	"github.com/msalah0e/ontoview/internal/assemble"
	"github.com/msalah0e/ontoview/internal/source"
	"github.com/spf13/cobra"
)

func reachableCmd() *cobra.Command {
	var depth int
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "reachable <object-type-name>",
		Short: "Show the object types reachable from one type",
		Example: `  ontoview reachable customer
  ontoview reachable customer --depth 3 --open`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			q := source.NewQuery(source.KindReachable, map[string]string{
				"objectTypeName": args[0],
				"depth":          strconv.Itoa(depth),
			})
			runSubject(out, assemble.Subject{Query: &q})
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 2, "How many relationship hops to follow")
	out.bind(cmd)
	return cmd
}
