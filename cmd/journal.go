package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/msalah0e/ontoview/internal/activity"
	"github.com/msalah0e/ontoview/internal/ui"
	"github.com/spf13/cobra"
)

func journalPath() string {
	cfg := loadConfig()
	if cfg.Serve.Journal != "" {
		return cfg.Serve.Journal
	}
	return activity.DefaultPath()
}

func journalCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:     "journal",
		Aliases: []string{"log", "activity"},
		Short:   "Viewer activity journal — subjects, selections and pointer events",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("activity journal")

			entries, err := activity.Recent(journalPath(), count)
			if err != nil || len(entries) == 0 {
				fmt.Println("  No activity recorded yet.")
				fmt.Println("  Activity is recorded while `ontoview serve` runs")
				return
			}

			ui.Table([]string{"Time", "Session", "Action", "Details"}, journalRows(entries))
			fmt.Printf("\n  Showing %d most recent entries\n", len(entries))
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries to show")
	cmd.AddCommand(
		journalSearchCmd(),
		journalClearCmd(),
		journalExportCmd(),
		journalStatsCmd(),
	)
	return cmd
}

func journalRows(entries []activity.Entry) [][]string {
	var rows [][]string
	for _, e := range entries {
		rows = append(rows, []string{
			e.Timestamp.Format("Jan 02 15:04:05"),
			shortID(e.Session),
			e.Action,
			truncate(describe(e), 48),
		})
	}
	return rows
}

// describe summarizes what an entry is about.
func describe(e activity.Entry) string {
	switch {
	case e.Event != nil:
		if e.Event.DeltaY != 0 {
			return fmt.Sprintf("%s %.0f", e.Event.Kind, e.Event.DeltaY)
		}
		return fmt.Sprintf("%s (%.0f, %.0f)", e.Event.Kind, e.Event.X, e.Event.Y)
	case e.NodeID != "":
		return e.NodeID
	case e.Details != "":
		return e.Subject + ": " + e.Details
	default:
		return e.Subject
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func journalSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search journal entries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			results, err := activity.Search(journalPath(), args[0], 50)
			if err != nil || len(results) == 0 {
				fmt.Printf("  No entries matching %q\n", args[0])
				return
			}

			ui.Banner("search results")
			ui.Table([]string{"Time", "Session", "Action", "Details"}, journalRows(results))
			fmt.Printf("\n  %d results\n", len(results))
		},
	}
}

func journalClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the activity journal",
		Run: func(cmd *cobra.Command, args []string) {
			if err := activity.Clear(journalPath()); err != nil {
				ui.Bad.Printf("  Failed to clear: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Activity journal cleared\n", ui.StatusIcon(true))
		},
	}
}

func journalExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the activity journal as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := activity.ReadFile(journalPath())
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			data, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Println(string(data))
		},
	}
}

func journalStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show activity statistics",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("activity stats")

			entries, err := activity.ReadFile(journalPath())
			if err != nil || len(entries) == 0 {
				fmt.Println("  No activity data")
				return
			}

			sessions := make(map[string]int)
			actions := make(map[string]int)
			selected := make(map[string]int)
			for _, e := range entries {
				sessions[e.Session]++
				actions[e.Action]++
				if e.Action == activity.ActionSelect {
					selected[e.NodeID]++
				}
			}

			fmt.Printf("  Total entries: %d\n", len(entries))
			fmt.Printf("  Sessions:      %d\n\n", len(sessions))

			fmt.Println("  By action:")
			for _, a := range sortedKeys(actions) {
				fmt.Printf("    %-20s %d\n", a, actions[a])
			}

			if len(selected) > 0 {
				fmt.Println("\n  Most selected:")
				keys := sortedKeys(selected)
				sort.SliceStable(keys, func(i, k int) bool { return selected[keys[i]] > selected[keys[k]] })
				if len(keys) > 5 {
					keys = keys[:5]
				}
				for _, id := range keys {
					fmt.Printf("    %-20s %d\n", id, selected[id])
				}
			}
		},
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
