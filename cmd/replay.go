package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/msalah0e/ontoview/internal/activity"
	"github.com/msalah0e/ontoview/internal/assemble"
	"github.com/msalah0e/ontoview/internal/detail"
	"github.com/msalah0e/ontoview/internal/render"
	"github.com/msalah0e/ontoview/internal/session"
	"github.com/msalah0e/ontoview/internal/ui"
	"github.com/spf13/cobra"
)

// replayReport is the json form of a replay.
type replayReport struct {
	Subject    string           `json:"subject"`
	Events     int              `json:"events"`
	Selections []detail.Outcome `json:"selections"`
	Zoom       float64          `json:"zoom"`
	Draw       render.DrawList  `json:"draw"`
}

func replayCmd() *cobra.Command {
	var eventsPath string
	var sessionID string
	var format string

	cmd := &cobra.Command{
		Use:   "replay <subject...>",
		Short: "Replay recorded pointer events against a diagram",
		Long: `Build a diagram, feed it the pointer and wheel events recorded in a journal,
and print where everything ended up along with every node selected on the way.

The subject is "domain <id>" or "<query-kind> key=value ...".`,
		Example: `  ontoview replay domain sales --events ~/.config/ontoview/activity.jsonl
  ontoview replay reachable objectTypeName=customer --events session.jsonl --format svg`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			subj, err := assemble.ParseSubject(args)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if eventsPath == "" {
				eventsPath = activity.DefaultPath()
			}
			entries, err := activity.ReadFile(eventsPath)
			if err != nil {
				ui.Bad.Printf("  Failed to read %s: %v\n", eventsPath, err)
				os.Exit(1)
			}
			events := activity.Events(entries, sessionID)

			cfg := loadConfig()
			log := newLogger(cfg.Log)
			defer log.Sync()

			ctx := context.Background()
			src, asm := openSource(ctx, cfg, log, nil)
			defer src.Close(ctx)

			sess := session.New(cfg.Session(), src, session.WithLogger(log))
			gen := sess.Begin()
			res, err := asm.Build(ctx, subj)
			if err != nil {
				ui.Bad.Printf("  Failed to build %s: %v\n", subj, err)
				os.Exit(1)
			}
			if _, err := sess.Commit(gen, subj.String(), res.Graph); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}

			var selections []detail.Outcome
			for _, ev := range events {
				if _, o := sess.Dispatch(ctx, ev); o != nil {
					selections = append(selections, *o)
				}
			}

			d := sess.Draw()
			switch format {
			case "json":
				data, _ := json.MarshalIndent(replayReport{
					Subject:    subj.String(),
					Events:     len(events),
					Selections: selections,
					Zoom:       sess.Viewport().Zoom,
					Draw:       d,
				}, "", "  ")
				fmt.Println(string(data))
			case "svg":
				_ = render.WriteSVG(os.Stdout, d, render.Fit(d, render.FitMargin))
			default:
				printReplay(subj.String(), len(events), selections, sess)
			}
		},
	}

	cmd.Flags().StringVar(&eventsPath, "events", "", "Journal to replay (default: the activity journal)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Only replay events of this session")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json or svg")
	return cmd
}

func printReplay(subject string, events int, selections []detail.Outcome, sess *session.Session) {
	ui.Banner("replay " + subject)

	vp := sess.Viewport()
	fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-12s", "Events"), events)
	fmt.Printf("  %s  %.2f\n", ui.Brand.Sprintf("%-12s", "Zoom"), vp.Zoom)
	fmt.Printf("  %s  %.1f, %.1f\n", ui.Brand.Sprintf("%-12s", "Pan"), vp.Pan.X, vp.Pan.Y)
	fmt.Println()

	var rows [][]string
	for _, n := range sess.Snapshot().Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		rows = append(rows, []string{
			n.ID,
			truncate(label, 28),
			fmt.Sprintf("%.1f", n.X),
			fmt.Sprintf("%.1f", n.Y),
		})
	}
	ui.Table([]string{"Node", "Label", "X", "Y"}, rows)

	if len(selections) == 0 {
		fmt.Println()
		ui.Subtle.Println("  No nodes selected")
		return
	}

	fmt.Println()
	rows = rows[:0]
	for i, o := range selections {
		var result string
		switch {
		case o.Stale:
			result = ui.Subtle.Sprint("superseded")
		case o.Notice != nil:
			result = ui.StatusIcon(false) + " " + o.Notice.Message
		default:
			result = ui.StatusIcon(true) + " detail loaded"
		}
		rows = append(rows, []string{fmt.Sprint(i + 1), o.NodeID, result})
	}
	ui.Table([]string{"#", "Selected", "Result"}, rows)
}
