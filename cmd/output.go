package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/layout"
	"github.com/msalah0e/ontoview/internal/render"
	"github.com/msalah0e/ontoview/internal/ui"
	"github.com/msalah0e/ontoview/internal/viewport"
	"github.com/spf13/cobra"
)

var formats = []string{"table", "json", "dot", "svg", "html"}

// outputFlags are shared by every command that produces a graph.
type outputFlags struct {
	format string
	out    string
	open   bool
}

func (o *outputFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", "table", "Output format: "+strings.Join(formats, ", "))
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&o.open, "open", false, "Write an HTML page and open it in the browser")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return formats, cobra.ShellCompDirectiveNoFileComp
	})
}

// emit writes g in the requested format. subject labels rendered pages.
func emit(o outputFlags, lc layout.Config, g *graph.Graph, rep graph.Report, subject string) {
	if o.open {
		openPage(lc, g, subject)
		return
	}

	var data []byte
	switch o.format {
	case "table", "":
		printSummary(g, rep, subject)
		return
	case "json":
		b, err := g.ExportJSON()
		if err != nil {
			ui.Bad.Printf("  Export failed: %v\n", err)
			os.Exit(1)
		}
		data = append(b, '\n')
	case "dot":
		data = []byte(g.ExportDOT())
	case "svg":
		data = []byte(svgOf(lc, g))
	case "html":
		data = []byte(pageOf(lc, g, subject))
	default:
		ui.Bad.Printf("  Unknown format %q (want one of %s)\n", o.format, strings.Join(formats, ", "))
		os.Exit(1)
	}

	if o.out == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(o.out, data, 0o644); err != nil {
		ui.Bad.Printf("  Failed to write %s: %v\n", o.out, err)
		os.Exit(1)
	}
	ui.Good.Printf("  %s Wrote %s\n", ui.StatusIcon(true), o.out)
}

// draw lays g out on a fresh circle and draws it with the identity camera.
func draw(lc layout.Config, g *graph.Graph) render.DrawList {
	snap := layout.NewSnapshot(g, lc, 1)
	return render.Draw(snap, viewport.Initial().Transform())
}

func svgOf(lc layout.Config, g *graph.Graph) string {
	d := draw(lc, g)
	var b bytes.Buffer
	_ = render.WriteSVG(&b, d, render.Fit(d, render.FitMargin))
	return b.String()
}

func pageOf(lc layout.Config, g *graph.Graph, subject string) string {
	return render.HTML(render.Page{
		Title:   "ontoview — " + subject,
		Subject: subject,
		Nodes:   len(g.Nodes),
		Edges:   len(g.Edges),
		SVG:     svgOf(lc, g),
	})
}

func openPage(lc layout.Config, g *graph.Graph, subject string) {
	htmlPath := filepath.Join(os.TempDir(), "ontoview-graph.html")
	if err := os.WriteFile(htmlPath, []byte(pageOf(lc, g, subject)), 0o644); err != nil {
		ui.Bad.Printf("  Failed to write HTML: %v\n", err)
		os.Exit(1)
	}
	if err := openBrowser(htmlPath); err != nil {
		fmt.Printf("  HTML written to: %s\n", htmlPath)
		fmt.Println("  Open it in your browser to see the graph")
		return
	}
	ui.Good.Printf("  %s Opened %s (%s, %s)\n", ui.StatusIcon(true), subject,
		ui.Count(len(g.Nodes), "node"), ui.Count(len(g.Edges), "edge"))
	ui.Subtle.Printf("  %s\n", htmlPath)
}

func openBrowser(target string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", target)
	case "linux":
		c = exec.Command("xdg-open", target)
	default:
		c = exec.Command("cmd", "/c", "start", target)
	}
	return c.Start()
}

func printSummary(g *graph.Graph, rep graph.Report, subject string) {
	ui.Banner(subject)

	if len(g.Nodes) == 0 {
		fmt.Println("  Empty graph.")
		if rep.Records > 0 {
			ui.Subtle.Printf("  %d records, none recognized\n", rep.Records)
		}
		return
	}

	stats := g.GetStats()
	fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-12s", "Nodes"), stats.Nodes)
	fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-12s", "Edges"), stats.Edges)
	fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-12s", "Kinds"), stats.Kinds)
	fmt.Println()

	var rows [][]string
	for _, n := range g.Nodes {
		kind := string(n.Kind)
		if kind == "" {
			kind = "-"
		}
		label := n.Label
		if label == "" {
			label = n.ID
		}
		rows = append(rows, []string{n.ID, truncate(label, 32), kind, fmt.Sprint(len(g.Outgoing(n.ID)))})
	}
	ui.Table([]string{"ID", "Label", "Kind", "Out"}, rows)

	if len(g.Edges) > 0 {
		fmt.Println()
		names := make(map[string]string, len(g.Nodes))
		for _, n := range g.Nodes {
			names[n.ID] = n.Label
			if n.Label == "" {
				names[n.ID] = n.ID
			}
		}
		rows = rows[:0]
		for _, e := range g.Edges {
			rows = append(rows, []string{names[e.SourceID], "→", names[e.TargetID], e.Label})
		}
		sort.SliceStable(rows, func(i, k int) bool { return rows[i][0] < rows[k][0] })
		ui.Table([]string{"Source", "", "Target", "Label"}, rows)
	}

	if skipped := rep.Unrecognized + rep.Duplicates + rep.Dangling; skipped > 0 {
		fmt.Println()
		ui.Subtle.Printf("  skipped %d unrecognized, %d duplicate, %d dangling\n",
			rep.Unrecognized, rep.Duplicates, rep.Dangling)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
