package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/msalah0e/ontoview/internal/activity"
	"github.com/msalah0e/ontoview/internal/assemble"
	"github.com/msalah0e/ontoview/internal/config"
	"github.com/msalah0e/ontoview/internal/detail"
	"github.com/msalah0e/ontoview/internal/metrics"
	"github.com/msalah0e/ontoview/internal/server"
	"github.com/msalah0e/ontoview/internal/session"
	"github.com/msalah0e/ontoview/internal/source"
	"github.com/msalah0e/ontoview/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var addr string
	var background bool
	var noWatch bool
	var noJournal bool
	var open bool

	cmd := &cobra.Command{
		Use:   "serve [subject...]",
		Short: "Serve an interactive diagram in the browser",
		Long: `Serve an interactive diagram in the browser.

Drag nodes to move them, drag the background to pan, scroll to zoom and click a
node to see its details. Type a new subject ("domain <id>" or
"<query-kind> key=value ...") in the page to switch diagrams.

With the file source the model is watched and the diagram rebuilt on change.`,
		Example: `  ontoview serve domain sales -f model.yaml
  ontoview serve reachable objectTypeName=customer --bg
  ontoview serve stop`,
		Run: func(cmd *cobra.Command, args []string) {
			if running, pid := server.IsRunning(); running {
				fmt.Printf("  Viewer already running (PID %d)\n", pid)
				return
			}

			cfg := loadConfig()
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if noWatch {
				cfg.Serve.Watch = false
			}

			if background {
				startBackground(cfg.Serve.Addr)
				return
			}

			runServer(cfg, args, !noJournal, open)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:7345)")
	cmd.Flags().BoolVarP(&background, "bg", "b", false, "Run in background")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not rebuild when the model file changes")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "Do not record activity")
	cmd.Flags().BoolVar(&open, "open", false, "Open the viewer in the browser")

	cmd.AddCommand(
		serveStopCmd(),
		serveStatusCmd(),
	)
	return cmd
}

// startBackground re-runs the current command line without --bg, detached.
func startBackground(addr string) {
	exe, _ := os.Executable()
	args := slices.DeleteFunc(slices.Clone(os.Args[1:]), func(a string) bool {
		return a == "--bg" || a == "-b"
	})
	child := exec.Command(exe, args...)
	child.Stdout = nil
	child.Stderr = nil
	setDetached(child)

	if err := child.Start(); err != nil {
		ui.Bad.Printf("  Failed to start viewer: %v\n", err)
		os.Exit(1)
	}
	_ = server.WritePid(child.Process.Pid)

	ui.Good.Printf("  %s Viewer started on http://%s (PID %d)\n", ui.StatusIcon(true), addr, child.Process.Pid)
	fmt.Println("  Stop: ontoview serve stop")
}

func runServer(cfg *config.Config, args []string, journal, open bool) {
	log := newLogger(cfg.Log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	src, asm := openSource(ctx, cfg, log, m)
	fetcher := &swappable{src: src}
	defer func() { _ = fetcher.current().Close(context.Background()) }()

	opts := []session.Option{session.WithLogger(log), session.WithMetrics(m)}
	if journal {
		path := cfg.Serve.Journal
		if path == "" {
			path = activity.DefaultPath()
		}
		j, err := activity.Open(path)
		if err != nil {
			ui.Warn.Printf("  %s Activity journal disabled: %v\n", ui.WarnIcon(), err)
		} else {
			defer j.Close()
			opts = append(opts, session.WithJournal(j))
		}
	}
	sess := session.New(cfg.Session(), fetcher, opts...)

	srv := server.New(server.Config{
		Addr:    cfg.Serve.Addr,
		ViewBox: cfg.Serve.ViewBox,
	}, sess, asm, server.WithLogger(log), server.WithMetrics(m))
	server.Version = version

	words := args
	if len(words) == 0 && cfg.Serve.Subject != "" {
		words = strings.Fields(cfg.Serve.Subject)
	}
	if len(words) > 0 {
		subj, err := assemble.ParseSubject(words)
		if err != nil {
			ui.Bad.Printf("  %v\n", err)
			os.Exit(1)
		}
		if err := srv.SetSubject(ctx, subj); err != nil {
			ui.Warn.Printf("  %s Failed to build %s: %v\n", ui.WarnIcon(), subj, err)
		}
	}

	if cfg.Serve.Watch && cfg.Source.Kind == "file" {
		path := cfg.Source.Path
		go func() {
			err := srv.Watch(ctx, path, func() (server.Builder, error) {
				f, err := source.OpenFile(path)
				if err != nil {
					return nil, err
				}
				fetcher.swap(f)
				return newAssembler(f, cfg, log, m), nil
			})
			if err != nil {
				log.Warn("model watch stopped", zap.Error(err))
			}
		}()
	}

	_ = server.WritePid(os.Getpid())
	defer server.RemovePid()

	ui.Banner("viewer")
	fmt.Printf("  Serving %s on %s\n", ui.Info.Sprint(cfg.Source.Kind), ui.Brand.Sprint("http://"+cfg.Serve.Addr))
	if subj := sess.Subject(); subj != "" {
		fmt.Printf("  Showing %s\n", subj)
	}
	ui.Subtle.Println("  Ctrl-C to stop")

	if open {
		go func() {
			time.Sleep(300 * time.Millisecond)
			_ = openBrowser("http://" + cfg.Serve.Addr)
		}()
	}

	if err := srv.Start(ctx); err != nil {
		ui.Bad.Printf("  Viewer error: %v\n", err)
		server.RemovePid()
		os.Exit(1)
	}
}

// swappable lets a reloaded file source answer detail lookups for a
// session created before the reload.
type swappable struct {
	mu  sync.RWMutex
	src source.Source
}

func (s *swappable) current() source.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.src
}

func (s *swappable) swap(src source.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src = src
}

func (s *swappable) FetchDetail(ctx context.Context, id string) (detail.Detail, error) {
	return s.current().FetchDetail(ctx, id)
}

func serveStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a background viewer",
		Run: func(cmd *cobra.Command, args []string) {
			running, pid := server.IsRunning()
			if !running {
				fmt.Println("  Viewer is not running")
				return
			}

			proc, err := os.FindProcess(pid)
			if err != nil {
				ui.Bad.Printf("  Failed to find process %d: %v\n", pid, err)
				os.Exit(1)
			}
			if err := stopProcess(proc); err != nil {
				ui.Bad.Printf("  Failed to stop viewer: %v\n", err)
				os.Exit(1)
			}

			_ = server.RemovePid()
			ui.Good.Printf("  %s Viewer stopped (PID %d)\n", ui.StatusIcon(true), pid)
		},
	}
}

func serveStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether a viewer is running",
		Run: func(cmd *cobra.Command, args []string) {
			running, pid := server.IsRunning()
			if !running {
				fmt.Println("  Viewer is not running")
				fmt.Println("  Start: ontoview serve --bg")
				return
			}
			ui.Good.Printf("  %s Viewer running (PID %d)\n", ui.StatusIcon(true), pid)

			cfg := loadConfig()
			status, err := fetchStatus("http://" + cfg.Serve.Addr)
			if err != nil {
				ui.Subtle.Printf("  %s not answering: %v\n", cfg.Serve.Addr, err)
				return
			}
			for _, key := range []string{"addr", "subject", "uptime", "breaker", "version"} {
				if v, ok := status[key]; ok && v != "" {
					fmt.Printf("  %s  %v\n", ui.Brand.Sprintf("%-10s", key), v)
				}
			}
		},
	}
}

// fetchStatus asks a running viewer at base for its /status document.
func fetchStatus(base string) (map[string]any, error) {
	status := map[string]any{}
	resp, err := resty.New().
		SetBaseURL(base).
		SetTimeout(2 * time.Second).
		R().
		SetResult(&status).
		ForceContentType("application/json").
		Get("/status")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status: %s", resp.Status())
	}
	return status, nil
}
