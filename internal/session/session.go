package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msalah0e/ontoview/internal/activity"
	"github.com/msalah0e/ontoview/internal/detail"
	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/interaction"
	"github.com/msalah0e/ontoview/internal/layout"
	"github.com/msalah0e/ontoview/internal/metrics"
	"github.com/msalah0e/ontoview/internal/render"
	"github.com/msalah0e/ontoview/internal/viewport"
	"go.uber.org/zap"
)

// ErrStaleGeneration is returned when a build finishes after a newer one
// has started. Its result is discarded.
var ErrStaleGeneration = errors.New("stale generation")

// Config groups the settings of every component a session owns.
type Config struct {
	Layout      layout.Config
	Viewport    viewport.Config
	Interaction interaction.Config
	Detail      detail.Config
}

// DefaultConfig returns stock settings.
func DefaultConfig() Config {
	return Config{
		Layout:      layout.DefaultConfig(),
		Viewport:    viewport.DefaultConfig(),
		Interaction: interaction.DefaultConfig(),
		Detail:      detail.DefaultConfig(),
	}
}

// Recorder receives journal entries.
type Recorder interface {
	Record(activity.Entry) error
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records session activity in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Session) { s.metrics = c }
}

// WithJournal records subjects, events and selections to r.
func WithJournal(r Recorder) Option {
	return func(s *Session) { s.journal = r }
}

// Session is one visualization: a subject, its laid-out snapshot, the
// camera, the pointer state and the detail panel.
type Session struct {
	ID        string
	StartedAt time.Time

	layout   *layout.Engine
	view     *viewport.Controller
	input    *interaction.Controller
	resolver *detail.Resolver

	mu      sync.Mutex
	latest  uint64
	subject string
	err     error
	outcome *detail.Outcome

	journal Recorder
	metrics *metrics.Collector
	log     *zap.Logger
}

// New creates a session with an empty diagram. Detail lookups go to f.
func New(cfg Config, f detail.Fetcher, opts ...Option) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("session", s.ID))

	s.layout = layout.NewEngine(cfg.Layout)
	s.view = viewport.NewController(cfg.Viewport)
	s.input = interaction.NewController(s.layout, s.view, cfg.Interaction, s.log)
	s.resolver = detail.NewResolver(f, cfg.Detail, s.log)
	return s
}

// Begin starts a new build and returns its generation token. Any build
// begun earlier becomes stale.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Latest returns the newest generation handed out by Begin.
func (s *Session) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Commit installs g as the diagram for subject, with a fresh layout and a
// reset camera. It fails with ErrStaleGeneration when gen is not the
// latest generation.
func (s *Session) Commit(gen uint64, subject string, g *graph.Graph) (layout.Snapshot, error) {
	snap, err := s.commit(gen, subject, g, nil)
	if err == nil {
		s.record(activity.Entry{Action: activity.ActionSubject, Subject: subject})
	}
	return snap, err
}

// Fail records a failed build for subject. The diagram becomes empty and
// Err returns buildErr until the next commit.
func (s *Session) Fail(gen uint64, subject string, buildErr error) error {
	_, err := s.commit(gen, subject, graph.New(), buildErr)
	if err != nil {
		return err
	}
	e := activity.Entry{Action: activity.ActionSubject, Subject: subject}
	if buildErr != nil {
		e.Details = buildErr.Error()
	}
	s.record(e)
	return nil
}

func (s *Session) commit(gen uint64, subject string, g *graph.Graph, buildErr error) (layout.Snapshot, error) {
	s.mu.Lock()
	if gen != s.latest {
		latest := s.latest
		s.mu.Unlock()
		s.metrics.ObserveStale()
		s.log.Debug("discarding stale build",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", latest),
			zap.String("subject", subject))
		return layout.Snapshot{}, ErrStaleGeneration
	}
	s.subject = subject
	s.err = buildErr
	s.outcome = nil
	snap := s.layout.Load(g, gen)
	s.view.Reset()
	s.input.Reset()
	s.mu.Unlock()

	s.metrics.ObserveSnapshot(len(snap.Nodes), len(snap.Edges))
	s.log.Debug("snapshot committed",
		zap.Uint64("generation", gen),
		zap.String("subject", subject),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)))
	return snap, nil
}

// Clear empties the diagram and resets the camera and pointer state. Builds
// still in flight become stale.
func (s *Session) Clear() {
	gen := s.Begin()
	_, _ = s.commit(gen, "", graph.New(), nil)
	s.record(activity.Entry{Action: activity.ActionClear})
}

// Handle applies one pointer or wheel event. Select commands are returned
// but not resolved; see Select.
func (s *Session) Handle(ev interaction.Event) []interaction.Command {
	s.metrics.ObserveEvent(string(ev.Kind))
	s.record(activity.Entry{Action: activity.ActionEvent, Event: &ev})
	return s.input.Handle(ev)
}

// Select resolves the detail for node id. The outcome is kept as the
// current one unless a newer selection or a new diagram has come along in
// the meantime, in which case it is returned marked stale.
func (s *Session) Select(ctx context.Context, id string) detail.Outcome {
	s.record(activity.Entry{Action: activity.ActionSelect, NodeID: id})
	gen := s.Latest()
	o := s.resolver.Resolve(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Stale || !s.resolver.IsCurrent(o) || gen != s.latest {
		o.Stale = true
		s.metrics.ObserveDetail("stale")
		return o
	}
	if o.Notice != nil {
		s.metrics.ObserveDetail("notice")
	} else {
		s.metrics.ObserveDetail("ok")
	}
	s.outcome = &o
	return o
}

// Dispatch handles ev and resolves any selection it produced. It returns
// the commands and the outcome of the last selection, if any.
func (s *Session) Dispatch(ctx context.Context, ev interaction.Event) ([]interaction.Command, *detail.Outcome) {
	cmds := s.Handle(ev)
	var out *detail.Outcome
	for _, c := range cmds {
		if c.Kind == interaction.CmdSelect {
			o := s.Select(ctx, c.NodeID)
			out = &o
		}
	}
	return cmds, out
}

// Draw returns the draw list for the current snapshot and camera.
func (s *Session) Draw() render.DrawList {
	return render.Draw(s.layout.Snapshot(), s.view.Transform())
}

// Snapshot returns the current layout.
func (s *Session) Snapshot() layout.Snapshot {
	return s.layout.Snapshot()
}

// Viewport returns the camera state.
func (s *Session) Viewport() viewport.State {
	return s.view.State()
}

// Interaction returns the pointer state.
func (s *Session) Interaction() interaction.State {
	return s.input.State()
}

// Subject returns what the diagram currently shows.
func (s *Session) Subject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// Err returns the error of the last committed build, if it failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Outcome returns the current detail panel content.
func (s *Session) Outcome() *detail.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// BreakerState reports the detail circuit breaker state.
func (s *Session) BreakerState() string {
	return s.resolver.BreakerState()
}

func (s *Session) record(e activity.Entry) {
	if s.journal == nil {
		return
	}
	e.Session = s.ID
	if err := s.journal.Record(e); err != nil {
		s.log.Warn("journal write failed", zap.Error(err))
	}
}
