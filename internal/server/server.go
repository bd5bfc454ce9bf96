package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/msalah0e/ontoview/internal/assemble"
	"github.com/msalah0e/ontoview/internal/detail"
	"github.com/msalah0e/ontoview/internal/interaction"
	"github.com/msalah0e/ontoview/internal/metrics"
	"github.com/msalah0e/ontoview/internal/render"
	"github.com/msalah0e/ontoview/internal/session"
	"go.uber.org/zap"
)

// Version is reported by /status.
var Version = "dev"

// Builder assembles the graph for a subject.
type Builder interface {
	Build(ctx context.Context, s assemble.Subject) (assemble.Result, error)
}

// Config holds server configuration.
type Config struct {
	Addr    string
	ViewBox render.ViewBox
	Title   string
}

// Stats tracks request counts since start.
type Stats struct {
	Requests    int64            `json:"requests"`
	Events      int64            `json:"events"`
	Builds      int64            `json:"builds"`
	BuildErrors int64            `json:"buildErrors"`
	StartedAt   time.Time        `json:"startedAt"`
	ByRoute     map[string]int64 `json:"byRoute"`
}

// Reply is what the viewer receives after every change.
type Reply struct {
	Generation uint64          `json:"generation"`
	Subject    string          `json:"subject"`
	Nodes      int             `json:"nodes"`
	Edges      int             `json:"edges"`
	SVG        string          `json:"svg"`
	Outcome    *detail.Outcome `json:"outcome,omitempty"`
	Error      string          `json:"error,omitempty"`
	Cleared    bool            `json:"cleared,omitempty"`
}

type eventRequest struct {
	Kind   interaction.EventKind `json:"kind" validate:"oneof=down move up leave wheel"`
	X      float64               `json:"x"`
	Y      float64               `json:"y"`
	DeltaY float64               `json:"deltaY"`
}

type subjectRequest struct {
	Subject string `json:"subject" validate:"required"`
}

var validate = validator.New()

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics exposes c on /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// Server serves one session to a browser.
type Server struct {
	cfg  Config
	sess *session.Session

	mu      sync.Mutex
	build   Builder
	subject assemble.Subject
	stats   Stats

	// events serializes pointer input so it is applied in arrival order.
	events sync.Mutex

	metrics *metrics.Collector
	log     *zap.Logger
	router  chi.Router
}

// New creates a server for sess. Subjects are assembled by b.
func New(cfg Config, sess *session.Session, b Builder, opts ...Option) *Server {
	if cfg.Title == "" {
		cfg.Title = "ontoview"
	}
	s := &Server{
		cfg:   cfg,
		sess:  sess,
		build: b,
		log:   zap.NewNop(),
		stats: Stats{
			StartedAt: time.Now(),
			ByRoute:   make(map[string]int64),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Get("/graph", s.handleGraph)
	r.Get("/graph.svg", s.handleSVG)
	r.Post("/events", s.handleEvent)
	r.Get("/nodes/{id}/detail", s.handleDetail)
	r.Post("/subject", s.handleSubject)
	r.Delete("/subject", s.handleClear)
	r.Get("/status", s.handleStatus)
	r.Get("/stats", s.handleStats)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Subject returns the subject last requested.
func (s *Server) Subject() assemble.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// SetBuilder replaces the builder used for later builds.
func (s *Server) SetBuilder(b Builder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.build = b
}

// SetSubject builds subj and installs it in the session. A failed build
// leaves an empty diagram and the error is returned. If another build
// started meanwhile the result is dropped and session.ErrStaleGeneration
// is returned.
func (s *Server) SetSubject(ctx context.Context, subj assemble.Subject) error {
	s.mu.Lock()
	b := s.build
	s.subject = subj
	s.stats.Builds++
	s.mu.Unlock()

	gen := s.sess.Begin()
	res, err := b.Build(ctx, subj)
	if err != nil {
		s.mu.Lock()
		s.stats.BuildErrors++
		s.mu.Unlock()
		if ferr := s.sess.Fail(gen, subj.String(), err); ferr != nil {
			return ferr
		}
		s.log.Warn("build failed", zap.String("subject", subj.String()), zap.Error(err))
		return err
	}
	if _, err := s.sess.Commit(gen, subj.String(), res.Graph); err != nil {
		return err
	}
	s.log.Info("subject loaded",
		zap.String("subject", subj.String()),
		zap.Int("nodes", len(res.Graph.Nodes)),
		zap.Int("edges", len(res.Graph.Edges)),
		zap.Int("failedFetches", res.Failed))
	return nil
}

// Rebuild rebuilds the current subject, if any.
func (s *Server) Rebuild(ctx context.Context) error {
	subj := s.Subject()
	if subj.IsZero() {
		return nil
	}
	return s.SetSubject(ctx, subj)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", "http://"+s.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// reply captures the current drawing.
func (s *Server) reply() Reply {
	d := s.sess.Draw()
	var svg bytes.Buffer
	_ = render.WriteSVG(&svg, d, s.cfg.ViewBox)
	r := Reply{
		Generation: d.Generation,
		Subject:    s.sess.Subject(),
		Nodes:      len(d.Nodes),
		Edges:      len(d.Edges),
		SVG:        svg.String(),
	}
	if err := s.sess.Err(); err != nil {
		r.Error = err.Error()
	}
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rep := s.reply()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = render.WritePage(w, render.Page{
		Title:   s.cfg.Title,
		Subject: rep.Subject,
		Nodes:   rep.Nodes,
		Edges:   rep.Edges,
		SVG:     rep.SVG,
		Live:    true,
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"subject":  s.sess.Subject(),
		"viewBox":  s.cfg.ViewBox.String(),
		"viewport": s.sess.Viewport(),
		"draw":     s.sess.Draw(),
		"snapshot": s.sess.Snapshot(),
	})
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	_ = render.WriteSVG(w, s.sess.Draw(), s.cfg.ViewBox)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.events.Lock()
	_, out := s.sess.Dispatch(r.Context(), interaction.Event{
		Kind:   req.Kind,
		X:      req.X,
		Y:      req.Y,
		DeltaY: req.DeltaY,
	})
	rep := s.reply()
	s.events.Unlock()

	s.mu.Lock()
	s.stats.Events++
	s.mu.Unlock()

	rep.Outcome = out
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.sess.Snapshot().Node(id); !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no node %q in the diagram", id))
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Select(r.Context(), id))
}

func (s *Server) handleSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	subj, err := assemble.ParseSubject(strings.Fields(req.Subject))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.SetSubject(r.Context(), subj)
	switch {
	case errors.Is(err, session.ErrStaleGeneration):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		rep := s.reply()
		rep.Error = err.Error()
		writeJSON(w, http.StatusBadGateway, rep)
	default:
		rep := s.reply()
		rep.Cleared = true
		writeJSON(w, http.StatusOK, rep)
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.subject = assemble.Subject{}
	s.mu.Unlock()
	s.sess.Clear()

	rep := s.reply()
	rep.Cleared = true
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "running",
		"version": Version,
		"addr":    s.cfg.Addr,
		"session": s.sess.ID,
		"subject": s.sess.Subject(),
		"breaker": s.sess.BreakerState(),
		"uptime":  time.Since(s.stats.StartedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.stats)
}

// logRequests logs each request and counts it by route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = r.Method + " " + rc.RoutePattern()
		}
		s.mu.Lock()
		s.stats.Requests++
		s.stats.ByRoute[route]++
		s.mu.Unlock()

		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestID", chimiddleware.GetReqID(r.Context())))
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fieldError(e))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func fieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return field + " is invalid"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
