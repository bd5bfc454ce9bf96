package assemble

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/metrics"
	"github.com/msalah0e/ontoview/internal/parallel"
	"github.com/msalah0e/ontoview/internal/source"
	"go.uber.org/zap"
)

// Backend is what assembly needs from a source.
type Backend interface {
	ObjectTypes(ctx context.Context, domainID string) ([]graph.Entity, error)
	LinkTypes(ctx context.Context, objectTypeID string) ([]graph.Relationship, error)
	Query(ctx context.Context, q source.Query) ([]any, error)
}

// Result is an assembled graph with its build report.
type Result struct {
	Graph  *graph.Graph
	Report graph.Report
	// Failed counts per-node relationship fetches that failed and were
	// treated as empty.
	Failed int
}

// Assembler turns subjects (a domain, a root type, a query) into graphs.
type Assembler struct {
	backend     Backend
	concurrency int
	log         *zap.Logger
	metrics     *metrics.Collector
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithConcurrency bounds the per-node fetch fan-out. Zero means one
// goroutine per node.
func WithConcurrency(n int) Option {
	return func(a *Assembler) { a.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMetrics records builds in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *Assembler) { a.metrics = c }
}

// New creates an assembler over b.
func New(b Backend, opts ...Option) *Assembler {
	a := &Assembler{backend: b, log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// catalog fetches the typed-entity catalog. Failure here is fatal to a build.
func (a *Assembler) catalog(ctx context.Context, domainID string) ([]graph.Entity, error) {
	types, err := a.backend.ObjectTypes(ctx, domainID)
	if err != nil {
		if errors.Is(err, graph.ErrCatalogUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", graph.ErrCatalogUnavailable, err)
	}
	return types, nil
}

// relationships fetches link types for every entity concurrently and joins.
// A failed fetch contributes nothing and is counted.
func (a *Assembler) relationships(ctx context.Context, entities []graph.Entity) ([]graph.Relationship, int) {
	tasks := make([]parallel.Task[[]graph.Relationship], len(entities))
	for i, e := range entities {
		tasks[i] = parallel.Task[[]graph.Relationship]{
			Name: e.ID,
			Fn: func(ctx context.Context) ([]graph.Relationship, error) {
				return a.backend.LinkTypes(ctx, e.ID)
			},
		}
	}

	results := parallel.Run(ctx, tasks, a.concurrency, a.log)
	var rels []graph.Relationship
	for _, r := range results {
		if !r.OK {
			a.log.Warn("relationship fetch failed, treating as empty",
				zap.String("objectType", r.Name), zap.Error(r.Err))
			continue
		}
		rels = append(rels, r.Value...)
	}
	return rels, parallel.Failed(results)
}

func (a *Assembler) finish(kind string, g *graph.Graph, rep graph.Report, failed int, start time.Time) Result {
	elapsed := time.Since(start)
	a.metrics.ObserveBuild(kind, rep, failed, elapsed)
	a.log.Info("graph assembled",
		zap.String("kind", kind),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
		zap.Int("failedFetches", failed),
		zap.Duration("elapsed", elapsed))
	return Result{Graph: g, Report: rep, Failed: failed}
}

func (a *Assembler) fail(kind string, err error) (Result, error) {
	a.metrics.BuildFailed(kind)
	return Result{Graph: graph.New()}, err
}

// Domain assembles every object type of a domain with the relationships
// that belong to it.
func (a *Assembler) Domain(ctx context.Context, domainID string) (Result, error) {
	start := time.Now()
	types, err := a.catalog(ctx, domainID)
	if err != nil {
		return a.fail("domain", err)
	}
	rels, failed := a.relationships(ctx, types)
	g, rep := graph.BuildDomain(domainID, types, rels, graph.WithLogger(a.log))
	return a.finish("domain", g, rep, failed, start), nil
}

// Reachable assembles the object types reachable from rootName within
// depth hops, plus the relationships among them.
func (a *Assembler) Reachable(ctx context.Context, rootName string, depth int) (Result, error) {
	start := time.Now()
	catalog, err := a.catalog(ctx, "")
	if err != nil {
		return a.fail("reachable", err)
	}

	q := source.NewQuery(source.KindReachable, map[string]string{"objectTypeName": rootName})
	if depth > 0 {
		q.Params["depth"] = fmt.Sprint(depth)
	}
	raw, err := a.query(ctx, q)
	if err != nil {
		return a.fail("reachable", err)
	}

	var reachable []graph.Entity
	for _, item := range graph.Flatten(raw) {
		rec, ok := item.(graph.Record)
		if !ok {
			continue
		}
		if e, ok := graph.EntityFromRecord(rec); ok {
			reachable = append(reachable, e)
		}
	}

	involved := reachable
	if root, ok := graph.FindRoot(rootName, catalog, reachable); ok {
		involved = append([]graph.Entity{root}, reachable...)
	}
	rels, failed := a.relationships(ctx, involved)
	g, rep := graph.BuildReachable(rootName, catalog, reachable, rels, graph.WithLogger(a.log))
	return a.finish("reachable", g, rep, failed, start), nil
}

// Query runs a named query and builds its result. Reachable queries are
// assembled through Reachable so that relationships are included.
func (a *Assembler) Query(ctx context.Context, q source.Query) (Result, error) {
	if q.Kind == source.KindReachable {
		return a.Reachable(ctx, q.Param("objectTypeName"), q.Int("depth", 2))
	}

	start := time.Now()
	kind := string(q.Kind)
	catalog, err := a.catalog(ctx, "")
	if err != nil {
		return a.fail(kind, err)
	}
	raw, err := a.query(ctx, q)
	if err != nil {
		return a.fail(kind, err)
	}
	g, rep := graph.Build(raw, graph.NewCatalog(catalog), graph.WithLogger(a.log))
	return a.finish(kind, g, rep, 0, start), nil
}

func (a *Assembler) query(ctx context.Context, q source.Query) ([]any, error) {
	raw, err := a.backend.Query(ctx, q)
	if err != nil {
		if errors.Is(err, graph.ErrQueryUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", graph.ErrQueryUnavailable, err)
	}
	return raw, nil
}

// Subject is what a diagram shows: a whole domain or the result of a query.
type Subject struct {
	Domain string        `json:"domain,omitempty"`
	Query  *source.Query `json:"query,omitempty"`
}

// ParseSubject reads a subject from words: "domain <id>" or
// "<query-kind> key=value ...".
func ParseSubject(words []string) (Subject, error) {
	if len(words) == 0 {
		return Subject{}, errors.New("empty subject")
	}
	if words[0] == "domain" {
		if len(words) != 2 {
			return Subject{}, errors.New("usage: domain <domain-id>")
		}
		return Subject{Domain: words[1]}, nil
	}

	params, err := source.ParseParams(words[1:])
	if err != nil {
		return Subject{}, err
	}
	q := source.NewQuery(source.Kind(words[0]), params)
	if err := q.Validate(); err != nil {
		return Subject{}, err
	}
	return Subject{Query: &q}, nil
}

// IsZero reports whether s names nothing.
func (s Subject) IsZero() bool {
	return s.Domain == "" && s.Query == nil
}

func (s Subject) String() string {
	switch {
	case s.Query != nil:
		return s.Query.String()
	case s.Domain != "":
		return "domain " + s.Domain
	default:
		return ""
	}
}

// Build assembles the graph for s.
func (a *Assembler) Build(ctx context.Context, s Subject) (Result, error) {
	if s.Query != nil {
		return a.Query(ctx, *s.Query)
	}
	return a.Domain(ctx, s.Domain)
}
