package detail

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Detail is what the panel shows for a selected node.
type Detail struct {
	ID         string           `json:"id"`
	Record     map[string]any   `json:"record,omitempty"`
	Properties []map[string]any `json:"properties,omitempty"`
}

// Fetcher loads the detail for a node id.
type Fetcher interface {
	FetchDetail(ctx context.Context, id string) (Detail, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id string) (Detail, error)

// FetchDetail calls f.
func (f FetcherFunc) FetchDetail(ctx context.Context, id string) (Detail, error) {
	return f(ctx, id)
}

// Notice is a user-visible message about a failed lookup.
type Notice struct {
	NodeID  string    `json:"nodeId"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Outcome is the result of one Resolve call. Exactly one of Detail and
// Notice is set. Stale marks a result overtaken by a newer selection.
type Outcome struct {
	Seq    uint64  `json:"seq"`
	NodeID string  `json:"nodeId"`
	Detail *Detail `json:"detail,omitempty"`
	Notice *Notice `json:"notice,omitempty"`
	Stale  bool    `json:"stale"`
}

// Config tunes the resolver and its circuit breaker.
type Config struct {
	Timeout          time.Duration `toml:"timeout"`
	MaxFailures      uint32        `toml:"max_failures" validate:"gte=1"`
	Cooldown         time.Duration `toml:"cooldown"`
	HalfOpenRequests uint32        `toml:"half_open_requests" validate:"gte=1"`
}

// DefaultConfig returns stock resolver settings.
func DefaultConfig() Config {
	return Config{
		Timeout:          10 * time.Second,
		MaxFailures:      5,
		Cooldown:         30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// ErrNoFetcher is returned when a resolver has nothing to call.
var ErrNoFetcher = errors.New("no detail fetcher configured")

// Resolver performs detail lookups. Every call takes a sequence number so
// a slow answer for an old selection can be recognised and ignored.
type Resolver struct {
	fetch   Fetcher
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	seq     atomic.Uint64
	log     *zap.Logger
	now     func() time.Time
}

// NewResolver creates a resolver calling f through a circuit breaker.
func NewResolver(f Fetcher, cfg Config, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultConfig().MaxFailures
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "detail",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Resolver{fetch: f, cb: cb, timeout: cfg.Timeout, log: log, now: time.Now}
}

// Resolve fetches the detail for id. Failures never escape: they come back
// as a Notice.
func (r *Resolver) Resolve(ctx context.Context, id string) Outcome {
	seq := r.seq.Add(1)
	out := Outcome{Seq: seq, NodeID: id}

	d, err := r.call(ctx, id)
	out.Stale = r.seq.Load() != seq
	if err != nil {
		r.log.Warn("detail lookup failed", zap.String("node", id), zap.Error(err))
		out.Notice = &Notice{NodeID: id, Message: noticeText(id, err), At: r.now()}
		return out
	}
	if d.ID == "" {
		d.ID = id
	}
	out.Detail = &d
	return out
}

func (r *Resolver) call(ctx context.Context, id string) (Detail, error) {
	if r.fetch == nil {
		return Detail{}, ErrNoFetcher
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	v, err := r.cb.Execute(func() (interface{}, error) {
		return r.fetch.FetchDetail(ctx, id)
	})
	if err != nil {
		return Detail{}, err
	}
	return v.(Detail), nil
}

// Latest returns the sequence number of the most recent request.
func (r *Resolver) Latest() uint64 {
	return r.seq.Load()
}

// IsCurrent reports whether o belongs to the most recent request.
func (r *Resolver) IsCurrent(o Outcome) bool {
	return o.Seq == r.seq.Load()
}

// BreakerState returns the circuit breaker state name.
func (r *Resolver) BreakerState() string {
	return r.cb.State().String()
}

func noticeText(id string, err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Sprintf("details for %s are temporarily unavailable", id)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("loading details for %s timed out", id)
	default:
		return fmt.Sprintf("could not load details for %s: %v", id, err)
	}
}
