package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/msalah0e/ontoview/internal/detail"
	"github.com/msalah0e/ontoview/internal/graph"
)

var (
	ErrUnknownKind  = errors.New("unknown query kind")
	ErrMissingParam = errors.New("missing query parameter")
	ErrNotFound     = errors.New("not found")
)

// Source is a backend that can answer catalog, query and detail requests.
type Source interface {
	// ObjectTypes lists the typed-entity catalog. An empty domainID lists
	// every domain.
	ObjectTypes(ctx context.Context, domainID string) ([]graph.Entity, error)
	// LinkTypes lists relationships touching one object type.
	LinkTypes(ctx context.Context, objectTypeID string) ([]graph.Relationship, error)
	// Query runs a named query and returns its raw, possibly nested, result.
	Query(ctx context.Context, q Query) ([]any, error)
	detail.Fetcher
	Close(ctx context.Context) error
}

// Kind names a query.
type Kind string

const (
	KindLinkTypes      Kind = "link-types"
	KindObjectTypePath Kind = "object-type-path"
	KindReachable      Kind = "reachable"
	KindNeighbors      Kind = "neighbors"
	KindRelated        Kind = "related"
	KindInstancePath   Kind = "instance-path"
)

// Kinds lists every supported query kind.
var Kinds = []Kind{
	KindLinkTypes, KindObjectTypePath, KindReachable,
	KindNeighbors, KindRelated, KindInstancePath,
}

var required = map[Kind][]string{
	KindLinkTypes:      {"objectTypeName"},
	KindObjectTypePath: {"sourceObjectTypeName", "targetObjectTypeName"},
	KindReachable:      {"objectTypeName"},
	KindNeighbors:      {"instanceId"},
	KindRelated:        {"instanceId"},
	KindInstancePath:   {"sourceInstanceId", "targetInstanceId"},
}

var defaults = map[Kind]map[string]string{
	KindObjectTypePath: {"maxDepth": "5"},
	KindReachable:      {"depth": "2"},
	KindRelated:        {"depth": "2"},
	KindInstancePath:   {"maxDepth": "5"},
}

// Query is a named query with string parameters.
type Query struct {
	Kind   Kind              `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// NewQuery builds a query and fills in default parameters.
func NewQuery(kind Kind, params map[string]string) Query {
	q := Query{Kind: kind, Params: make(map[string]string)}
	for k, v := range defaults[kind] {
		q.Params[k] = v
	}
	for k, v := range params {
		q.Params[k] = v
	}
	return q
}

// ParseParams reads k=v pairs.
func ParseParams(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

// Validate checks the kind and required parameters.
func (q Query) Validate() error {
	req, ok := required[q.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, q.Kind)
	}
	for _, k := range req {
		if q.Params[k] == "" {
			return fmt.Errorf("%w: %s needs %s", ErrMissingParam, q.Kind, k)
		}
	}
	for _, k := range []string{"depth", "maxDepth"} {
		if v, ok := q.Params[k]; ok && v != "" {
			if n, err := strconv.Atoi(v); err != nil || n < 1 {
				return fmt.Errorf("invalid %s %q: must be a positive integer", k, v)
			}
		}
	}
	return nil
}

// Param returns a parameter value.
func (q Query) Param(k string) string {
	return q.Params[k]
}

// Int returns an integer parameter, or def when absent or malformed.
func (q Query) Int(k string, def int) int {
	n, err := strconv.Atoi(q.Params[k])
	if err != nil {
		return def
	}
	return n
}

// String renders the query for logs and keys.
func (q Query) String() string {
	keys := make([]string, 0, len(q.Params))
	for k := range q.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(string(q.Kind))
	for _, k := range keys {
		b.WriteString(" " + k + "=" + q.Params[k])
	}
	return b.String()
}

// idRecords turns a list of ids into bare node records.
func idRecords(ids []string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, graph.Record{"id": id})
	}
	return out
}
