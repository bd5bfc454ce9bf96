package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/msalah0e/ontoview/internal/detail"
	"github.com/msalah0e/ontoview/internal/graph"
	"gopkg.in/yaml.v3"
)

// Bundle is the on-disk model a File source serves.
type Bundle struct {
	ObjectTypes []graph.Record            `json:"objectTypes" yaml:"objectTypes"`
	LinkTypes   []graph.Record            `json:"linkTypes" yaml:"linkTypes"`
	Instances   []graph.Record            `json:"instances" yaml:"instances"`
	Links       []graph.Record            `json:"links" yaml:"links"`
	Properties  map[string][]graph.Record `json:"properties" yaml:"properties"`
}

// File answers every request from a JSON or YAML bundle held in memory.
type File struct {
	path      string
	bundle    Bundle
	types     []graph.Entity
	typeLinks *network
	instLinks *network
}

// OpenFile reads a bundle from path. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func OpenFile(path string) (*File, error) {
	var b Bundle
	if err := decodeFile(path, &b); err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	f := NewFile(b)
	f.path = path
	return f, nil
}

// NewFile serves an in-memory bundle.
func NewFile(b Bundle) *File {
	f := &File{
		bundle:    b,
		typeLinks: newNetwork(b.LinkTypes),
		instLinks: newNetwork(b.Links),
	}
	for _, rec := range b.ObjectTypes {
		if e, ok := graph.EntityFromRecord(rec); ok {
			f.types = append(f.types, e)
		}
	}
	return f
}

// ReadResult loads a raw query result, a JSON or YAML sequence, from path.
func ReadResult(path string) ([]any, error) {
	var out []any
	if err := decodeFile(path, &out); err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}
	return out, nil
}

// ReadCatalog loads a typed-entity catalog, a JSON or YAML sequence of
// {id, name, displayName} records, from path.
func ReadCatalog(path string) ([]graph.Entity, error) {
	var recs []graph.Record
	if err := decodeFile(path, &recs); err != nil {
		return nil, fmt.Errorf("%w: %w", graph.ErrCatalogUnavailable, err)
	}
	out := make([]graph.Entity, 0, len(recs))
	for _, rec := range recs {
		if e, ok := graph.EntityFromRecord(rec); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	default:
		return json.Unmarshal(data, v)
	}
}

// Path returns the file the bundle was read from, if any.
func (f *File) Path() string {
	return f.path
}

func (f *File) ObjectTypes(_ context.Context, domainID string) ([]graph.Entity, error) {
	if domainID == "" {
		return append([]graph.Entity(nil), f.types...), nil
	}
	var out []graph.Entity
	for _, e := range f.types {
		if e.DomainID == domainID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *File) LinkTypes(_ context.Context, objectTypeID string) ([]graph.Relationship, error) {
	var out []graph.Relationship
	for _, rec := range f.typeLinks.touching(objectTypeID) {
		if r, ok := graph.RelationshipFromRecord(rec); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *File) typeByName(name string) (graph.Entity, error) {
	for _, e := range f.types {
		if e.Name == name {
			return e, nil
		}
	}
	return graph.Entity{}, fmt.Errorf("object type %q: %w", name, ErrNotFound)
}

func (f *File) Query(_ context.Context, q Query) ([]any, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	switch q.Kind {
	case KindLinkTypes:
		t, err := f.typeByName(q.Param("objectTypeName"))
		if err != nil {
			return nil, err
		}
		return records(f.typeLinks.touching(t.ID)), nil

	case KindObjectTypePath:
		src, err := f.typeByName(q.Param("sourceObjectTypeName"))
		if err != nil {
			return nil, err
		}
		dst, err := f.typeByName(q.Param("targetObjectTypeName"))
		if err != nil {
			return nil, err
		}
		return pathRecords(f.typeLinks.paths(src.ID, dst.ID, q.Int("maxDepth", 5))), nil

	case KindReachable:
		t, err := f.typeByName(q.Param("objectTypeName"))
		if err != nil {
			return nil, err
		}
		ids := f.typeLinks.reachable(t.ID, q.Int("depth", 2))
		out := make([]any, 0, len(ids))
		for _, id := range ids {
			if rec, ok := findRecord(f.bundle.ObjectTypes, id); ok {
				out = append(out, rec)
			}
		}
		return out, nil

	case KindNeighbors:
		name := q.Param("linkTypeName")
		var keep func(graph.Record) bool
		if name != "" {
			keep = func(rec graph.Record) bool {
				n, _ := graph.Text(rec["linkTypeName"])
				if n == "" {
					n, _ = graph.Text(rec["name"])
				}
				return n == name
			}
		}
		return idRecords(f.instLinks.neighbors(q.Param("instanceId"), keep)), nil

	case KindRelated:
		return idRecords(f.instLinks.reachable(q.Param("instanceId"), q.Int("depth", 2))), nil

	case KindInstancePath:
		return pathRecords(f.instLinks.paths(q.Param("sourceInstanceId"), q.Param("targetInstanceId"), q.Int("maxDepth", 5))), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, q.Kind)
}

func (f *File) FetchDetail(_ context.Context, id string) (detail.Detail, error) {
	rec, ok := findRecord(f.bundle.ObjectTypes, id)
	if !ok {
		rec, ok = findRecord(f.bundle.Instances, id)
	}
	if !ok {
		return detail.Detail{}, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	return detail.Detail{ID: id, Record: rec, Properties: f.bundle.Properties[id]}, nil
}

func (f *File) Close(context.Context) error {
	return nil
}

func findRecord(recs []graph.Record, id string) (graph.Record, bool) {
	for _, rec := range recs {
		if v, ok := graph.Text(rec["id"]); ok && v == id {
			return rec, true
		}
	}
	return nil, false
}

func records(recs []graph.Record) []any {
	out := make([]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, r)
	}
	return out
}

func pathRecords(paths [][]graph.Record) []any {
	out := make([]any, 0, len(paths))
	for _, p := range paths {
		out = append(out, records(p))
	}
	return out
}
