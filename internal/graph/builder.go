package graph

import (
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// Report counts what happened while building a graph.
type Report struct {
	Records      int `json:"records"`
	Nodes        int `json:"nodes"`
	Edges        int `json:"edges"`
	Unrecognized int `json:"unrecognized"`
	Duplicates   int `json:"duplicates"`
	Dangling     int `json:"dangling"`
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// Builder accumulates nodes and edges from query results. Nodes keep the
// order in which they were first seen and the first occurrence wins.
type Builder struct {
	catalog Catalog
	nodes   *orderedmap.OrderedMap[string, Node]
	edges   []Edge
	keys    map[string]struct{}
	report  Report
	log     *zap.Logger
}

// NewBuilder creates a builder that resolves typed endpoints through catalog.
func NewBuilder(catalog Catalog, opts ...Option) *Builder {
	if catalog == nil {
		catalog = Catalog{}
	}
	b := &Builder{
		catalog: catalog,
		nodes:   orderedmap.New[string, Node](),
		keys:    make(map[string]struct{}),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DedupKey identifies an edge for duplicate collapsing: the sorted triple
// of its endpoints and relationship id.
func DedupKey(sourceID, targetID, relationshipID string) string {
	parts := []string{sourceID, targetID, relationshipID}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Add classifies each item of a query result and records it. Nested
// sequences are flattened first. Unrecognized items are skipped.
func (b *Builder) Add(items ...any) *Builder {
	for _, item := range Flatten(items) {
		b.report.Records++
		p := Parse(item)
		switch p.Shape {
		case EdgeShape:
			b.addParsedEdge(p.Edge)
		case NodeShape:
			b.AddNode(Node{ID: p.Node.ID, Label: p.Node.Label})
		default:
			b.report.Unrecognized++
			b.log.Debug("skipping unrecognized record", zap.Any("record", item))
		}
	}
	return b
}

func (b *Builder) addParsedEdge(e ParsedEdge) {
	if e.Pair.Kind == KindObjectType {
		b.AddNode(Node{ID: e.SourceID, Label: b.catalog.LabelOf(e.SourceID), Kind: KindObjectType})
		b.AddNode(Node{ID: e.TargetID, Label: b.catalog.LabelOf(e.TargetID), Kind: KindObjectType})
	} else {
		b.AddNode(Node{ID: e.SourceID, Label: e.SourceID})
		b.AddNode(Node{ID: e.TargetID, Label: e.TargetID})
	}
	b.AddEdge(Edge{
		SourceID:       e.SourceID,
		TargetID:       e.TargetID,
		Label:          e.Label,
		RelationshipID: e.RelationshipID,
		Shape:          e.Pair.Tag,
	})
}

// AddNode records a node unless one with the same id already exists.
// Reports whether the node was new.
func (b *Builder) AddNode(n Node) bool {
	if n.ID == "" {
		return false
	}
	if _, ok := b.nodes.Get(n.ID); ok {
		return false
	}
	b.nodes.Set(n.ID, n)
	return true
}

// AddEntity records a catalog entity as a typed node.
func (b *Builder) AddEntity(e Entity) bool {
	return b.AddNode(Node{ID: e.ID, Label: e.Label(), Kind: KindObjectType})
}

// AddEdge records an edge. Edges with a relationship id collapse onto the
// first edge sharing their DedupKey; edges without one are always kept.
func (b *Builder) AddEdge(e Edge) bool {
	if e.RelationshipID != "" {
		key := DedupKey(e.SourceID, e.TargetID, e.RelationshipID)
		if _, ok := b.keys[key]; ok {
			b.report.Duplicates++
			return false
		}
		b.keys[key] = struct{}{}
	}
	b.edges = append(b.edges, e)
	return true
}

// AddRelationship records a catalog relationship as an edge between
// object types. Endpoints are not created.
func (b *Builder) AddRelationship(r Relationship) bool {
	return b.AddEdge(Edge{
		SourceID:       r.SourceID,
		TargetID:       r.TargetID,
		Label:          r.Label(),
		RelationshipID: r.ID,
		Shape:          "relationship",
	})
}

// Has reports whether a node with id has been recorded.
func (b *Builder) Has(id string) bool {
	_, ok := b.nodes.Get(id)
	return ok
}

// Graph finalizes the build. Edges whose endpoints are not both present
// are dropped. The builder may keep accepting input afterwards.
func (b *Builder) Graph() *Graph {
	g := New()
	for pair := b.nodes.Oldest(); pair != nil; pair = pair.Next() {
		g.Nodes = append(g.Nodes, pair.Value)
	}

	dangling := 0
	for _, e := range b.edges {
		if !b.Has(e.SourceID) || !b.Has(e.TargetID) {
			dangling++
			continue
		}
		g.Edges = append(g.Edges, e)
	}

	b.report.Dangling = dangling
	b.report.Nodes = len(g.Nodes)
	b.report.Edges = len(g.Edges)
	b.log.Debug("graph built",
		zap.Int("records", b.report.Records),
		zap.Int("nodes", b.report.Nodes),
		zap.Int("edges", b.report.Edges),
		zap.Int("duplicates", b.report.Duplicates),
		zap.Int("dangling", dangling))
	return g
}

// Report returns counts gathered so far. Node and edge totals are filled
// in by Graph.
func (b *Builder) Report() Report {
	return b.report
}

// Build turns a raw query result into a graph.
func Build(result []any, catalog Catalog, opts ...Option) (*Graph, Report) {
	b := NewBuilder(catalog, opts...)
	b.Add(result...)
	g := b.Graph()
	return g, b.Report()
}

// BuildFromRelationships builds a graph from typed entities and the
// relationships among them. Relationships whose endpoints are not both
// among entities are dropped.
func BuildFromRelationships(entities []Entity, rels []Relationship, opts ...Option) (*Graph, Report) {
	b := NewBuilder(NewCatalog(entities), opts...)
	for _, e := range entities {
		b.AddEntity(e)
	}
	for _, r := range rels {
		b.AddRelationship(r)
	}
	g := b.Graph()
	return g, b.Report()
}

// BuildDomain builds the graph of one domain: its object types as nodes and
// the relationships that belong to the domain or to no domain at all.
func BuildDomain(domainID string, types []Entity, rels []Relationship, opts ...Option) (*Graph, Report) {
	var keep []Relationship
	for _, r := range rels {
		if r.DomainID == "" || r.DomainID == domainID {
			keep = append(keep, r)
		}
	}
	return BuildFromRelationships(types, keep, opts...)
}

// BuildReachable builds the graph around a root object type: the root,
// everything reachable from it, and the relationships among them. The root
// is resolved with FindRoot. A root that cannot be found is left out.
func BuildReachable(rootName string, catalog []Entity, reachable []Entity, rels []Relationship, opts ...Option) (*Graph, Report) {
	nodes := make([]Entity, 0, len(reachable)+1)
	if root, ok := FindRoot(rootName, catalog, reachable); ok {
		nodes = append(nodes, root)
	}
	nodes = append(nodes, reachable...)
	return BuildFromRelationships(nodes, rels, opts...)
}

// FindRoot resolves a root object type by name: the first match in the
// catalog, else the first match in the reachable list.
func FindRoot(name string, catalog, reachable []Entity) (Entity, bool) {
	if e, ok := findByName(catalog, name); ok {
		return e, true
	}
	return findByName(reachable, name)
}

func findByName(entities []Entity, name string) (Entity, bool) {
	for _, e := range entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}
