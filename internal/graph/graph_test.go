package graph

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCatalog = NewCatalog([]Entity{
	{ID: "A", DisplayName: "Account"},
	{ID: "B", DisplayName: "Booking"},
})

var (
	sortNodes = cmpopts.SortSlices(func(a, b Node) bool { return a.ID < b.ID })
	sortEdges = cmpopts.SortSlices(func(a, b Edge) bool {
		return fmt.Sprint(a) < fmt.Sprint(b)
	})
)

func TestBuild_ObjectTypeScenario(t *testing.T) {
	result := []any{
		Record{"sourceObjectTypeId": "A", "targetObjectTypeId": "B", "displayName": "owns"},
	}

	g, report := Build(result, accountCatalog)

	want := []Node{
		{ID: "A", Label: "Account", Kind: KindObjectType},
		{ID: "B", Label: "Booking", Kind: KindObjectType},
	}
	if diff := cmp.Diff(want, g.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "A", g.Edges[0].SourceID)
	assert.Equal(t, "B", g.Edges[0].TargetID)
	assert.Equal(t, "owns", g.Edges[0].Label)
	assert.Equal(t, 1, report.Records)
	assert.Equal(t, 0, report.Unrecognized)
}

func TestBuild_GenericDuplicatesBothSurvive(t *testing.T) {
	result := []any{
		Record{"source": "X", "target": "Y"},
		Record{"source": "X", "target": "Y"},
	}

	g, report := Build(result, nil)

	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 2, "both edges survive")
	for _, e := range g.Edges {
		assert.Equal(t, "generic", e.Label)
		assert.Equal(t, "generic", e.Shape)
		assert.Empty(t, e.RelationshipID)
	}
	assert.Zero(t, report.Duplicates)
}

func TestBuild_GenericPathProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"p", "q", "r", "s"}
	for i := 0; i < 200; i++ {
		n := rng.Intn(12)
		var result []any
		for j := 0; j < n; j++ {
			src, dst := ids[rng.Intn(len(ids))], ids[rng.Intn(len(ids))]
			if rng.Intn(2) == 0 {
				result = append(result, Record{"source": src, "target": dst})
			} else {
				result = append(result, Record{"from": src, "to": dst})
			}
		}

		g, _ := Build(result, nil)
		require.Len(t, g.Edges, n, "identity-less edges are never collapsed")
		for _, e := range g.Edges {
			_, okS := g.Node(e.SourceID)
			_, okT := g.Node(e.TargetID)
			require.True(t, okS && okT, "edge %v references a missing node", e)
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	result := []any{
		Record{"id": "r1", "sourceObjectTypeId": "A", "targetObjectTypeId": "B", "name": "owns"},
		Record{"id": "r1", "sourceObjectTypeId": "A", "targetObjectTypeId": "B", "name": "owns"},
		Record{"id": "r2", "sourceObjectTypeId": "B", "targetObjectTypeId": "A", "name": "bookedBy"},
		[]any{Record{"id": "n1", "name": "Loose"}, []any{Record{"from": "n1", "to": "A"}}},
	}

	g1, r1 := Build(result, accountCatalog)
	g2, _ := Build(result, accountCatalog)

	if diff := cmp.Diff(g1.Nodes, g2.Nodes, sortNodes); diff != "" {
		t.Errorf("nodes differ between builds:\n%s", diff)
	}
	if diff := cmp.Diff(g1.Edges, g2.Edges, sortEdges); diff != "" {
		t.Errorf("edges differ between builds:\n%s", diff)
	}
	assert.Len(t, g1.Edges, 3, "repeated relationship must not add an edge")
	assert.Equal(t, 1, r1.Duplicates)

	// Feeding the same result twice into one builder does not grow the edge set
	// for identified relationships.
	b := NewBuilder(accountCatalog)
	b.Add(result[:3]...)
	b.Add(result[:3]...)
	assert.Len(t, b.Graph().Edges, 2)
}

func TestBuild_DifferentRelationshipsKept(t *testing.T) {
	result := []any{
		Record{"id": "r1", "source": "A", "target": "B"},
		Record{"id": "r2", "source": "A", "target": "B"},
		Record{"id": "r1", "source": "B", "target": "A"},
	}
	g, report := Build(result, nil)
	assert.Len(t, g.Edges, 2)
	assert.Equal(t, 1, report.Duplicates, "reverse direction shares the sorted key")
}

func TestBuild_FirstOccurrenceWins(t *testing.T) {
	result := []any{
		Record{"id": "A", "displayName": "First"},
		Record{"sourceObjectTypeId": "A", "targetObjectTypeId": "B"},
		Record{"id": "A", "displayName": "Second"},
	}
	g, _ := Build(result, accountCatalog)

	n, ok := g.Node("A")
	require.True(t, ok)
	assert.Equal(t, "First", n.Label)
	assert.Equal(t, KindNone, n.Kind, "bare node seen first keeps its kind")

	b, ok := g.Node("B")
	require.True(t, ok)
	assert.Equal(t, "Booking", b.Label)
	assert.Equal(t, KindObjectType, b.Kind)
}

func TestBuild_UnknownCatalogIDFallsBack(t *testing.T) {
	result := []any{Record{"sourceObjectTypeId": "A", "targetObjectTypeId": "Z"}}
	g, _ := Build(result, accountCatalog)
	n, ok := g.Node("Z")
	require.True(t, ok)
	assert.Equal(t, "Z", n.Label)
	assert.Equal(t, "objectType", g.Edges[0].Label)
}

func TestBuild_Unrecognized(t *testing.T) {
	result := []any{
		Record{"name": "no id"},
		Record{"source": "X"},
		Record{"id": ""},
		"just a string",
		42,
		nil,
	}
	g, report := Build(result, nil)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
	assert.Equal(t, 6, report.Records)
	assert.Equal(t, 6, report.Unrecognized)
}

func TestBuild_PairPriority(t *testing.T) {
	rec := Record{
		"sourceInstanceId": "i1", "targetInstanceId": "i2",
		"source": "s1", "target": "s2",
		"from": "f1", "to": "f2",
	}
	g, _ := Build([]any{rec}, nil)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "i1", g.Edges[0].SourceID)
	assert.Equal(t, "instance", g.Edges[0].Shape)

	delete(rec, "targetInstanceId")
	g, _ = Build([]any{rec}, nil)
	assert.Equal(t, "s1", g.Edges[0].SourceID, "incomplete pair is skipped")
}

func TestBuild_NumericIDs(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"id": 7, "source": 12, "target": 3.5}`), &rec))
	g, _ := Build([]any{rec}, nil)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "12", g.Edges[0].SourceID)
	assert.Equal(t, "3.5", g.Edges[0].TargetID)
	assert.Equal(t, "7", g.Edges[0].RelationshipID)

	g, _ = Build([]any{Record{"source": 0, "target": "Y"}}, nil)
	assert.Empty(t, g.Edges, "zero is not a present endpoint")
}

func TestBuild_DanglingDropped(t *testing.T) {
	b := NewBuilder(accountCatalog)
	b.AddEntity(Entity{ID: "A", Name: "account"})
	b.AddRelationship(Relationship{ID: "r1", SourceID: "A", TargetID: "ghost"})
	b.AddRelationship(Relationship{ID: "r2", SourceID: "A", TargetID: "A", Name: "self"})

	g := b.Graph()
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "r2", g.Edges[0].RelationshipID)
	assert.Equal(t, 1, b.Report().Dangling)
	for _, e := range g.Edges {
		assert.NotEqual(t, "ghost", e.TargetID)
	}
}

func TestBuildDomain(t *testing.T) {
	types := []Entity{
		{ID: "t1", Name: "customer", DomainID: "sales"},
		{ID: "t2", Name: "order", DomainID: "sales"},
		{ID: "t3", Name: "isolated", DomainID: "sales"},
	}
	rels := []Relationship{
		{ID: "l1", SourceID: "t1", TargetID: "t2", Name: "places", DomainID: "sales"},
		{ID: "l1", SourceID: "t1", TargetID: "t2", Name: "places", DomainID: "sales"},
		{ID: "l2", SourceID: "t2", TargetID: "t1", Name: "global"},
		{ID: "l3", SourceID: "t1", TargetID: "t2", Name: "other", DomainID: "hr"},
		{ID: "l4", SourceID: "t1", TargetID: "x9", Name: "outside", DomainID: "sales"},
	}

	g, report := BuildDomain("sales", types, rels)

	assert.Len(t, g.Nodes, 3, "isolated types still appear")
	var ids []string
	for _, e := range g.Edges {
		ids = append(ids, e.RelationshipID)
	}
	assert.Equal(t, []string{"l1", "l2"}, ids)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 1, report.Dangling)
}

func TestBuildReachable(t *testing.T) {
	catalog := []Entity{{ID: "t1", Name: "customer", DisplayName: "Customer"}}
	reachable := []Entity{{ID: "t2", Name: "order"}, {ID: "t3", Name: "invoice"}}
	rels := []Relationship{
		{ID: "l1", SourceID: "t1", TargetID: "t2", Name: "places"},
		{ID: "l2", SourceID: "t2", TargetID: "t3", Name: "billed"},
		{ID: "l2", SourceID: "t2", TargetID: "t3", Name: "billed"},
		{ID: "l9", SourceID: "t3", TargetID: "t8", Name: "beyond"},
	}

	g, _ := BuildReachable("customer", catalog, reachable, rels)

	require.Len(t, g.Nodes, 3)
	assert.Equal(t, "t1", g.Nodes[0].ID, "root comes first")
	assert.Equal(t, "Customer", g.Nodes[0].Label)
	assert.Len(t, g.Edges, 2)

	g, _ = BuildReachable("order", nil, reachable, rels)
	assert.Len(t, g.Nodes, 2, "root found in reachable list is not duplicated")
}

func TestFindRoot_FirstMatchWins(t *testing.T) {
	catalog := []Entity{{ID: "t1", Name: "customer"}, {ID: "t9", Name: "customer"}}
	for i := 0; i < 20; i++ {
		root, ok := FindRoot("customer", catalog, nil)
		require.True(t, ok)
		require.Equal(t, "t1", root.ID)
	}

	root, ok := FindRoot("order", catalog, []Entity{{ID: "t2", Name: "order"}})
	require.True(t, ok)
	assert.Equal(t, "t2", root.ID)

	_, ok = FindRoot("nope", catalog, nil)
	assert.False(t, ok)
}

func TestRelationshipFromRecord(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		want Relationship
	}{
		{"object type fields", Record{"id": "l1", "sourceObjectTypeId": "a", "targetObjectTypeId": "b", "name": "n"},
			Relationship{ID: "l1", SourceID: "a", TargetID: "b", Name: "n"}},
		{"generic fields", Record{"id": "l2", "source": "a", "target": "b", "displayName": "D", "domainId": "d"},
			Relationship{ID: "l2", SourceID: "a", TargetID: "b", DisplayName: "D", DomainID: "d"}},
		{"from to", Record{"id": "l3", "from": "a", "to": "b"},
			Relationship{ID: "l3", SourceID: "a", TargetID: "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := RelationshipFromRecord(tc.rec)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	_, ok := RelationshipFromRecord(Record{"id": "x"})
	assert.False(t, ok)
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, DedupKey("A", "B", "r"), DedupKey("B", "A", "r"))
	assert.NotEqual(t, DedupKey("A", "B", "r1"), DedupKey("A", "B", "r2"))
}

func TestFlatten(t *testing.T) {
	in := []any{Record{"id": "1"}, []any{Record{"id": "2"}, []any{[]any{Record{"id": "3"}}}}, []any{}}
	out := Flatten(in)
	require.Len(t, out, 3)
	for i, v := range out {
		assert.Equal(t, fmt.Sprint(i+1), v.(Record)["id"])
	}
}

func TestExportDOT(t *testing.T) {
	g, _ := Build([]any{Record{"sourceObjectTypeId": "B", "targetObjectTypeId": "A", "name": "rel"}}, accountCatalog)
	dot := g.ExportDOT()
	assert.True(t, strings.HasPrefix(dot, "digraph ontoview {"), dot)
	// A sorts before B regardless of insertion order
	ia := strings.Index(dot, `"A" [label=`)
	ib := strings.Index(dot, `"B" [label=`)
	require.True(t, ia >= 0 && ib >= 0, dot)
	assert.Less(t, ia, ib, "nodes sorted in DOT output")
	assert.Contains(t, dot, `"B" -> "A" [label="rel"]`)
}

func TestExportJSON(t *testing.T) {
	g, _ := Build([]any{Record{"id": "n1", "name": "Solo"}}, nil)
	data, err := g.ExportJSON()
	require.NoError(t, err)

	var back Graph
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, g.Nodes, back.Nodes)
	assert.Empty(t, back.Edges)
}

func TestGetStats(t *testing.T) {
	g, _ := Build([]any{
		Record{"sourceObjectTypeId": "A", "targetObjectTypeId": "B"},
		Record{"source": "x", "target": "y"},
	}, accountCatalog)
	s := g.GetStats()
	assert.Equal(t, 4, s.Nodes)
	assert.Equal(t, 2, s.Edges)
	assert.Equal(t, 1, s.Kinds)

	ids := make([]string, 0)
	for _, e := range g.Outgoing("A") {
		ids = append(ids, e.TargetID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"B"}, ids)
}
