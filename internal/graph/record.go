package graph

import (
	"encoding/json"
	"math"
	"strconv"
)

// Record is one loosely-typed item of a query result.
type Record = map[string]any

// Shape is the variant a record parsed into.
type Shape int

const (
	Unrecognized Shape = iota
	EdgeShape
	NodeShape
)

func (s Shape) String() string {
	switch s {
	case EdgeShape:
		return "edge"
	case NodeShape:
		return "node"
	default:
		return "unrecognized"
	}
}

// EndpointPair names the two fields that carry an edge's endpoints.
type EndpointPair struct {
	Source string
	Target string
	Tag    string
	Kind   Kind // kind given to endpoint nodes
}

// EndpointPairs lists the recognized endpoint field names in priority order.
var EndpointPairs = []EndpointPair{
	{Source: "sourceObjectTypeId", Target: "targetObjectTypeId", Tag: "objectType", Kind: KindObjectType},
	{Source: "sourceInstanceId", Target: "targetInstanceId", Tag: "instance"},
	{Source: "source", Target: "target", Tag: "generic"},
	{Source: "from", Target: "to", Tag: "generic"},
}

// ParsedEdge is a record recognized as a relation between two ids.
type ParsedEdge struct {
	SourceID       string
	TargetID       string
	RelationshipID string
	Label          string
	Pair           EndpointPair
}

// ParsedNode is a record recognized as a standalone node.
type ParsedNode struct {
	ID    string
	Label string
}

// Parsed is the result of classifying one record. Exactly one of Edge or
// Node is meaningful, selected by Shape.
type Parsed struct {
	Shape Shape
	Edge  ParsedEdge
	Node  ParsedNode
}

// Parse classifies a single record. Endpoint pairs are tried in priority
// order and the first pair with both values present wins. Without a pair,
// a record carrying an id becomes a node.
func Parse(item any) Parsed {
	rec, ok := item.(Record)
	if !ok || rec == nil {
		return Parsed{Shape: Unrecognized}
	}

	for _, pair := range EndpointPairs {
		sid, okS := Text(rec[pair.Source])
		tid, okT := Text(rec[pair.Target])
		if !okS || !okT {
			continue
		}
		rel, _ := Text(rec["id"])
		return Parsed{
			Shape: EdgeShape,
			Edge: ParsedEdge{
				SourceID:       sid,
				TargetID:       tid,
				RelationshipID: rel,
				Label:          firstText(rec, pair.Tag, "displayName", "name"),
				Pair:           pair,
			},
		}
	}

	if id, ok := Text(rec["id"]); ok {
		return Parsed{
			Shape: NodeShape,
			Node:  ParsedNode{ID: id, Label: firstText(rec, id, "displayName", "name")},
		}
	}
	return Parsed{Shape: Unrecognized}
}

// Flatten expands nested sequences depth-first, preserving order.
func Flatten(items []any) []any {
	out := make([]any, 0, len(items))
	var walk func(v any)
	walk = func(v any) {
		switch x := v.(type) {
		case []any:
			for _, e := range x {
				walk(e)
			}
		case []Record:
			for _, e := range x {
				walk(e)
			}
		default:
			out = append(out, v)
		}
	}
	for _, it := range items {
		walk(it)
	}
	return out
}

// Text converts a present, non-empty scalar to its string form. Empty
// strings, zero numbers, booleans and nil are treated as absent.
func Text(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case float64:
		if x == 0 || math.IsNaN(x) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return Text(float64(x))
	case int:
		return strconv.Itoa(x), x != 0
	case int64:
		return strconv.FormatInt(x, 10), x != 0
	case uint64:
		return strconv.FormatUint(x, 10), x != 0
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return "", false
		}
		return x.String(), x != ""
	default:
		return "", false
	}
}

func firstText(rec Record, fallback string, keys ...string) string {
	for _, k := range keys {
		if s, ok := Text(rec[k]); ok {
			return s
		}
	}
	return fallback
}
