package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/msalah0e/ontoview/internal/activity"
	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/interaction"
	"github.com/msalah0e/ontoview/internal/layout"
	"github.com/msalah0e/ontoview/internal/source"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is far too long", 10, "this is..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.max)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		entry    activity.Entry
		expected string
	}{
		{activity.Entry{Event: &interaction.Event{Kind: interaction.PointerDown, X: 10.4, Y: -3}}, "down (10, -3)"},
		{activity.Entry{Event: &interaction.Event{Kind: interaction.Wheel, DeltaY: -120}}, "wheel -120"},
		{activity.Entry{NodeID: "t1"}, "t1"},
		{activity.Entry{Subject: "domain x", Details: "boom"}, "domain x: boom"},
		{activity.Entry{Subject: "domain sales"}, "domain sales"},
	}

	for _, tt := range tests {
		if got := describe(tt.entry); got != tt.expected {
			t.Errorf("describe(%+v) = %q, want %q", tt.entry, got, tt.expected)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("expected 8-char prefix, got %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("short ids stay whole, got %q", got)
	}
}

func TestSortedKeys(t *testing.T) {
	got := sortedKeys(map[string]int{"select": 1, "event": 4, "clear": 2})
	if strings.Join(got, ",") != "clear,event,select" {
		t.Errorf("unexpected order %v", got)
	}
}

func TestSVGOf(t *testing.T) {
	g := graph.New()
	g.Nodes = []graph.Node{{ID: "a", Label: "Alpha", Kind: graph.KindObjectType}, {ID: "b"}}
	g.Edges = []graph.Edge{{SourceID: "a", TargetID: "b", Label: "rel"}}

	svg := svgOf(layout.DefaultConfig(), g)
	for _, want := range []string{"<svg", `data-id="a"`, `data-id="b"`, ">Alpha<", ">rel<"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg should contain %q", want)
		}
	}

	page := pageOf(layout.DefaultConfig(), g, "domain x")
	if !strings.Contains(page, "const LIVE=false;") {
		t.Error("exported pages are static")
	}
	if !strings.Contains(page, svg) {
		t.Error("page should embed the drawing")
	}
}

func TestSwappable(t *testing.T) {
	first := source.NewFile(source.Bundle{ObjectTypes: []graph.Record{{"id": "a", "name": "alpha"}}})
	second := source.NewFile(source.Bundle{ObjectTypes: []graph.Record{{"id": "b", "name": "beta"}}})
	s := &swappable{src: first}

	if _, err := s.FetchDetail(context.Background(), "a"); err != nil {
		t.Fatalf("expected a from the first bundle: %v", err)
	}
	s.swap(second)
	if _, err := s.FetchDetail(context.Background(), "a"); err == nil {
		t.Error("a should be gone after the swap")
	}
	if _, err := s.FetchDetail(context.Background(), "b"); err != nil {
		t.Errorf("expected b from the second bundle: %v", err)
	}
}

func TestFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"running","subject":"domain sales"}`))
	}))
	defer srv.Close()

	status, err := fetchStatus(srv.URL)
	if err != nil {
		t.Fatalf("fetchStatus: %v", err)
	}
	if status["subject"] != "domain sales" {
		t.Errorf("expected subject from the viewer, got %v", status["subject"])
	}

	if _, err := fetchStatus(srv.URL + "/missing"); err == nil {
		t.Error("expected an error for a non-2xx reply")
	}
}
