//go:build e2e

package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var ontoviewBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "ontoview-e2e-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmp)

	ontoviewBin = filepath.Join(tmp, "ontoview")
	build := exec.Command("go", "build", "-ldflags", "-X github.com/msalah0e/ontoview/cmd.version=1.5.0-test", "-o", ontoviewBin, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build ontoview: " + err.Error())
	}

	os.Exit(m.Run())
}

// runOntoview executes the binary with an isolated HOME and working directory.
func runOntoview(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(ontoviewBin, args...)
	home := t.TempDir()
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"NO_COLOR=1",
	)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run ontoview %v: %v", args, err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

func model(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("internal", "source", "testdata", "model.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- Core CLI ---

func TestE2E_Version(t *testing.T) {
	out, _, code := runOntoview(t, "--version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "1.5.0") {
		t.Errorf("expected version output to contain '1.5.0', got %q", out)
	}
}

func TestE2E_Help(t *testing.T) {
	out, _, code := runOntoview(t, "--help")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"Available Commands", "domain", "reachable", "serve", "replay"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

// --- Config ---

func TestE2E_ConfigPath(t *testing.T) {
	out, _, code := runOntoview(t, "config", "path")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), filepath.Join("ontoview", "config.toml")) {
		t.Errorf("unexpected config path %q", out)
	}
}

func TestE2E_ConfigShow(t *testing.T) {
	out, _, code := runOntoview(t, "config", "show")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"[layout]", "[viewport]", "[serve]", "base_radius"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected config to contain %q", want)
		}
	}
}

// --- Graphs ---

func TestE2E_BuildJSON(t *testing.T) {
	result := writeFile(t, "result.json", `[[{"id":"l1","name":"places","sourceObjectTypeId":"t1","targetObjectTypeId":"t2"}], {"bogus":true}]`)
	catalog := writeFile(t, "types.json", `[{"id":"t1","name":"customer","displayName":"Customer"}]`)

	out, _, code := runOntoview(t, "build", result, "--catalog", catalog, "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var g struct {
		Nodes []struct{ ID, Label string } `json:"nodes"`
		Edges []struct{ SourceID string } `json:"edges"`
	}
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatalf("expected 2 nodes and 1 edge, got %d and %d", len(g.Nodes), len(g.Edges))
	}
	if !strings.Contains(out, "Customer") {
		t.Error("expected the catalog label in the output")
	}
}

func TestE2E_BuildMissingFile(t *testing.T) {
	_, _, code := runOntoview(t, "build", "/nonexistent/result.json")
	if code == 0 {
		t.Error("expected non-zero exit for a missing result")
	}
}

func TestE2E_Domain(t *testing.T) {
	out, _, code := runOntoview(t, "domain", "sales", "-f", model(t))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"Customer", "Order", "places"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestE2E_QueryDOT(t *testing.T) {
	out, _, code := runOntoview(t, "query", "link-types", "--param", "objectTypeName=order", "--format", "dot", "-f", model(t))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.HasPrefix(out, "digraph ontoview {") {
		t.Errorf("expected DOT output, got %q", out)
	}
}

func TestE2E_QueryUnknownKind(t *testing.T) {
	_, _, code := runOntoview(t, "query", "teleport", "-f", model(t))
	if code == 0 {
		t.Error("expected non-zero exit for an unknown query kind")
	}
}

func TestE2E_ReachableSVG(t *testing.T) {
	out, _, code := runOntoview(t, "reachable", "customer", "--depth", "1", "--format", "svg", "-f", model(t))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "<svg") || !strings.Contains(out, `data-id="t2"`) {
		t.Errorf("expected an svg with t2, got %q", out)
	}
}

func TestE2E_Replay(t *testing.T) {
	journal := writeFile(t, "events.jsonl",
		`{"timestamp":"2026-01-01T00:00:00Z","session":"s1","action":"event","event":{"kind":"wheel","x":0,"y":0,"deltaY":-120}}`+"\n"+
			`{"timestamp":"2026-01-01T00:00:01Z","session":"s2","action":"event","event":{"kind":"wheel","x":0,"y":0,"deltaY":-120}}`+"\n")

	out, _, code := runOntoview(t, "replay", "domain", "sales", "--events", journal, "--session", "s1", "--format", "json", "-f", model(t))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var rep struct {
		Events int     `json:"events"`
		Zoom   float64 `json:"zoom"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if rep.Events != 1 {
		t.Errorf("expected 1 event for session s1, got %d", rep.Events)
	}
	if rep.Zoom <= 1 {
		t.Errorf("expected zoom above 1, got %v", rep.Zoom)
	}
}

// --- Journal & viewer ---

func TestE2E_JournalEmpty(t *testing.T) {
	out, _, code := runOntoview(t, "journal")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "No activity recorded yet") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestE2E_ServeStatus(t *testing.T) {
	out, _, code := runOntoview(t, "serve", "status")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "not running") {
		t.Errorf("unexpected output %q", out)
	}
}
