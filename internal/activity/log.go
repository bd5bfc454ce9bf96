package activity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/msalah0e/ontoview/internal/interaction"
)

// Actions recorded in the journal.
const (
	ActionEvent   = "event"
	ActionSubject = "subject"
	ActionClear   = "clear"
	ActionSelect  = "select"
)

// Entry is one journal line.
type Entry struct {
	Timestamp time.Time          `json:"timestamp"`
	Session   string             `json:"session,omitempty"`
	Action    string             `json:"action"`
	Event     *interaction.Event `json:"event,omitempty"`
	Subject   string             `json:"subject,omitempty"`
	NodeID    string             `json:"nodeId,omitempty"`
	Details   string             `json:"details,omitempty"`
}

// DefaultPath returns the journal location under the config directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ontoview", "activity.jsonl")
}

// Journal appends entries to a JSONL file. It is safe for concurrent use.
type Journal struct {
	mu   sync.Mutex
	path string
	f    *os.File
	now  func() time.Time
}

// Open opens path for appending, creating it and its directory if needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Journal{path: path, f: f, now: time.Now}, nil
}

// Path returns the file being written.
func (j *Journal) Path() string {
	return j.path
}

// Record appends e. A zero timestamp is filled in.
func (j *Journal) Record(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = j.now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return os.ErrClosed
	}
	_, err = fmt.Fprintf(j.f, "%s\n", data)
	return err
}

// Close closes the file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return nil
	}
	err := j.f.Close()
	j.f = nil
	return err
}

// ReadFile returns every entry of a journal in file order. Lines that do
// not parse are skipped. A missing file yields no entries.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries, sc.Err()
}

// Recent returns the last count entries, most recent first.
func Recent(path string, count int) ([]Entry, error) {
	entries, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if count > 0 && len(entries) > count {
		entries = entries[len(entries)-count:]
	}
	for i, k := 0, len(entries)-1; i < k; i, k = i+1, k-1 {
		entries[i], entries[k] = entries[k], entries[i]
	}
	return entries, nil
}

// Search finds entries whose action, subject, node or details contain
// query, ignoring case. Most recent first.
func Search(path, query string, count int) ([]Entry, error) {
	all, err := Recent(path, 0)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var results []Entry
	for _, e := range all {
		if contains(e.Action, q) || contains(e.Subject, q) || contains(e.NodeID, q) || contains(e.Details, q) {
			results = append(results, e)
			if count > 0 && len(results) >= count {
				break
			}
		}
	}
	return results, nil
}

func contains(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}

// Events extracts the interaction events of one session, in order. An
// empty session id selects the events of every session.
func Events(entries []Entry, session string) []interaction.Event {
	var out []interaction.Event
	for _, e := range entries {
		if e.Action != ActionEvent || e.Event == nil {
			continue
		}
		if session != "" && e.Session != session {
			continue
		}
		out = append(out, *e.Event)
	}
	return out
}

// Clear removes the journal file.
func Clear(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
