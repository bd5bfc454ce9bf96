package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBuild(t *testing.T) {
	c := New()
	c.ObserveBuild("domain", graph.Report{Records: 10, Unrecognized: 2, Duplicates: 1, Dangling: 3}, 4, 25*time.Millisecond)
	c.ObserveBuild("domain", graph.Report{Records: 5}, 0, time.Millisecond)
	c.BuildFailed("domain")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Builds.WithLabelValues("domain", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Builds.WithLabelValues("domain", "error")))
	assert.Equal(t, 15.0, testutil.ToFloat64(c.Records.WithLabelValues("seen")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Records.WithLabelValues("dangling")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.FetchFailures.WithLabelValues("domain")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveBuild("x", graph.Report{}, 0, 0)
	c.BuildFailed("x")
	c.ObserveEvent("down")
	c.ObserveStale()
	c.ObserveDetail("ok")
	c.ObserveSnapshot(1, 1)
	assert.Nil(t, c.Registry())
}

func TestHandler(t *testing.T) {
	c := New()
	c.ObserveEvent("wheel")
	c.ObserveStale()
	c.ObserveSnapshot(3, 2)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `ontoview_interaction_events_total{kind="wheel"} 1`), text)
	assert.Contains(t, text, "ontoview_stale_commits_total 1")
	assert.Contains(t, text, "ontoview_snapshot_nodes 3")
}
