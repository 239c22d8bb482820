package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()

	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed("idle")
	c.ObservePrediction("ok", 20*time.Millisecond)
	c.ObservePrediction("status", 5*time.Millisecond)
	c.RevealFinished("tween")
	c.FrameDropped()
	c.GeocodeLookup("hit")
	c.QuotePublished(nil)
	c.QuotePublished(errors.New("down"))

	body := scrape(t, c)
	for _, line := range []string{
		"farecast_active_sessions 1",
		`farecast_sessions_closed_total{reason="idle"} 1`,
		`farecast_predictions_total{outcome="ok"} 1`,
		`farecast_predictions_total{outcome="status"} 1`,
		"farecast_prediction_duration_seconds_count 2",
		`farecast_reveal_cycles_total{kind="tween"} 1`,
		"farecast_dropped_frames_total 1",
		`farecast_geocode_cache_total{result="hit"} 1`,
		"farecast_quote_events_published_total 1",
		"farecast_quote_events_publish_errors_total 1",
	} {
		assert.True(t, strings.Contains(body, line), "missing %q", line)
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.SessionOpened()
		c.SessionClosed("client")
		c.ObservePrediction("ok", time.Second)
		c.RevealFinished("tween")
		c.FrameDropped()
		c.GeocodeLookup("miss")
		c.QuotePublished(nil)
		c.QuoteRecordFailed()
	})
}
