// README: Prometheus collector for sessions, predictions, reveals and the geocode cache.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector owns a private registry. A nil *Collector is valid and records nothing.
type Collector struct {
	reg *prometheus.Registry

	ActiveSessions prometheus.Gauge
	SessionsClosed *prometheus.CounterVec // reason: client|idle|shutdown

	Predictions        *prometheus.CounterVec // outcome: ok|status|transport|unavailable
	PredictionDuration prometheus.Histogram

	RevealCycles  *prometheus.CounterVec // kind: tween|live_stream|prediction_stream
	DroppedFrames prometheus.Counter

	GeocodeCache *prometheus.CounterVec // result: hit|miss|error

	QuotesPublished  prometheus.Counter
	QuotePublishErrs prometheus.Counter
	QuoteRecordErrs  prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farecast_active_sessions",
			Help: "Number of open fare sessions.",
		}),
		SessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farecast_sessions_closed_total",
			Help: "Sessions closed, by reason.",
		}, []string{"reason"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farecast_predictions_total",
			Help: "Fare prediction requests, by outcome.",
		}, []string{"outcome"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "farecast_prediction_duration_seconds",
			Help:    "Round trip to the fare predictor.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		RevealCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farecast_reveal_cycles_total",
			Help: "Completed reveal animations, by kind.",
		}, []string{"kind"}),
		DroppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farecast_dropped_frames_total",
			Help: "Frames dropped because a subscriber was too slow.",
		}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farecast_geocode_cache_total",
			Help: "Geocode cache lookups, by result.",
		}, []string{"result"}),
		QuotesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farecast_quote_events_published_total",
			Help: "Quote events published to NATS.",
		}),
		QuotePublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farecast_quote_events_publish_errors_total",
			Help: "Quote event publish failures.",
		}),
		QuoteRecordErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farecast_quote_record_errors_total",
			Help: "Quote rows that failed to persist.",
		}),
	}

	reg.MustRegister(
		c.ActiveSessions, c.SessionsClosed,
		c.Predictions, c.PredictionDuration,
		c.RevealCycles, c.DroppedFrames,
		c.GeocodeCache,
		c.QuotesPublished, c.QuotePublishErrs, c.QuoteRecordErrs,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve exposes /metrics on addr until the returned server is shut down.
func (c *Collector) Serve(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
	log.Info("metrics listening", zap.String("addr", addr))
	return srv
}

func (c *Collector) SessionOpened() {
	if c != nil {
		c.ActiveSessions.Inc()
	}
}

func (c *Collector) SessionClosed(reason string) {
	if c != nil {
		c.ActiveSessions.Dec()
		c.SessionsClosed.WithLabelValues(reason).Inc()
	}
}

func (c *Collector) ObservePrediction(outcome string, d time.Duration) {
	if c != nil {
		c.Predictions.WithLabelValues(outcome).Inc()
		c.PredictionDuration.Observe(d.Seconds())
	}
}

func (c *Collector) RevealFinished(kind string) {
	if c != nil {
		c.RevealCycles.WithLabelValues(kind).Inc()
	}
}

func (c *Collector) FrameDropped() {
	if c != nil {
		c.DroppedFrames.Inc()
	}
}

func (c *Collector) GeocodeLookup(result string) {
	if c != nil {
		c.GeocodeCache.WithLabelValues(result).Inc()
	}
}

func (c *Collector) QuotePublished(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.QuotePublishErrs.Inc()
		return
	}
	c.QuotesPublished.Inc()
}

func (c *Collector) QuoteRecordFailed() {
	if c != nil {
		c.QuoteRecordErrs.Inc()
	}
}
