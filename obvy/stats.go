package madrigal

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal is Madrigal's own prometheus registry.
// It is not the global registry, so every View and Scheduler
// can carry its own set without collisions.
type StatsInternal struct {
	Registry   *prometheus.Registry
	TickTimer  prometheus.Histogram
	Overruns   prometheus.Counter
	Triggers   *prometheus.CounterVec
	Dropped    prometheus.Counter
	UnknownRef *prometheus.CounterVec
	Transport  *prometheus.CounterVec
	WWW        *prometheus.CounterVec
}

func NewStatsInternal() *StatsInternal {
	reg := prometheus.NewRegistry()

	s := &StatsInternal{
		Registry: reg,
		TickTimer: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "madrigal",
			Name:      "tick_seconds",
			Help:      "Time spent querying and scheduling one tick.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		Overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "madrigal",
			Name:      "tick_overruns_total",
			Help:      "Ticks that took longer than the tick interval.",
		}),
		Triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "madrigal",
			Name:      "triggers_total",
			Help:      "Triggers handed to outputs.",
		}, []string{"late"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "madrigal",
			Name:      "triggers_cancelled_total",
			Help:      "Triggers cancelled by stop or pause before firing.",
		}),
		UnknownRef: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "madrigal",
			Name:      "unknown_references_total",
			Help:      "Events naming something no registry holds.",
		}, []string{"kind"}),
		Transport: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "madrigal",
			Name:      "transport_commands_total",
			Help:      "Transport commands by result.",
		}, []string{"command", "result"}),
		WWW: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "madrigal",
			Name:      "http_requests_total",
			Help:      "API requests by status code and method.",
		}, []string{"code", "method"}),
	}

	reg.MustRegister(
		s.TickTimer, s.Overruns, s.Triggers, s.Dropped, s.UnknownRef, s.Transport, s.WWW,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return s
}

// Handler serves this registry for /metrics
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}

func (s *StatsInternal) RecTickTimer(seconds float64) { s.TickTimer.Observe(seconds) }
func (s *StatsInternal) RecOverrun()                  { s.Overruns.Inc() }
func (s *StatsInternal) RecDropped()                  { s.Dropped.Inc() }

func (s *StatsInternal) RecTrigger(late bool) {
	if late {
		s.Triggers.WithLabelValues("true").Inc()
		return
	}
	s.Triggers.WithLabelValues("false").Inc()
}

func (s *StatsInternal) RecUnknownRef(kind string) { s.UnknownRef.WithLabelValues(kind).Inc() }

func (s *StatsInternal) RecTransport(command, result string) {
	s.Transport.WithLabelValues(command, result).Inc()
}

func (s *StatsInternal) RecWWW(code, method string) { s.WWW.WithLabelValues(code, method).Inc() }
