package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/projecteru2/logview/types"

	statsdlib "github.com/CMGS/statsd"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Client combine statsd and prometheus
type Client struct {
	sync.Mutex
	statsd       string
	statsdClient *statsdlib.Client
	prefix       string
	data         map[string]float64

	polls         *prometheus.CounterVec
	skipped       prometheus.Counter
	clears        *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	lines         prometheus.Gauge
	bytes         prometheus.Gauge
	generation    prometheus.Gauge
	sessions      prometheus.Gauge
}

// New creates collectors and registers them to reg
func New(statsd, prefix string, reg prometheus.Registerer) *Client {
	m := &Client{
		statsd: statsd,
		prefix: prefix,
		data:   map[string]float64{},
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logview_polls_total",
			Help: "poll cycles by result.",
		}, []string{"result"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logview_polls_skipped_total",
			Help: "ticks skipped because a fetch was still running.",
		}),
		clears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logview_clears_total",
			Help: "clear commands by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "logview_fetch_duration_seconds",
			Help:    "time spent fetching the log.",
			Buckets: prometheus.DefBuckets,
		}),
		lines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logview_buffer_lines",
			Help: "lines held in buffer.",
		}),
		bytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logview_buffer_bytes",
			Help: "bytes held in buffer.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logview_buffer_generation",
			Help: "buffer generation, bumped by every clear.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logview_sessions",
			Help: "attached view sessions.",
		}),
	}
	reg.MustRegister(m.polls, m.skipped, m.clears, m.fetchDuration, m.lines, m.bytes, m.generation, m.sessions)
	return m
}

// Poll records one finished poll cycle, result is data, empty, error or stale
func (m *Client) Poll(result string, took time.Duration) {
	m.polls.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(took.Seconds())
	m.incr("poll." + result)
	m.set("poll.duration_ms", float64(took.Milliseconds()))
}

// Skip records a tick dropped by an in-flight fetch
func (m *Client) Skip() {
	m.skipped.Inc()
	m.incr("poll.skipped")
}

// Clear records a clear command
func (m *Client) Clear(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.clears.WithLabelValues(result).Inc()
	m.incr("clear." + result)
}

// Buffer records buffer size after a change
func (m *Client) Buffer(s types.Snapshot) {
	m.lines.Set(float64(s.Lines))
	m.bytes.Set(float64(s.Bytes))
	m.generation.Set(float64(s.Generation))
	m.set("buffer.lines", float64(s.Lines))
	m.set("buffer.bytes", float64(s.Bytes))
	m.set("buffer.generation", float64(s.Generation))
}

// Sessions records attached sessions
func (m *Client) Sessions(n int) {
	m.sessions.Set(float64(n))
	m.set("sessions", float64(n))
}

func (m *Client) set(key string, v float64) {
	m.Lock()
	defer m.Unlock()
	m.data[key] = v
}

func (m *Client) incr(key string) {
	m.Lock()
	defer m.Unlock()
	m.data[key]++
}

// Lazy connecting
func (m *Client) checkConn() error {
	if m.statsdClient != nil {
		return nil
	}
	// UDP only, nothing to reconnect
	var err error
	if m.statsdClient, err = statsdlib.New(m.statsd, statsdlib.WithErrorHandler(func(err error) {
		log.Errorf("[statsd] Sending statsd failed: %v", err)
	})); err != nil {
		log.Errorf("[statsd] Connect statsd failed: %v", err)
		return err
	}
	return nil
}

// Send to statsd
func (m *Client) Send() error {
	if m.statsd == "" {
		return nil
	}
	m.Lock()
	defer m.Unlock()
	if err := m.checkConn(); err != nil {
		return err
	}
	for k, v := range m.data {
		m.statsdClient.Gauge(fmt.Sprintf("%s.%s", m.prefix, k), v)
	}
	return nil
}

// Run sends to statsd every step until ctx is done
func (m *Client) Run(ctx context.Context, step time.Duration) {
	if m.statsd == "" || step <= 0 {
		return
	}
	tick := time.NewTicker(step)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			if err := m.Send(); err != nil {
				log.Warnf("[metrics] send to statsd %s failed %v", m.statsd, err)
			}
		case <-ctx.Done():
			return
		}
	}
}
