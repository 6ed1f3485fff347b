package metrics

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drand/go-verifier/common/log"
	"github.com/drand/go-verifier/drand"
	"github.com/drand/go-verifier/verify"
)

var (
	// PrivateMetrics about the internal world (go process, private stuff)
	PrivateMetrics = prometheus.NewRegistry()
	// ClientMetrics about the requests made to beacon nodes and the
	// verification of what they served
	ClientMetrics = prometheus.NewRegistry()

	// ClientInFlight measures how many active requests have been made
	ClientInFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "client_in_flight",
		Help: "A gauge of in-flight beacon node http requests.",
	},
		[]string{"url"},
	)

	// ClientRequests measures how many total requests have been made
	ClientRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_api_requests_total",
			Help: "A counter for requests to beacon nodes.",
		},
		[]string{"code", "method", "url"},
	)

	// ClientDNSLatencyVec tracks the observed DNS resolution times
	ClientDNSLatencyVec = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_dns_duration_seconds",
			Help:    "Client dns latency histogram.",
			Buckets: []float64{.005, .01, .025, .05},
		},
		[]string{"event", "url"},
	)

	// ClientTLSLatencyVec tracks observed TLS connection times
	ClientTLSLatencyVec = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_tls_duration_seconds",
			Help:    "Client tls latency histogram.",
			Buckets: []float64{.05, .1, .25, .5},
		},
		[]string{"event", "url"},
	)

	// ClientLatencyVec tracks raw http request latencies
	ClientLatencyVec = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "A histogram of client request latencies.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"url"},
	)

	// BeaconVerifications counts verification outcomes by result and cause.
	BeaconVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_verifications_total",
			Help: "Number of beacons checked, by result and failure cause.",
		},
		[]string{"result", "cause"},
	)

	// LastVerifiedRound is the highest round verified by this process.
	LastVerifiedRound = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "last_verified_round",
		Help: "Highest beacon round verified.",
	})

	metricsBound sync.Once
)

func bindMetrics(l log.Logger) {
	if err := PrivateMetrics.Register(collectors.NewGoCollector()); err != nil {
		l.Errorw("error in bindMetrics", "metrics", "goCollector", "err", err)
		return
	}
	if err := PrivateMetrics.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		l.Errorw("error in bindMetrics", "metrics", "processCollector", "err", err)
		return
	}

	if err := RegisterClientMetrics(ClientMetrics); err != nil {
		l.Errorw("error in bindMetrics", "metrics", "bindMetrics", "err", err)
		return
	}
	if err := RegisterClientMetrics(PrivateMetrics); err != nil {
		l.Errorw("error in bindMetrics", "metrics", "bindMetrics", "err", err)
		return
	}
}

// RegisterClientMetrics registers the client and verification metrics with
// the given registry
func RegisterClientMetrics(r prometheus.Registerer) error {
	client := []prometheus.Collector{
		ClientDNSLatencyVec,
		ClientInFlight,
		ClientLatencyVec,
		ClientRequests,
		ClientTLSLatencyVec,
		BeaconVerifications,
		LastVerifiedRound,
	}
	for _, c := range client {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Start starts a prometheus metrics server. If metricsBind is only a port the
// server listens on the loopback interface.
func Start(logger log.Logger, metricsBind string) net.Listener {
	logger.Infow("metrics starting", "desired_port", metricsBind)

	metricsBound.Do(func() {
		bindMetrics(logger)
	})

	if !strings.Contains(metricsBind, ":") {
		metricsBind = "127.0.0.1:" + metricsBind
	}
	//nolint:noctx
	l, err := net.Listen("tcp", metricsBind)
	if err != nil {
		logger.Warnw("", "metrics", "listen failed", "err", err)
		return nil
	}
	logger.Infow("metric listener started", "addr", l.Addr())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(PrivateMetrics, promhttp.HandlerOpts{Registry: PrivateMetrics}))

	s := http.Server{Addr: l.Addr().String(), ReadHeaderTimeout: 3 * time.Second, Handler: mux}
	go func() {
		logger.Warnw("", "metrics", "listen finished", "err", s.Serve(l))
	}()
	return l
}

// Reporter exports verification outcomes as prometheus metrics.
type Reporter struct {
	mu   sync.Mutex
	last uint64
}

// NewReporter returns a Reporter writing to the package collectors.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Report implements verify.Reporter.
func (r *Reporter) Report(o verify.Outcome) {
	if o.Verified() {
		BeaconVerifications.WithLabelValues("verified", "").Inc()
		r.mu.Lock()
		if o.Round > r.last {
			r.last = o.Round
			LastVerifiedRound.Set(float64(o.Round))
		}
		r.mu.Unlock()
		return
	}
	BeaconVerifications.WithLabelValues("failed", causeLabel(o.Cause())).Inc()
}

func causeLabel(err error) string {
	switch {
	case errors.Is(err, drand.ErrEncoding):
		return "encoding"
	case errors.Is(err, drand.ErrKeyDeserialization):
		return "key"
	case errors.Is(err, drand.ErrSignatureVerification):
		return "signature"
	case errors.Is(err, drand.ErrHashMismatch):
		return "randomness"
	default:
		return "other"
	}
}
