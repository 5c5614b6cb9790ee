// Package metrics exposes scheduler and detector activity to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ColonelBlimp/dtmfscope/internal/dsp"
)

const namespace = "dtmfscope"

// Skip reasons used as the "reason" label
const (
	ReasonSource = "source"
	ReasonEmpty  = "empty"
	ReasonDetect = "detect"
	ReasonSink   = "sink"
)

// Metrics holds the collectors. All methods are safe on a nil *Metrics,
// which is how callers run without instrumentation.
type Metrics struct {
	ticks        prometheus.Counter
	skipped      *prometheus.CounterVec
	samples      prometheus.Counter
	dropped      prometheus.Counter
	tickDuration prometheus.Histogram
	magnitude    *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Analysis ticks that published a result.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped_total",
			Help:      "Analysis ticks that kept the previous result.",
		}, []string{"reason"}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_analyzed_total",
			Help:      "PCM samples passed through the detector bank.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loopback_dropped_samples_total",
			Help:      "Samples discarded because the loopback buffer was full.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one analysis tick.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
		}),
		magnitude: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "magnitude",
			Help:      "Latest Goertzel magnitude per DTMF frequency.",
		}, []string{"frequency"}),
	}

	for _, c := range []prometheus.Collector{m.ticks, m.skipped, m.samples, m.dropped, m.tickDuration, m.magnitude} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveTick records a published result
func (m *Metrics) ObserveTick(elapsed time.Duration, samples int, r dsp.Result) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.samples.Add(float64(samples))
	m.tickDuration.Observe(elapsed.Seconds())
	for _, f := range dsp.Frequencies {
		mag, _ := r.At(f)
		m.magnitude.WithLabelValues(frequencyLabel(f)).Set(mag)
	}
}

// SkipTick records a tick that kept the previous result
func (m *Metrics) SkipTick(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

// DropSamples records loopback overflow
func (m *Metrics) DropSamples(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.Add(float64(n))
}

func frequencyLabel(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Serve exposes g on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log logrus.FieldLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
