package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/s3check/internal/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"
)

const namespace = "s3check"

// PrometheusObserver records each run on a private registry and pushes it to
// a Pushgateway. A batch job has no scrape endpoint, so push is the only way
// out.
type PrometheusObserver struct {
	registry *prometheus.Registry
	pusher   *push.Pusher
	log      zerolog.Logger
	now      func() time.Time

	success   *prometheus.GaugeVec
	duration  *prometheus.GaugeVec
	timestamp *prometheus.GaugeVec
	bytes     *prometheus.GaugeVec
	failures  *prometheus.GaugeVec
}

// NewPrometheusObserver registers the run gauges. pushURL may be empty, in
// which case runs are recorded but never pushed.
func NewPrometheusObserver(pushURL, job string, log zerolog.Logger) (*PrometheusObserver, error) {
	if job == "" {
		job = namespace
	}
	o := &PrometheusObserver{
		registry: prometheus.NewRegistry(),
		log:      log,
		now:      time.Now,
		success: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last smoke test reached the done state, 0 otherwise.",
		}, []string{"bucket"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last smoke test.",
		}, []string{"bucket"}),
		timestamp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last smoke test finished.",
		}, []string{"bucket"}),
		bytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_uploaded_bytes",
			Help:      "Payload size uploaded by the last successful smoke test.",
		}, []string{"bucket"}),
		failures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_failed_step",
			Help:      "1 for the step the last smoke test aborted at.",
		}, []string{"bucket", "step"}),
	}

	for _, c := range []prometheus.Collector{o.success, o.duration, o.timestamp, o.bytes, o.failures} {
		if err := o.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	if pushURL != "" {
		o.pusher = push.New(pushURL, job).Gatherer(o.registry)
	}
	return o, nil
}

// Registry exposes the underlying registry.
func (o *PrometheusObserver) Registry() *prometheus.Registry { return o.registry }

// ObserveRun records r and pushes it when a Pushgateway is configured. Push
// failures are logged only.
func (o *PrometheusObserver) ObserveRun(ctx context.Context, r workflow.Result) {
	if o == nil {
		return
	}

	o.failures.Reset()
	success := 0.0
	uploaded := 0.0
	if r.OK() {
		success = 1
		uploaded = float64(r.Bytes)
	} else {
		o.failures.WithLabelValues(r.Bucket, r.FailedAt.String()).Set(1)
	}

	o.success.WithLabelValues(r.Bucket).Set(success)
	o.duration.WithLabelValues(r.Bucket).Set(r.Duration.Seconds())
	o.timestamp.WithLabelValues(r.Bucket).Set(float64(o.now().Unix()))
	o.bytes.WithLabelValues(r.Bucket).Set(uploaded)

	if o.pusher == nil {
		return
	}
	if err := o.pusher.PushContext(ctx); err != nil {
		o.log.Warn().Err(err).Msg("failed to push metrics")
		return
	}
	o.log.Debug().Msg("pushed run metrics")
}

var _ workflow.Observer = (*PrometheusObserver)(nil)
