package prom

import (
	"errors"
	"fmt"
	"io"

	"github.com/bnema/feedlink/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "feedlink"

// Recorder counts invocation attempts, resolution passes and message
// deliveries.
type Recorder struct {
	attempts      *prometheus.CounterVec
	reresolutions *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
}

var _ ports.Recorder = (*Recorder)(nil)

func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocation_attempts_total",
			Help:      "Remote invocation attempts by operation and result.",
		}, []string{"op", "result"}),
		reresolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reresolutions_total",
			Help:      "Resolution passes triggered by a failed attempt.",
		}, []string{"result"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolution passes by outcome.",
		}, []string{"outcome"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_deliveries_total",
			Help:      "Message sends by delivery outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []**prometheus.CounterVec{&r.attempts, &r.reresolutions, &r.resolutions, &r.deliveries} {
		registered, err := register(reg, *c)
		if err != nil {
			return nil, err
		}
		*c = registered
	}

	return r, nil
}

// register reuses a counter already registered under the same name so two
// recorders on one registry share their series.
func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}

	return nil, fmt.Errorf("register metrics: %w", err)
}

func (r *Recorder) Attempt(op string, err error) {
	r.attempts.WithLabelValues(op, result(err)).Inc()
}

func (r *Recorder) Reresolution(err error) {
	r.reresolutions.WithLabelValues(result(err)).Inc()
}

func (r *Recorder) Resolution(outcome string) {
	r.resolutions.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Delivery(outcome string) {
	r.deliveries.WithLabelValues(outcome).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Dump writes every gathered family in the text exposition format.
func Dump(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}
