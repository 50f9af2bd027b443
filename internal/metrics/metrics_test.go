package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.PublicationTransition("Publicado")
	m.PublicationTransition("Publicado")
	m.Throttled("create_publication")
	m.WorkerRun("close_expired", nil)
	m.WorkerRun("close_expired", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PublicationTransitions.WithLabelValues("Publicado")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThrottleRejections.WithLabelValues("create_publication")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkerRuns.WithLabelValues("close_expired", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkerRuns.WithLabelValues("close_expired", "error")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PublicationTransition("Cerrado")
		m.ReviewSubmitted("student")
		m.Throttled("apply")
		m.NotificationFailed("email")
		m.WorkerRun("cleanup", nil)
	})
}
