package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	t.Run("reconcile outcomes", func(t *testing.T) {
		before := testutil.ToFloat64(ReconcileEventsTotal.WithLabelValues("duplicate"))
		r.RecordReconcile("duplicate", 15*time.Millisecond)
		r.RecordReconcile("duplicate", 5*time.Millisecond)
		assert.Equal(t, before+2, testutil.ToFloat64(ReconcileEventsTotal.WithLabelValues("duplicate")))
	})

	t.Run("transitions label an empty source as none", func(t *testing.T) {
		before := testutil.ToFloat64(TransitionsTotal.WithLabelValues("none", "ACTIVA", "gateway"))
		r.RecordTransition("", vo.StatusActive, vo.ActorGateway)
		assert.Equal(t, before+1, testutil.ToFloat64(TransitionsTotal.WithLabelValues("none", "ACTIVA", "gateway")))
	})

	t.Run("sweep results", func(t *testing.T) {
		before := testutil.ToFloat64(SweepResultsTotal.WithLabelValues("escalated"))
		r.RecordSweep(3, 0, 1)
		assert.Equal(t, before+3, testutil.ToFloat64(SweepResultsTotal.WithLabelValues("escalated")))
	})

	t.Run("notifications", func(t *testing.T) {
		before := testutil.ToFloat64(NotificationsTotal.WithLabelValues("email", "skipped"))
		r.RecordNotification("email", "skipped")
		assert.Equal(t, before+1, testutil.ToFloat64(NotificationsTotal.WithLabelValues("email", "skipped")))
	})
}
