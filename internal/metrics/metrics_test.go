package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderObserveRun(t *testing.T) {
	rec := NewRecorder(prometheus.NewRegistry())

	rec.RunStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.activeRuns))

	rec.ObserveRun("FORMATTED", 10, 3, 2*time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.activeRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.runsTotal.WithLabelValues("FORMATTED")))
	assert.Equal(t, 10.0, testutil.ToFloat64(rec.emailsFetched))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.newslettersFound))

	rec.RunStarted()
	rec.ObserveRun("FAILED", 0, 0, time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.runsTotal.WithLabelValues("FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.runsTotal.WithLabelValues("FORMATTED")))
}
