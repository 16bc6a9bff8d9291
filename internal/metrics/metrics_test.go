package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPollsTotalByOutcome(t *testing.T) {
	before := testutil.ToFloat64(PollsTotal.WithLabelValues("fallback"))
	PollsTotal.WithLabelValues("fallback").Inc()
	if got := testutil.ToFloat64(PollsTotal.WithLabelValues("fallback")); got != before+1 {
		t.Errorf("fallback polls = %v, want %v", got, before+1)
	}
}

func TestBreakerStateGauge(t *testing.T) {
	SourceBreakerState.WithLabelValues("test-source").Set(2)
	if got := testutil.ToFloat64(SourceBreakerState.WithLabelValues("test-source")); got != 2 {
		t.Errorf("breaker state = %v, want 2", got)
	}
	SourceBreakerState.DeleteLabelValues("test-source")
}
