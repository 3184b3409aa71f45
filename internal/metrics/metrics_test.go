package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveResult(t *testing.T) {
	before := testutil.ToFloat64(Requests.WithLabelValues("metrics_test"))
	beforeDegraded := testutil.ToFloat64(Degraded.WithLabelValues("metrics_test"))

	ObserveResult("metrics_test", 3, false)
	ObserveResult("metrics_test", 0, true)

	if got := testutil.ToFloat64(Requests.WithLabelValues("metrics_test")); got != before+2 {
		t.Errorf("Requests = %v, want %v", got, before+2)
	}
	if got := testutil.ToFloat64(Degraded.WithLabelValues("metrics_test")); got != beforeDegraded+1 {
		t.Errorf("Degraded = %v, want %v", got, beforeDegraded+1)
	}
}

func TestHTTPCollectors(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/test", "GET", "200"))
	HTTPRequests.WithLabelValues("/test", "GET", "200").Inc()
	HTTPDuration.WithLabelValues("/test").Observe(0.01)

	if got := testutil.ToFloat64(HTTPRequests.WithLabelValues("/test", "GET", "200")); got != before+1 {
		t.Errorf("HTTPRequests = %v, want %v", got, before+1)
	}
}
