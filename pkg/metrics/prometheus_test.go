package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordFetch("yahoo", 0.2, nil)
	r.RecordFetch("yahoo", 0.3, errors.New("timeout"))
	r.RecordError("forecast")
	r.RecordLastClose("AAPL", 187.5)

	if got := testutil.ToFloat64(r.fetchTotal.WithLabelValues("yahoo", "error")); got != 1 {
		t.Fatalf("fetch errors = %v", got)
	}
	if got := testutil.ToFloat64(r.lastClose.WithLabelValues("AAPL")); got != 187.5 {
		t.Fatalf("last close = %v", got)
	}
	if n := testutil.CollectAndCount(r.errorsTotal); n != 1 {
		t.Fatalf("errors series = %d", n)
	}
}
