package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSearch(t *testing.T) {
	succeeded := testutil.ToFloat64(SearchesTotal.WithLabelValues("succeeded"))
	failed := testutil.ToFloat64(SearchesTotal.WithLabelValues("failed"))

	ObserveSearch("succeeded", 40, 12)
	ObserveSearch("failed", 7, 0)

	assert.Equal(t, succeeded+1, testutil.ToFloat64(SearchesTotal.WithLabelValues("succeeded")))
	assert.Equal(t, failed+1, testutil.ToFloat64(SearchesTotal.WithLabelValues("failed")))
}

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/sessions", "GET", "200"))

	ObserveRequest("/api/sessions", "GET", 200, 3*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/sessions", "GET", "200")))
}
