package internal

import (
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordBackendRequest(t *testing.T) {
	before := promtestutil.ToFloat64(BackendRequestsTotal.WithLabelValues("public", "200"))
	beforeErr := promtestutil.ToFloat64(BackendRequestsTotal.WithLabelValues("public", "error"))

	RecordBackendRequest("public", 200, 10*time.Millisecond)
	RecordBackendRequest("public", 0, time.Millisecond)

	assert.Equal(t, before+1, promtestutil.ToFloat64(BackendRequestsTotal.WithLabelValues("public", "200")))
	assert.Equal(t, beforeErr+1, promtestutil.ToFloat64(BackendRequestsTotal.WithLabelValues("public", "error")))
}

func TestRecordLoginRedirect(t *testing.T) {
	before := promtestutil.ToFloat64(LoginRedirectsTotal.WithLabelValues("no_session"))
	RecordLoginRedirect("no_session")
	assert.Equal(t, before+1, promtestutil.ToFloat64(LoginRedirectsTotal.WithLabelValues("no_session")))
}

func TestRecordActionResult(t *testing.T) {
	before := promtestutil.ToFloat64(ActionResultsTotal.WithLabelValues("getSettings", "redirect"))
	RecordActionResult("getSettings", OutcomeRedirect)
	assert.Equal(t, before+1, promtestutil.ToFloat64(ActionResultsTotal.WithLabelValues("getSettings", "redirect")))
}
