package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func counterWithLabel(mf *dto.MetricFamily, value string) float64 {
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestCollector_AuthCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(ResultSuccess)
	c.RecordLogin(ResultSuccess)
	c.RecordLogin(ResultRejected)
	c.RecordVerification(ResultError)
	c.RecordRefresh(ResultSuccess)
	c.RecordLogout(ResultSuccess)

	logins := findFamily(t, reg, "music_auth_logins_total")
	assert.Equal(t, float64(2), counterWithLabel(logins, ResultSuccess))
	assert.Equal(t, float64(1), counterWithLabel(logins, ResultRejected))

	verifications := findFamily(t, reg, "music_auth_token_verifications_total")
	assert.Equal(t, float64(1), counterWithLabel(verifications, ResultError))

	assert.Equal(t, float64(1), counterWithLabel(findFamily(t, reg, "music_auth_refreshes_total"), ResultSuccess))
	assert.Equal(t, float64(1), counterWithLabel(findFamily(t, reg, "music_auth_logouts_total"), ResultSuccess))
}

func TestCollector_PlainCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRateLimited()
	c.RecordRevocationsPurged(3)
	c.RecordRevocationsPurged(0)

	limited := findFamily(t, reg, "music_auth_login_rate_limited_total")
	assert.Equal(t, float64(1), limited.GetMetric()[0].GetCounter().GetValue())

	purged := findFamily(t, reg, "music_auth_revocations_purged_total")
	assert.Equal(t, float64(3), purged.GetMetric()[0].GetCounter().GetValue())
}

func TestCollector_RecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest(http.MethodPost, http.StatusOK, 20*time.Millisecond)

	mf := findFamily(t, reg, "music_http_request_duration_seconds")
	require.Len(t, mf.GetMetric(), 1)
	assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordLogin(ResultSuccess)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "music_auth_logins_total")
}
