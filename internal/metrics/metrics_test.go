package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// gatherCounter はレジストリから指定カウンターの現在値を取得する。
func gatherCounter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %q not found", name)
	return 0
}

// gatherGauge はレジストリから指定ゲージの現在値を取得する。
func gatherGauge(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %q not found", name)
	return 0
}

// TestRecordLoginResults はログイン成功・失敗のカウンターを検証する。
func TestRecordLoginResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginSuccess("a@x.com")
	c.RecordLoginSuccess("b@x.com")
	c.RecordLoginFailure("a@x.com")

	if got := gatherCounter(t, reg, "cdrwatch_login_success_total"); got != 2 {
		t.Errorf("login_success_total = %v, want 2", got)
	}
	if got := gatherCounter(t, reg, "cdrwatch_login_fail_total"); got != 1 {
		t.Errorf("login_fail_total = %v, want 1", got)
	}
}

// TestRecordFetchedRecords は戦略ラベル別の取得件数カウンターを検証する。
func TestRecordFetchedRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchedRecords("structured", 3)
	c.RecordFetchedRecords("structured", 2)
	c.RecordFetchedRecords("html", 1)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	values := make(map[string]float64)
	for _, mf := range mfs {
		if mf.GetName() != "cdrwatch_records_fetched_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "strategy" {
					values[label.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}

	if values["structured"] != 5 {
		t.Errorf("structured = %v, want 5", values["structured"])
	}
	if values["html"] != 1 {
		t.Errorf("html = %v, want 1", values["html"])
	}
}

// TestRecordFetchLatency はヒストグラムへの観測が記録されることを検証する。
func TestRecordFetchLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchLatency(150 * time.Millisecond)
	c.RecordFetchLatency(300 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() != "cdrwatch_cycle_latency_seconds" {
			continue
		}
		found = true
		h := mf.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() != 2 {
			t.Errorf("sample count = %d, want 2", h.GetSampleCount())
		}
	}
	if !found {
		t.Fatal("histogram metric not found")
	}
}

// TestDispatchCounters は配信結果のカウンターとゲージを検証する。
func TestDispatchCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDispatched()
	c.RecordDispatched()
	c.RecordDispatchFailure()
	c.RecordDuplicate()
	c.RecordDuplicate()
	c.RecordDuplicate()
	c.SetSeenIdentities(42)

	if got := gatherCounter(t, reg, "cdrwatch_dispatched_total"); got != 2 {
		t.Errorf("dispatched_total = %v, want 2", got)
	}
	if got := gatherCounter(t, reg, "cdrwatch_dispatch_fail_total"); got != 1 {
		t.Errorf("dispatch_fail_total = %v, want 1", got)
	}
	if got := gatherCounter(t, reg, "cdrwatch_duplicates_total"); got != 3 {
		t.Errorf("duplicates_total = %v, want 3", got)
	}
	if got := gatherGauge(t, reg, "cdrwatch_seen_identities"); got != 42 {
		t.Errorf("seen_identities = %v, want 42", got)
	}
}

// TestHandler はスクレイプエンドポイントが登録済みメトリクスを出力することを検証する。
func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordLoginSuccess("a@x.com")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "cdrwatch_login_success_total 1") {
		t.Errorf("scrape output missing counter:\n%s", rec.Body.String())
	}
}

// TestCollectorInterface はCollectorがMetricsCollectorを実装していることを検証する。
func TestCollectorInterface(t *testing.T) {
	var _ MetricsCollector = NewCollector(prometheus.NewRegistry())
}
