package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/parcelops/dispatchd/core/metrics"
	"github.com/parcelops/dispatchd/core/model"
)

func TestInfluxSink_RecordScores(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	rec := coremetrics.ScoreRecord{
		OrderNumber: "ORD-1",
		Score:       87.5,
		Urgency:     model.UrgencyCritical,
		Overdue:     true,
		Generation:  3,
		Time:        now,
	}
	if err := sink.RecordScores([]coremetrics.ScoreRecord{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}

	p := influxdb2.NewPointWithMeasurement("dps_score").
		AddTag("order_number", "ORD-1").
		AddTag("urgency", "critical").
		AddTag("overdue", "true").
		AddTag("component", "queue_manager").
		AddField("score", 87.5).
		AddField("generation", 3).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxSink_RecordPackDuration(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	err := sink.RecordPackDuration(coremetrics.PackDurationEvent{
		OrderNumber: "ORD-2",
		Worker:      "sam",
		Estimated:   10 * time.Minute,
		Actual:      12 * time.Minute,
		Time:        now,
	})
	if err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.Contains(body, "pack_session") || !strings.Contains(body, "worker=sam") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL, "t", "o", "b")
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink fallback, got %T", sink)
	}
}
