package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	coremetrics "github.com/parcelops/dispatchd/core/metrics"
	"github.com/parcelops/dispatchd/infra/logger"
)

// InfluxSink writes scoring, batching and packing events to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordScores writes each DPS computation as a point.
func (s *InfluxSink) RecordScores(records []coremetrics.ScoreRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range records {
		p := influxdb2.NewPointWithMeasurement("dps_score").
			AddTag("order_number", r.OrderNumber).
			AddTag("urgency", string(r.Urgency)).
			AddTag("overdue", strconv.FormatBool(r.Overdue)).
			AddTag("component", "queue_manager").
			AddField("score", round3(r.Score)).
			AddField("generation", r.Generation).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordBatchRecommendation writes a ranked recommendation as a point.
func (s *InfluxSink) RecordBatchRecommendation(ev coremetrics.BatchRecommendationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := influxdb2.NewPointWithMeasurement("batch_recommendation").
		AddTag("target_order", ev.TargetOrder).
		AddTag("type", ev.Type).
		AddTag("component", "batch_optimizer").
		AddField("orders", ev.Orders).
		AddField("time_savings", round3(ev.TimeSavings)).
		AddField("efficiency_gain", round3(ev.EfficiencyGain)).
		AddField("risk_score", round3(ev.RiskScore)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPackDuration writes a completed pack duration as a point.
func (s *InfluxSink) RecordPackDuration(ev coremetrics.PackDurationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := influxdb2.NewPointWithMeasurement("pack_session").
		AddTag("order_number", ev.OrderNumber).
		AddTag("worker", ev.Worker).
		AddTag("component", "pack_tracker").
		AddField("estimated_minutes", round3(ev.Estimated.Minutes())).
		AddField("actual_minutes", round3(ev.Actual.Minutes())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
