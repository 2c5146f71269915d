package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	coremetrics "github.com/ngantchou/warap-ai-sub004/core/metrics"
	"github.com/ngantchou/warap-ai-sub004/infra/logger"
)

// InfluxSink writes dispatch events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB
// endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
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

// Close shuts down the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// RecordDispatchOutcome writes each outcome as a point.
func (s *InfluxSink) RecordDispatchOutcome(res []coremetrics.DispatchOutcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range res {
		p := influxdb2.NewPoint("dispatch_outcome",
			map[string]string{
				"provider_id":  r.ProviderID,
				"service_type": r.ServiceType,
				"state":        r.State,
			},
			map[string]interface{}{
				"request_id":    r.RequestID,
				"attempt_index": r.AttemptIndex,
				"score":         r.Score,
				"latency_ms":    r.Latency.Milliseconds(),
			},
			r.Time,
		)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordNotification writes each outbound notification as a point.
func (s *InfluxSink) RecordNotification(ev coremetrics.NotificationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := influxdb2.NewPoint("dispatch_notification",
		map[string]string{
			"provider_id":  ev.ProviderID,
			"service_type": ev.ServiceType,
		},
		map[string]interface{}{
			"request_id":    ev.RequestID,
			"attempt_index": ev.AttemptIndex,
		},
		ev.Time,
	)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordResponseLatency writes reply latencies.
func (s *InfluxSink) RecordResponseLatency(recs []coremetrics.ResponseLatency) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range recs {
		p := influxdb2.NewPoint("dispatch_response_latency",
			map[string]string{
				"provider_id":  r.ProviderID,
				"service_type": r.ServiceType,
				"accepted":     strconv.FormatBool(r.Accepted),
			},
			map[string]interface{}{
				"latency_ms": r.Latency.Milliseconds(),
			},
			time.Now(),
		)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordDispatchRun writes the run summary.
func (s *InfluxSink) RecordDispatchRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := influxdb2.NewPoint("dispatch_run",
		map[string]string{
			"outcome": ev.Outcome,
			"status":  ev.Status.String(),
		},
		map[string]interface{}{
			"request_id": ev.RequestID,
			"candidates": ev.Candidates,
			"attempts":   ev.Attempts,
		},
		ev.Time,
	)
	return s.writeAPI.WritePoint(ctx, p)
}
