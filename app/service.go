package app

import (
	"context"
	"fmt"

	"github.com/ngantchou/warap-ai-sub004/config"
	"github.com/ngantchou/warap-ai-sub004/core/dispatch"
	"github.com/ngantchou/warap-ai-sub004/core/events"
	"github.com/ngantchou/warap-ai-sub004/core/gateway"
	"github.com/ngantchou/warap-ai-sub004/core/matching"
	coremetrics "github.com/ngantchou/warap-ai-sub004/core/metrics"
	"github.com/ngantchou/warap-ai-sub004/core/store"
	"github.com/ngantchou/warap-ai-sub004/infra/logger"
	"github.com/ngantchou/warap-ai-sub004/infra/metrics"
	"github.com/ngantchou/warap-ai-sub004/infra/mqtt"
	"github.com/ngantchou/warap-ai-sub004/internal/eventbus"
)

// Service wires the store, matcher, dispatch manager and gateway bridge
// together and routes inbound provider replies to the manager.
type Service struct {
	Manager *dispatch.DispatchManager
	Store   *store.MemoryStore

	gw          *mqtt.PahoGateway
	bus         eventbus.EventBus
	outcomes    *eventbus.TypedBus[events.OutcomeEvent]
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	gw, err := mqtt.NewPahoGateway(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt gateway: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	st := store.NewMemoryStore()
	matcher := matching.NewMatcher(cfg.Matching, st, logger.New("matching"))
	bus := eventbus.New()
	manager, err := dispatch.NewDispatchManager(matcher, gw, st, st, cfg.Dispatch, sink, bus, logger.New("dispatch"))
	if err != nil {
		return nil, fmt.Errorf("dispatch manager: %w", err)
	}
	gw.SetInboundHandler(func(msg gateway.InboundMessage) {
		manager.ProcessResponse(msg)
	})

	return &Service{
		Manager:     manager,
		Store:       st,
		gw:          gw,
		bus:         bus,
		outcomes:    eventbus.NewTyped[events.OutcomeEvent](),
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Outcomes exposes the terminal dispatch outcomes as a typed feed.
func (s *Service) Outcomes() <-chan events.OutcomeEvent {
	return s.outcomes.Subscribe()
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, ":"+s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go s.watchEvents(ctx)
	<-ctx.Done()
	return nil
}

// watchEvents logs pipeline events and republishes terminal outcomes on
// the typed feed.
func (s *Service) watchEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			switch ev := e.(type) {
			case events.NotificationEvent:
				s.log.Infof("request %s: notified provider %s (attempt %d)", ev.RequestID, ev.ProviderID, ev.AttemptIndex)
			case events.ResponseEvent:
				s.log.Infof("request %s: provider %s replied %s after %s", ev.RequestID, ev.ProviderID, ev.Verdict, ev.Latency)
			case events.OutcomeEvent:
				s.log.Infof("request %s: outcome %s after %d attempt(s)", ev.RequestID, ev.Outcome, ev.Attempts)
				s.outcomes.Publish(ev)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.gw.Disconnect()
	s.outcomes.Close()
	s.bus.Close()
	return nil
}
