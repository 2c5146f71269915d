package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ngantchou/warap-ai-sub004/core/events"
	"github.com/ngantchou/warap-ai-sub004/core/gateway"
	"github.com/ngantchou/warap-ai-sub004/core/logger"
	"github.com/ngantchou/warap-ai-sub004/core/matching"
	"github.com/ngantchou/warap-ai-sub004/core/metrics"
	"github.com/ngantchou/warap-ai-sub004/core/model"
	"github.com/ngantchou/warap-ai-sub004/core/store"
	"github.com/ngantchou/warap-ai-sub004/internal/eventbus"
)

// DispatchManager drives the dispatch run for a request: match once,
// then notify the ranked candidates sequentially until one accepts or
// the list is exhausted.
type DispatchManager struct {
	matcher    *matching.Matcher
	gw         gateway.Gateway
	requests   store.RequestStore
	providers  store.ProviderStore
	registry   *Registry
	classifier *Classifier

	responseTimeout time.Duration
	pollInterval    time.Duration
	candidateLimit  int

	logger  logger.Logger
	metrics metrics.MetricsSink
	bus     eventbus.EventBus
}

// NewDispatchManager creates a new manager. sink and bus may be nil.
func NewDispatchManager(matcher *matching.Matcher, gw gateway.Gateway, requests store.RequestStore, providers store.ProviderStore, cfg Config, sink metrics.MetricsSink, bus eventbus.EventBus, log logger.Logger) (*DispatchManager, error) {
	if matcher == nil || gw == nil || requests == nil || providers == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewDispatchManager")
	}
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &DispatchManager{
		matcher:         matcher,
		gw:              gw,
		requests:        requests,
		providers:       providers,
		registry:        NewRegistry(),
		classifier:      NewClassifier(cfg.AffirmativeTokens, cfg.NegativeTokens),
		responseTimeout: time.Duration(cfg.ResponseTimeoutSeconds) * time.Second,
		pollInterval:    time.Duration(cfg.PollIntervalSeconds) * time.Second,
		candidateLimit:  cfg.CandidateLimit,
		logger:          log,
		metrics:         sink,
		bus:             bus,
	}, nil
}

// Registry exposes the in-flight notification registry, mainly for
// inbound routing and tests.
func (m *DispatchManager) Registry() *Registry { return m.registry }

// Dispatch runs the full protocol for one request. The returned error is
// reserved for collaborator read failures; "no providers" and
// "exhausted" are Outcome variants, not errors.
func (m *DispatchManager) Dispatch(ctx context.Context, req model.Request) (Outcome, error) {
	m.setStatus(ctx, req.ID, model.StatusSearching)

	pool, err := m.providers.ListProviderPool(ctx, req.ServiceType, req.Location)
	if err != nil {
		return Outcome{}, fmt.Errorf("list provider pool: %w", err)
	}
	candidates := m.matcher.BestCandidates(ctx, req, pool, m.candidateLimit)
	if len(candidates) == 0 {
		m.logger.Infof("no providers available for request %s (%s)", req.ID, req.ServiceType)
		m.notifyRequester(ctx, req, requesterNoProviders(req))
		m.setStatus(ctx, req.ID, model.StatusSearchFailed)
		out := Outcome{Kind: OutcomeNoProviders}
		m.finishRun(req, out, len(candidates))
		return out, nil
	}
	m.logger.Infof("dispatching request %s to %d candidates", req.ID, len(candidates))

	attempts := 0
	for i, cand := range candidates {
		provider, err := m.providers.GetProvider(ctx, cand.ProviderID)
		if err != nil {
			m.logger.Errorf("provider snapshot %s: %v", cand.ProviderID, err)
			continue
		}
		attempts++
		final := m.notifyAndWait(ctx, req, provider, cand, i)
		m.recordOutcome(req, cand, final)

		switch final.State {
		case StateAccepted:
			m.assign(ctx, req, provider)
			out := Outcome{Kind: OutcomeAssigned, ProviderID: provider.ID, Attempts: attempts}
			m.finishRun(req, out, len(candidates))
			return out, nil
		case StateAbandoned:
			m.setStatus(ctx, req.ID, model.StatusCancelled)
			out := Outcome{Kind: OutcomeCancelled, Attempts: attempts}
			m.finishRun(req, out, len(candidates))
			return out, nil
		default:
			m.logger.Infof("candidate %s for request %s ended %s, trying next",
				provider.ID, req.ID, final.State)
		}
	}

	m.notifyRequester(ctx, req, requesterDelay(req))
	m.setStatus(ctx, req.ID, model.StatusSearchFailed)
	out := Outcome{Kind: OutcomeExhausted, Attempts: attempts}
	m.finishRun(req, out, len(candidates))
	return out, nil
}

// notifyAndWait sends the notification to one candidate and blocks until
// its record reaches a terminal state or the response window closes.
func (m *DispatchManager) notifyAndWait(ctx context.Context, req model.Request, provider model.Provider, cand matching.CandidateScore, attempt int) DispatchRecord {
	rec := DispatchRecord{
		NotificationID: uuid.NewString(),
		RequestID:      req.ID,
		ProviderID:     provider.ID,
		Address:        provider.Address,
		State:          StatePending,
		AttemptIndex:   attempt,
	}

	text := providerNotification(req, m.responseTimeout)
	if err := m.gw.SendText(ctx, provider.Address, text); err != nil {
		gatewayFailure.Inc()
		m.logger.Warnf("delivery to provider %s failed: %v", provider.ID, err)
		rec.State = StateFailed
		return rec
	}
	gatewaySuccess.Inc()

	rec.State = StateSent
	rec.SentAt = time.Now()
	entry := m.registry.Register(rec)
	activeNotifications.Inc()
	defer func() {
		m.registry.Unregister(req.ID)
		activeNotifications.Dec()
	}()

	if m.bus != nil {
		m.bus.Publish(events.NotificationEvent{
			RequestID:    req.ID,
			ProviderID:   provider.ID,
			AttemptIndex: attempt,
			Time:         rec.SentAt,
		})
	}
	if nr, ok := m.metrics.(metrics.NotificationRecorder); ok {
		if err := nr.RecordNotification(metrics.NotificationEvent{
			RequestID:    req.ID,
			ProviderID:   provider.ID,
			ServiceType:  req.ServiceType,
			AttemptIndex: attempt,
			Time:         rec.SentAt,
		}); err != nil {
			m.logger.Errorf("notification metrics error: %v", err)
		}
	}

	return m.waitForOutcome(ctx, entry)
}

// waitForOutcome blocks until the entry reaches a terminal state. The
// done channel wakes the waiter as soon as a response transitions the
// record; the ticker bounds observation latency for cancellation; the
// timer closes the response window. Timeout and cancellation use the
// same compare-and-set as ProcessResponse, so a response racing the
// timer loses cleanly or wins cleanly, never both.
func (m *DispatchManager) waitForOutcome(ctx context.Context, entry *Entry) DispatchRecord {
	timeout := time.NewTimer(m.responseTimeout)
	defer timeout.Stop()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-entry.Done():
			return entry.Snapshot()
		case <-ticker.C:
			if rec := entry.Snapshot(); rec.State.Terminal() {
				return rec
			}
		case <-timeout.C:
			entry.Transition(StateSent, StateTimeout, "", time.Now())
			return entry.Snapshot()
		case <-ctx.Done():
			entry.Transition(StateSent, StateAbandoned, "", time.Now())
			return entry.Snapshot()
		}
	}
}

// assign commits the acceptance: status write, provider binding and the
// requester notice. Each write is committed immediately so external
// readers observe the assignment without waiting for the run to end.
func (m *DispatchManager) assign(ctx context.Context, req model.Request, provider model.Provider) {
	m.setStatus(ctx, req.ID, model.StatusAssigned)
	if err := m.requests.BindProvider(ctx, req.ID, provider.ID); err != nil {
		m.logger.Errorf("bind provider %s to request %s: %v", provider.ID, req.ID, err)
	}
	m.notifyRequester(ctx, req, requesterMatched(req, provider))
	m.logger.Infof("request %s assigned to provider %s", req.ID, provider.ID)
}

func (m *DispatchManager) setStatus(ctx context.Context, requestID string, status model.RequestStatus) {
	if err := m.requests.SetRequestStatus(ctx, requestID, status); err != nil {
		m.logger.Errorf("set request %s status %s: %v", requestID, status, err)
	}
}

func (m *DispatchManager) notifyRequester(ctx context.Context, req model.Request, text string) {
	if req.RequesterAddress == "" {
		return
	}
	if err := m.gw.SendText(ctx, req.RequesterAddress, text); err != nil {
		m.logger.Errorf("notify requester for %s: %v", req.ID, err)
	}
}

// recordOutcome persists the terminal state of one notification attempt.
func (m *DispatchManager) recordOutcome(req model.Request, cand matching.CandidateScore, rec DispatchRecord) {
	var latency time.Duration
	if !rec.RespondedAt.IsZero() && !rec.SentAt.IsZero() {
		latency = rec.RespondedAt.Sub(rec.SentAt)
	}
	outcome := metrics.DispatchOutcome{
		RequestID:    req.ID,
		ProviderID:   rec.ProviderID,
		ServiceType:  req.ServiceType,
		State:        rec.State.String(),
		AttemptIndex: rec.AttemptIndex,
		Score:        cand.Total,
		Latency:      latency,
		Time:         time.Now(),
	}
	if err := m.metrics.RecordDispatchOutcome([]metrics.DispatchOutcome{outcome}); err != nil {
		m.logger.Errorf("outcome metrics error: %v", err)
	}
	if lr, ok := m.metrics.(metrics.LatencyRecorder); ok && latency > 0 {
		if err := lr.RecordResponseLatency([]metrics.ResponseLatency{{
			ProviderID:  rec.ProviderID,
			ServiceType: req.ServiceType,
			Accepted:    rec.State == StateAccepted,
			Latency:     latency,
		}}); err != nil {
			m.logger.Errorf("latency metrics error: %v", err)
		}
	}
}

// finishRun publishes the run summary on the bus and the metrics sink.
func (m *DispatchManager) finishRun(req model.Request, out Outcome, candidates int) {
	if m.bus != nil {
		m.bus.Publish(events.OutcomeEvent{
			RequestID:  req.ID,
			ProviderID: out.ProviderID,
			Outcome:    out.Kind.String(),
			Attempts:   out.Attempts,
		})
	}
	if rr, ok := m.metrics.(metrics.RunRecorder); ok {
		if err := rr.RecordDispatchRun(metrics.RunEvent{
			RequestID:  req.ID,
			Outcome:    out.Kind.String(),
			Candidates: candidates,
			Attempts:   out.Attempts,
			Status:     statusForOutcome(out.Kind),
			Time:       time.Now(),
		}); err != nil {
			m.logger.Errorf("run metrics error: %v", err)
		}
	}
}

// statusForOutcome maps a run outcome to the request status it leaves
// behind in the store.
func statusForOutcome(k OutcomeKind) model.RequestStatus {
	switch k {
	case OutcomeAssigned:
		return model.StatusAssigned
	case OutcomeCancelled:
		return model.StatusCancelled
	default:
		return model.StatusSearchFailed
	}
}
