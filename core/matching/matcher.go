package matching

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ngantchou/warap-ai-sub004/core/logger"
	"github.com/ngantchou/warap-ai-sub004/core/model"
)

// CandidateScore is the ephemeral scoring record for one (request,
// provider) pair. Each sub-score and Total are in [0,1].
type CandidateScore struct {
	ProviderID     string
	Total          float64
	Proximity      float64
	Rating         float64
	ResponseTime   float64
	Specialization float64
	Availability   float64
}

// ResponseHistory exposes past acceptance latencies for a provider. It is
// implemented by the provider store.
type ResponseHistory interface {
	HistoricalResponseTimes(ctx context.Context, providerID string, window time.Duration) ([]time.Duration, error)
}

// Matcher produces a deterministic, explainable ranking of eligible
// providers for one request.
type Matcher struct {
	cfg     Config
	history ResponseHistory
	logger  logger.Logger
}

// NewMatcher creates a matcher. history may be nil, in which case the
// response-time factor stays neutral for every provider.
func NewMatcher(cfg Config, history ResponseHistory, log logger.Logger) *Matcher {
	cfg.SetDefaults()
	return &Matcher{cfg: cfg, history: history, logger: log}
}

// FindEligible applies the hard constraints: active, available, minimum
// rating, service offered, geographic overlap and the active-job cap. An
// empty result is a normal outcome, not an error.
func (m *Matcher) FindEligible(req model.Request, pool []model.Provider) []model.Provider {
	keywords := m.ExtractLocationKeywords(req.Location)
	var eligible []model.Provider
	for _, p := range pool {
		if !p.IsActive || !p.IsAvailable {
			continue
		}
		if p.Rating < m.cfg.MinRating {
			continue
		}
		if !p.OffersService(req.ServiceType) {
			continue
		}
		if !p.CoversAny(keywords) {
			continue
		}
		if p.ActiveJobs >= m.cfg.MaxActiveJobs {
			continue
		}
		eligible = append(eligible, p)
	}
	m.logger.Debugf("eligibility: %d of %d providers for request %s", len(eligible), len(pool), req.ID)
	return eligible
}

// Rank scores the given providers and returns them sorted by descending
// total score, ties broken by ascending provider id for determinism.
func (m *Matcher) Rank(ctx context.Context, req model.Request, providers []model.Provider) []CandidateScore {
	keywords := m.ExtractLocationKeywords(req.Location)
	scores := make([]CandidateScore, 0, len(providers))
	for _, p := range providers {
		scores = append(scores, m.score(ctx, req, p, keywords))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		return scores[i].ProviderID < scores[j].ProviderID
	})
	return scores
}

// BestCandidates composes FindEligible and Rank and returns the top
// candidates, at most limit. limit <= 0 uses the configured default.
func (m *Matcher) BestCandidates(ctx context.Context, req model.Request, pool []model.Provider, limit int) []CandidateScore {
	if limit <= 0 {
		limit = m.cfg.CandidateLimit
	}
	ranked := m.Rank(ctx, req, m.FindEligible(req, pool))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func (m *Matcher) score(ctx context.Context, req model.Request, p model.Provider, keywords []string) CandidateScore {
	s := CandidateScore{
		ProviderID:     p.ID,
		Proximity:      m.proximityScore(p, keywords),
		Rating:         ratingScore(p),
		ResponseTime:   m.responseTimeScore(ctx, p.ID),
		Specialization: specializationScore(p, req.ServiceType),
		Availability:   availabilityScore(p.ActiveJobs),
	}
	w := m.cfg.Weights
	s.Total = clamp01(s.Proximity*w.Proximity +
		s.Rating*w.Rating +
		s.ResponseTime*w.ResponseTime +
		s.Specialization*w.Specialization +
		s.Availability*w.Availability)
	return s
}

// proximityScore is the overlap ratio between request keywords and
// coverage areas, with a bonus when both sides anchor on the primary zone.
func (m *Matcher) proximityScore(p model.Provider, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	overlap := 0
	for _, k := range keywords {
		if containsFold(p.CoverageAreas, k) {
			overlap++
		}
	}
	score := float64(overlap) / float64(len(keywords))
	if containsFold(keywords, m.cfg.PrimaryZone) && containsFold(p.CoverageAreas, m.cfg.PrimaryZone) {
		score += 0.2
	}
	return clamp01(score)
}

// ratingScore normalizes the 0-5 rating, with a bonus for providers with
// a proven track record.
func ratingScore(p model.Provider) float64 {
	score := p.Rating / 5
	if p.Rating >= 4.5 && p.TotalJobs >= 10 {
		score += 0.1
	}
	return clamp01(score)
}

// specializationScore rewards specialists: offering exactly the requested
// service scores 1.0, stepping down as the portfolio widens.
func specializationScore(p model.Provider, serviceType string) float64 {
	if !p.OffersService(serviceType) {
		return 0
	}
	switch countDistinctServices(p) {
	case 1:
		return 1.0
	case 2:
		return 0.9
	case 3:
		return 0.8
	default:
		return 0.7
	}
}

func countDistinctServices(p model.Provider) int {
	seen := make(map[string]struct{}, len(p.ServicesOffered))
	for _, s := range p.ServicesOffered {
		seen[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return len(seen)
}

// availabilityScore tiers the current workload. Providers at or above
// the concurrency cap never reach scoring.
func availabilityScore(activeJobs int) float64 {
	switch activeJobs {
	case 0:
		return 1.0
	case 1:
		return 0.8
	case 2:
		return 0.6
	default:
		return 0.2
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
