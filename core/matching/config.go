package matching

import "fmt"

// Weights define the relative importance of each scoring factor. They
// should sum to 1; the total score is clamped to [0,1] regardless.
type Weights struct {
	Proximity      float64 `json:"proximity"`
	Rating         float64 `json:"rating"`
	ResponseTime   float64 `json:"response_time"`
	Specialization float64 `json:"specialization"`
	Availability   float64 `json:"availability"`
}

// Config defines matching thresholds and the location heuristic data.
type Config struct {
	Weights Weights `json:"weights"`
	// MinRating excludes providers rated below this value. Zero keeps
	// new providers eligible.
	MinRating float64 `json:"min_rating"`
	// MaxActiveJobs excludes providers with this many or more requests
	// currently assigned or in progress.
	MaxActiveJobs int `json:"max_active_jobs"`
	// CandidateLimit caps the ranked list returned by BestCandidates.
	CandidateLimit int `json:"candidate_limit"`
	// HistoryWindowDays bounds the historical response times considered
	// for the response-time factor.
	HistoryWindowDays int `json:"history_window_days"`
	// LocationKeywords is the dictionary of known neighborhood and
	// landmark tokens scanned for in free-text locations.
	LocationKeywords []string `json:"location_keywords"`
	// PrimaryZone is assumed when no keyword matches, so a request is
	// never un-locatable. Requests and providers both anchored in the
	// primary zone earn a proximity bonus.
	PrimaryZone string `json:"primary_zone"`
}

// SetDefaults applies the production defaults for the Douala deployment.
func (c *Config) SetDefaults() {
	if c.Weights == (Weights{}) {
		c.Weights = Weights{
			Proximity:      0.30,
			Rating:         0.25,
			ResponseTime:   0.20,
			Specialization: 0.15,
			Availability:   0.10,
		}
	}
	if c.MaxActiveJobs == 0 {
		c.MaxActiveJobs = 3
	}
	if c.CandidateLimit == 0 {
		c.CandidateLimit = 3
	}
	if c.HistoryWindowDays == 0 {
		c.HistoryWindowDays = 30
	}
	if len(c.LocationKeywords) == 0 {
		c.LocationKeywords = []string{
			"bonamoussadi", "makepe", "akwa", "bonapriso", "bonanjo",
			"deido", "bali", "bepanda", "ndokotti", "logbessou",
			"kotto", "bonaberi", "new bell", "cite sic", "logpom",
			"pk8", "pk10", "village", "denver", "santa barbara",
		}
	}
	if c.PrimaryZone == "" {
		c.PrimaryZone = "bonamoussadi"
	}
}

// Validate checks threshold boundaries.
func (c Config) Validate() error {
	for name, w := range map[string]float64{
		"proximity":      c.Weights.Proximity,
		"rating":         c.Weights.Rating,
		"response_time":  c.Weights.ResponseTime,
		"specialization": c.Weights.Specialization,
		"availability":   c.Weights.Availability,
	} {
		if w < 0 {
			return fmt.Errorf("weight %s must not be negative", name)
		}
	}
	if c.MinRating < 0 || c.MinRating > 5 {
		return fmt.Errorf("min_rating must be within [0,5]")
	}
	if c.MaxActiveJobs < 0 {
		return fmt.Errorf("max_active_jobs must not be negative")
	}
	if c.CandidateLimit < 0 {
		return fmt.Errorf("candidate_limit must not be negative")
	}
	return nil
}
