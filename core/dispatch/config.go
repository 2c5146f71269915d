package dispatch

import "fmt"

// Config defines dispatch-related settings.
type Config struct {
	// ResponseTimeoutSeconds is the window a candidate has to reply.
	ResponseTimeoutSeconds int `json:"response_timeout_seconds"`
	// PollIntervalSeconds bounds how often a waiting run re-checks state
	// and cancellation.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
	// CandidateLimit is the maximum number of candidates notified per run.
	CandidateLimit int `json:"candidate_limit"`
	// AffirmativeTokens and NegativeTokens drive reply classification.
	// They are locale-specific configuration data, not logic; a reply
	// matching neither set triggers a clarification prompt.
	AffirmativeTokens []string `json:"affirmative_tokens"`
	NegativeTokens    []string `json:"negative_tokens"`
}

// SetDefaults applies the production defaults: a ten minute response
// window, thirty second polling and the French colloquial token sets.
func (c *Config) SetDefaults() {
	if c.ResponseTimeoutSeconds == 0 {
		c.ResponseTimeoutSeconds = 600
	}
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = 30
	}
	if c.CandidateLimit == 0 {
		c.CandidateLimit = 3
	}
	if len(c.AffirmativeTokens) == 0 {
		c.AffirmativeTokens = []string{
			"oui", "yes", "ok", "d'accord", "daccord", "accepte",
			"j'accepte", "je prends", "disponible", "go",
		}
	}
	if len(c.NegativeTokens) == 0 {
		c.NegativeTokens = []string{
			"non", "no", "pas disponible", "pas dispo", "occupe",
			"occupé", "refuse", "je refuse", "impossible", "busy",
		}
	}
}

// Validate checks timing boundaries.
func (c Config) Validate() error {
	if c.ResponseTimeoutSeconds < 0 {
		return fmt.Errorf("response_timeout_seconds must not be negative")
	}
	if c.PollIntervalSeconds < 0 {
		return fmt.Errorf("poll_interval_seconds must not be negative")
	}
	if c.CandidateLimit < 0 {
		return fmt.Errorf("candidate_limit must not be negative")
	}
	return nil
}
