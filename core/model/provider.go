package model

import (
	"fmt"
	"strings"
)

// Provider represents a service provider as read from the external store.
// Snapshots are read-only to the core.
type Provider struct {
	ID              string
	Name            string
	ServicesOffered []string // service types the provider handles
	CoverageAreas   []string // neighborhood keywords the provider covers
	IsActive        bool     // account enabled
	IsAvailable     bool     // currently willing to take work
	Rating          float64  // 0 to 5
	TotalJobs       int      // completed jobs, lifetime
	Address         string   // messaging address (phone or gateway id)
	ActiveJobs      int      // requests currently assigned or in progress
}

// Validate checks that the provider snapshot is sound.
func (p Provider) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("provider id is required")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("rating must be between 0 and 5, got %.2f", p.Rating)
	}
	return nil
}

// OffersService reports whether the provider handles the given service
// type. Matching is a case-insensitive containment check so that
// "plomberie" matches an offering recorded as "Plomberie générale".
func (p Provider) OffersService(serviceType string) bool {
	want := strings.ToLower(strings.TrimSpace(serviceType))
	if want == "" {
		return false
	}
	for _, s := range p.ServicesOffered {
		have := strings.ToLower(s)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return true
		}
	}
	return false
}

// CoversAny reports whether any of the given location keywords appears in
// the provider's coverage areas.
func (p Provider) CoversAny(keywords []string) bool {
	for _, k := range keywords {
		for _, area := range p.CoverageAreas {
			if strings.EqualFold(area, k) {
				return true
			}
		}
	}
	return false
}
