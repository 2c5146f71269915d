package matching

import "strings"

// ExtractLocationKeywords scans a free-text location for known
// neighborhood tokens. Matching is lower-cased substring containment, a
// deliberate heuristic rather than geocoding: "je suis à Bonamoussadi
// carrefour Kotto" yields both zones. When nothing matches, the primary
// zone is returned so the request is never un-locatable.
func (m *Matcher) ExtractLocationKeywords(location string) []string {
	text := strings.ToLower(location)
	var found []string
	for _, kw := range m.cfg.LocationKeywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	if len(found) == 0 {
		found = append(found, m.cfg.PrimaryZone)
	}
	return found
}

func containsFold(set []string, want string) bool {
	for _, s := range set {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
