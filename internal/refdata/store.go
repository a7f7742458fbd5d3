package refdata

import "strings"

// Profile holds typical energy consumption data for one appliance type.
type Profile struct {
	Category         string
	TypicalWattage   float64
	UsageHoursPerDay float64
}

// DailyKWh is the profile's own daily energy estimate based on its
// typical usage hours.
func (p Profile) DailyKWh() float64 {
	return p.TypicalWattage * p.UsageHoursPerDay / 1000
}

const (
	// DefaultWattage is returned by EstimateWattage when no profile matches.
	DefaultWattage = 100.0

	// UnknownCategory is returned by CategoryOf when no profile matches.
	UnknownCategory = "Unknown"
)

// Store is a fixed, in-memory table of appliance energy profiles with fuzzy
// lookup. It has no mutable state and is safe for concurrent use.
type Store struct {
	entries []entry
	exact   map[string]Profile
}

type entry struct {
	name    string
	profile Profile
}

// NewStore returns a store populated with the built-in reference table.
func NewStore() *Store {
	exact := make(map[string]Profile, len(referenceTable))
	for _, e := range referenceTable {
		exact[e.name] = e.profile
	}
	return &Store{entries: referenceTable, exact: exact}
}

// Lookup finds the profile for an appliance name. The name is lowercased,
// then matched exactly; failing that, the table is scanned in declaration
// order and the first entry related to the query by substring containment
// (either direction) wins. The fixed scan order keeps fuzzy results
// reproducible.
func (s *Store) Lookup(name string) (Profile, bool) {
	normalized := strings.ToLower(name)
	if normalized == "" {
		return Profile{}, false
	}

	if p, ok := s.exact[normalized]; ok {
		return p, true
	}

	for _, e := range s.entries {
		if strings.Contains(normalized, e.name) || strings.Contains(e.name, normalized) {
			return e.profile, true
		}
	}

	return Profile{}, false
}

// EstimateWattage returns the typical wattage for an appliance name,
// falling back to DefaultWattage when nothing matches.
func (s *Store) EstimateWattage(name string) float64 {
	if p, ok := s.Lookup(name); ok {
		return p.TypicalWattage
	}
	return DefaultWattage
}

// CategoryOf returns the category for an appliance name, falling back to
// UnknownCategory when nothing matches.
func (s *Store) CategoryOf(name string) string {
	if p, ok := s.Lookup(name); ok {
		return p.Category
	}
	return UnknownCategory
}
