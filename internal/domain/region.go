package domain

import (
	"fmt"
	"time"
)

// Region is a coarse, user-facing timezone choice.
type Region struct {
	Label string
	Zone  string
}

// Zones maps region labels to loaded locations, falling back to a default
// zone for unknown or empty labels.
type Zones struct {
	order    []string
	byLabel  map[string]*time.Location
	fallback *time.Location
}

// NewZones loads every region's zone and the fallback zone.
func NewZones(regions []Region, fallback string) (*Zones, error) {
	fb, err := time.LoadLocation(fallback)
	if err != nil {
		return nil, fmt.Errorf("failed to load default timezone %q: %w", fallback, err)
	}

	z := &Zones{
		byLabel:  make(map[string]*time.Location, len(regions)),
		fallback: fb,
	}
	for _, r := range regions {
		loc, err := time.LoadLocation(r.Zone)
		if err != nil {
			return nil, fmt.Errorf("failed to load timezone %q for region %q: %w", r.Zone, r.Label, err)
		}
		if _, dup := z.byLabel[r.Label]; !dup {
			z.order = append(z.order, r.Label)
		}
		z.byLabel[r.Label] = loc
	}
	return z, nil
}

// Resolve returns the location for label, or the fallback zone.
func (z *Zones) Resolve(label string) *time.Location {
	if loc, ok := z.byLabel[label]; ok {
		return loc
	}
	return z.fallback
}

// Known reports whether label is one of the configured regions.
func (z *Zones) Known(label string) bool {
	_, ok := z.byLabel[label]
	return ok
}

// Labels returns the region labels in configuration order.
func (z *Zones) Labels() []string {
	out := make([]string, len(z.order))
	copy(out, z.order)
	return out
}

// Fallback returns the default location.
func (z *Zones) Fallback() *time.Location { return z.fallback }
