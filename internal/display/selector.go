// Package display decides which hotels end up on screen by merging the
// filter chain output with the current map viewport.
package display

import (
	"sync"

	"staymap/internal/domain"
)

// Source names the branch that produced a display list.
type Source string

const (
	SourceAll         Source = "all"         // no destination, bounds unusable or empty
	SourceBounds      Source = "bounds"      // no destination, restricted to viewport
	SourceDestination Source = "destination" // destination results verbatim
	SourceMapView     Source = "map_view"    // manual override with banner
	SourceNone        Source = "none"        // destination with zero results
)

type Result struct {
	Hotels []domain.RankedHotel `json:"hotels"`
	// Banner is set while the map view override replaces empty results.
	Banner bool   `json:"banner"`
	Source Source `json:"source"`
}

// InBounds keeps located hotels inside b.
func InBounds(hs []domain.RankedHotel, b domain.MapBounds) []domain.RankedHotel {
	out := make([]domain.RankedHotel, 0, len(hs))
	for _, h := range hs {
		if h.Coordinates != nil && b.Contains(*h.Coordinates) {
			out = append(out, h)
		}
	}
	return out
}

// Select is the display policy without the manual override.
func Select(filtered []domain.RankedHotel, bounds *domain.MapBounds, mapView []domain.RankedHotel, hasDestination bool) []domain.RankedHotel {
	return choose(filtered, bounds, mapView, hasDestination, false).Hotels
}

func choose(filtered []domain.RankedHotel, bounds *domain.MapBounds, mapView []domain.RankedHotel, hasDestination, override bool) Result {
	if !hasDestination {
		if bounds != nil && anyLocated(filtered) {
			if in := InBounds(filtered, *bounds); len(in) > 0 {
				return Result{Hotels: in, Source: SourceBounds}
			}
		}
		// a transient empty intersection falls back to everything
		return Result{Hotels: filtered, Source: SourceAll}
	}
	if len(filtered) > 0 {
		return Result{Hotels: filtered, Source: SourceDestination}
	}
	if override {
		return Result{Hotels: mapView, Banner: true, Source: SourceMapView}
	}
	return Result{Hotels: []domain.RankedHotel{}, Source: SourceNone}
}

func anyLocated(hs []domain.RankedHotel) bool {
	for _, h := range hs {
		if h.Coordinates != nil {
			return true
		}
	}
	return false
}

// Selector carries the "show properties in current map view" override
// between renders.
type Selector struct {
	mu          sync.Mutex
	showMapView bool
}

// ShowMapView turns the override on. It only takes effect while a
// destination yields no results.
func (s *Selector) ShowMapView() {
	s.mu.Lock()
	s.showMapView = true
	s.mu.Unlock()
}

func (s *Selector) Reset() {
	s.mu.Lock()
	s.showMapView = false
	s.mu.Unlock()
}

func (s *Selector) MapViewActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showMapView
}

// Select applies the policy and clears the override as soon as the
// destination produces results again.
func (s *Selector) Select(filtered []domain.RankedHotel, bounds *domain.MapBounds, mapView []domain.RankedHotel, hasDestination bool) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hasDestination && len(filtered) > 0 {
		s.showMapView = false
	}
	return choose(filtered, bounds, mapView, hasDestination, s.showMapView)
}
