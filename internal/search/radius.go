// Package search picks which hotels surround a search center.
//
// With an explicit radius the answer is exactly the hotels inside it. Without
// one the engine widens through AutoRadiusStepsKm until NearbyThreshold hotels
// are found, then falls back to the widest step, then to the single nearest
// hotel anywhere, so a located collection never yields an empty screen.
package search

import (
	"math"
	"sort"

	"staymap/internal/domain"
	"staymap/internal/geo"
)

// NearbyThreshold is the hotel count an auto step must reach to be accepted.
const NearbyThreshold = 5

// AutoRadiusStepsKm are tried in order in auto mode.
var AutoRadiusStepsKm = []float64{5, 10, 25, 50}

// Search filters hotels around center. A nil center passes the collection
// through untouched. explicitRadiusKm selects fixed mode when it is a finite
// positive number; anything else means auto mode.
func Search(center *domain.SearchLocation, hotels []domain.Hotel, explicitRadiusKm *float64) domain.SearchResult {
	if center == nil {
		return domain.SearchResult{Hotels: domain.Rank(hotels), Mode: domain.ModeNoLocation}
	}

	ranked := byDistance(*center, hotels)

	if r, ok := ValidRadius(explicitRadiusKm); ok {
		return domain.SearchResult{Hotels: within(ranked, r), RadiusKm: &r, Mode: domain.ModeFixed}
	}

	for _, step := range AutoRadiusStepsKm {
		if in := within(ranked, step); len(in) >= NearbyThreshold {
			r := step
			return domain.SearchResult{Hotels: in, RadiusKm: &r, Mode: domain.ModeAutoRadius}
		}
	}

	maxStep := AutoRadiusStepsKm[len(AutoRadiusStepsKm)-1]
	if in := within(ranked, maxStep); len(in) > 0 {
		return domain.SearchResult{Hotels: in, RadiusKm: &maxStep, Mode: domain.ModeAutoMax}
	}

	// ranked is sorted, so its head is the nearest located hotel.
	if len(ranked) == 0 {
		return domain.SearchResult{Hotels: []domain.RankedHotel{}, Mode: domain.ModeAutoEmpty}
	}
	nearest := ranked[0]
	d := *nearest.DistanceKm
	return domain.SearchResult{Hotels: []domain.RankedHotel{nearest}, RadiusKm: &d, Mode: domain.ModeAutoNearest}
}

// ValidRadius reports whether r is usable as an explicit radius.
func ValidRadius(r *float64) (float64, bool) {
	if r == nil || math.IsNaN(*r) || math.IsInf(*r, 0) || *r <= 0 {
		return 0, false
	}
	return *r, true
}

// byDistance annotates every located hotel once and sorts ascending,
// keeping collection order for ties.
func byDistance(c domain.SearchLocation, hotels []domain.Hotel) []domain.RankedHotel {
	out := make([]domain.RankedHotel, 0, len(hotels))
	for _, h := range hotels {
		if h.Coordinates == nil {
			continue
		}
		d := geo.DistanceKm(c.Lat, c.Lng, h.Coordinates.Lat, h.Coordinates.Lng)
		out = append(out, domain.RankedHotel{Hotel: h, DistanceKm: &d})
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].DistanceKm < *out[j].DistanceKm })
	return out
}

// within returns the prefix of a distance-sorted slice lying inside r km.
func within(sorted []domain.RankedHotel, r float64) []domain.RankedHotel {
	n := sort.Search(len(sorted), func(i int) bool { return *sorted[i].DistanceKm > r })
	out := make([]domain.RankedHotel, n)
	copy(out, sorted[:n])
	return out
}
