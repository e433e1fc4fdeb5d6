package filter

import (
	"slices"
	"strings"
	"sync"
)

// Memo remembers the output for the most recent input only. Any change in
// the snapshot version or in the input recomputes from scratch.
type Memo struct {
	mu  sync.Mutex
	key memoKey
	out Output
	ok  bool
}

type memoKey struct {
	version    uint64
	text       string
	hasPlace   bool
	lat, lng   float64
	minP, maxP float64
	rating     string
	typ        string
	amenities  string
	hasRadius  bool
	radius     float64
	sort       SortKey
}

func keyOf(version uint64, in Input) memoKey {
	k := memoKey{
		version:   version,
		text:      in.Destination.Text,
		minP:      in.Filters.PriceRange[0],
		maxP:      in.Filters.PriceRange[1],
		rating:    in.Filters.Rating,
		typ:       in.Filters.Type,
		amenities: strings.Join(in.Filters.Amenities, "\x00"),
		sort:      in.Sort,
	}
	if p := in.Destination.Place; p != nil {
		k.hasPlace, k.lat, k.lng = true, p.Lat, p.Lng
	}
	if in.RadiusKm != nil {
		k.hasRadius, k.radius = true, *in.RadiusKm
	}
	return k
}

// Apply returns the memoized Output when version and in match the previous
// call. version must change whenever in.Hotels does.
func (m *Memo) Apply(version uint64, in Input) Output {
	k := keyOf(version, in)
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok || m.key != k {
		m.key, m.out, m.ok = k, Apply(in), true
	}
	return Output{Hotels: slices.Clone(m.out.Hotels), Search: m.out.Search}
}
