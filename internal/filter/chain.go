// Package filter derives the hotel list for a destination and a set of facet
// filters. Apply is a pure function of its input; Memo adds last-input
// memoization on top of it.
package filter

import (
	"sort"
	"strconv"
	"strings"

	"staymap/internal/domain"
	"staymap/internal/search"
)

type SortKey string

const (
	SortNone       SortKey = ""
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortRatingDesc SortKey = "rating_desc"
)

// ParseSort maps a query value to a SortKey; unknown values mean no sort.
func ParseSort(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPriceAsc, SortPriceDesc, SortRatingDesc:
		return k
	}
	return SortNone
}

// Destination is what the user typed, plus the coordinates of the place they
// picked from autocomplete once it has been resolved.
type Destination struct {
	Text  string
	Place *domain.SearchLocation
}

func (d Destination) Active() bool {
	return d.Place != nil || strings.TrimSpace(d.Text) != ""
}

type Input struct {
	Hotels      []domain.Hotel
	Destination Destination
	Filters     domain.FilterState
	RadiusKm    *float64
	Sort        SortKey
}

type Output struct {
	Hotels []domain.RankedHotel
	// Search is set when the destination went through the radius engine.
	Search *domain.SearchResult
}

// Apply runs destination resolution, then the price, rating, type and
// amenity facets, then the optional sort. Each stage only narrows or
// reorders the previous one. in.Hotels is never modified.
func Apply(in Input) Output {
	var out Output
	var hs []domain.RankedHotel

	switch d := in.Destination; {
	case d.Place != nil:
		res := search.Search(d.Place, in.Hotels, in.RadiusKm)
		out.Search = &res
		hs = res.Hotels
	case strings.TrimSpace(d.Text) != "":
		hs = matchText(in.Hotels, d.Text)
	default:
		hs = domain.Rank(in.Hotels)
	}

	f := in.Filters
	hs = keep(hs, func(h domain.RankedHotel) bool {
		return h.Price >= f.PriceRange[0] && h.Price <= f.PriceRange[1]
	})
	if floor, ok := ratingFloor(f.Rating); ok {
		hs = keep(hs, func(h domain.RankedHotel) bool { return h.Rating >= floor })
	}
	if t := strings.TrimSpace(f.Type); t != "" && !strings.EqualFold(t, domain.TypeAll) {
		hs = keep(hs, func(h domain.RankedHotel) bool { return TypeMatches(t, h.Type) })
	}
	if wanted := normalized(f.Amenities); len(wanted) > 0 {
		hs = keep(hs, func(h domain.RankedHotel) bool { return hasAmenities(h.Amenities, wanted) })
	}

	sortHotels(hs, in.Sort)
	out.Hotels = hs
	return out
}

func matchText(hotels []domain.Hotel, text string) []domain.RankedHotel {
	term := strings.ToLower(strings.TrimSpace(text))
	out := make([]domain.RankedHotel, 0, len(hotels))
	for _, h := range hotels {
		for _, field := range []string{h.Location, h.City, h.Country, h.Name} {
			if strings.Contains(strings.ToLower(field), term) {
				out = append(out, domain.RankedHotel{Hotel: h})
				break
			}
		}
	}
	return out
}

// keep filters into a fresh slice so earlier stages stay intact.
func keep(hs []domain.RankedHotel, pred func(domain.RankedHotel) bool) []domain.RankedHotel {
	out := make([]domain.RankedHotel, 0, len(hs))
	for _, h := range hs {
		if pred(h) {
			out = append(out, h)
		}
	}
	return out
}

func ratingFloor(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, domain.RatingAll) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func normalized(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if t := strings.ToLower(strings.TrimSpace(s)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// hasAmenities: every wanted label must be a substring of some amenity.
func hasAmenities(have, wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, a := range have {
			if strings.Contains(strings.ToLower(a), w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortHotels(hs []domain.RankedHotel, k SortKey) {
	switch k {
	case SortPriceAsc:
		sort.SliceStable(hs, func(i, j int) bool { return hs[i].Price < hs[j].Price })
	case SortPriceDesc:
		sort.SliceStable(hs, func(i, j int) bool { return hs[i].Price > hs[j].Price })
	case SortRatingDesc:
		sort.SliceStable(hs, func(i, j int) bool { return hs[i].Rating > hs[j].Rating })
	}
}
