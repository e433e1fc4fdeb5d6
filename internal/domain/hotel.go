package domain

// Hotel is a normalized listing record. Every field is populated with a safe
// default by the catalog mapper, so filters never need nil checks beyond
// Coordinates.
type Hotel struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Location    string       `json:"location"`
	City        string       `json:"city"`
	Country     string       `json:"country"`
	Type        string       `json:"type"`
	Price       float64      `json:"price"`
	Rating      float64      `json:"rating"` // 0..10
	Amenities   []string     `json:"amenities"`
	Images      []string     `json:"images,omitempty"`
	Description string       `json:"description,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	RawJSON     []byte       `json:"-"` // full catalog payload
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SearchLocation is the single active center of the user's search intent.
type SearchLocation = Coordinates

// RankedHotel is a hotel annotated with its distance from a search center.
// DistanceKm is nil when no center was involved.
type RankedHotel struct {
	Hotel
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Rank wraps hotels without distance annotation, preserving order.
func Rank(hs []Hotel) []RankedHotel {
	out := make([]RankedHotel, len(hs))
	for i := range hs {
		out[i] = RankedHotel{Hotel: hs[i]}
	}
	return out
}
