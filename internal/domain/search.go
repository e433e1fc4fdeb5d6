package domain

// Mode tells the UI which strategy produced a result set.
type Mode string

const (
	ModeNoLocation  Mode = "no-location"
	ModeFixed       Mode = "fixed"
	ModeAutoRadius  Mode = "auto-radius"
	ModeAutoMax     Mode = "auto-max"
	ModeAutoNearest Mode = "auto-nearest"
	ModeAutoEmpty   Mode = "auto-empty"
)

type SearchResult struct {
	Hotels   []RankedHotel `json:"hotels"`
	RadiusKm *float64      `json:"radius_km"`
	Mode     Mode          `json:"mode"`
}

// MapBounds is the visible viewport in degrees. Always replaced as a whole.
type MapBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Contains reports whether c lies inside b, edges included. A box whose west
// edge is greater than its east edge spans the antimeridian.
func (b MapBounds) Contains(c Coordinates) bool {
	if c.Lat < b.South || c.Lat > b.North {
		return false
	}
	if b.West <= b.East {
		return c.Lng >= b.West && c.Lng <= b.East
	}
	return c.Lng >= b.West || c.Lng <= b.East
}

const (
	RatingAll = "all"
	TypeAll   = "all"

	DefaultMaxPrice = 100000
)

// FilterState is a value object; callers replace it wholesale.
type FilterState struct {
	PriceRange [2]float64 `json:"price_range"`
	Rating     string     `json:"rating"`
	Type       string     `json:"type"`
	Amenities  []string   `json:"amenities"`
}

func DefaultFilterState() FilterState {
	return FilterState{
		PriceRange: [2]float64{0, DefaultMaxPrice},
		Rating:     RatingAll,
		Type:       TypeAll,
	}
}

// PlaceSuggestion is one autocomplete prediction.
type PlaceSuggestion struct {
	Description   string `json:"description"`
	PlaceID       string `json:"place_id"`
	MainText      string `json:"main_text"`
	SecondaryText string `json:"secondary_text,omitempty"`
}

// PlaceDetails is a resolved place.
type PlaceDetails struct {
	PlaceID          string             `json:"place_id"`
	Name             string             `json:"name"`
	FormattedAddress string             `json:"formatted_address"`
	Location         Coordinates        `json:"location"`
	Components       []AddressComponent `json:"address_components,omitempty"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}
