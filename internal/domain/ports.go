package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStale is returned when a newer request superseded the one in flight.
	ErrStale = errors.New("stale response discarded")
)

type HotelRepository interface {
	UpsertHotel(ctx context.Context, h Hotel) error
	GetHotel(ctx context.Context, id string) (Hotel, error)
	ListHotels(ctx context.Context, q HotelsQuery) ([]Hotel, error)
}

type CatalogClient interface {
	ListListings(ctx context.Context, page int) ([]map[string]any, bool, error)
}

type PlacesClient interface {
	Autocomplete(ctx context.Context, input string) ([]PlaceSuggestion, error)
	Details(ctx context.Context, placeID string) (PlaceDetails, error)
	ReverseGeocode(ctx context.Context, c Coordinates) (PlaceDetails, error)
}

// Geolocator yields a one-shot device position.
type Geolocator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type HotelsQuery struct {
	Country, City *string
	Limit         int
}
