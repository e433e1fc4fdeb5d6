package app

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"staymap/internal/domain"
)

/********** alias registry (single source of truth) **********/

var listingAliases = map[string][]string{
	"id":          {"id", "listing_id", "hotel_id", "property_id"},
	"name":        {"name", "title", "hotel_name"},
	"location":    {"location", "address", "address.line", "neighbourhood", "area"},
	"city":        {"city", "address.city", "locality"},
	"country":     {"country", "address.country", "country_name"},
	"type":        {"type", "property_type", "category"},
	"description": {"description", "summary", "about"},
	"price":       {"price", "price_per_night", "pricing.price", "pricing.nightly"},
	"rating":      {"rating", "review_score", "rating.value", "scores.overall"},
	"lat":         {"coordinates.lat", "latitude", "lat", "geo.lat", "location.lat"},
	"lng":         {"coordinates.lng", "longitude", "lng", "lon", "geo.lng", "location.lng"},
	"amenities":   {"amenities", "facilities", "features"},
	"images":      {"images", "photos"},
}

// listingNamespace seeds deterministic ids for listings that arrive without one.
var listingNamespace = uuid.MustParse("6f1c1f5e-4a5b-4f43-9a53-2d7f0f0b6a11")

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstString returns the first non-empty string (or number rendered as
// text) under any alias.
func firstString(m map[string]any, key string) string {
	for _, p := range listingAliases[key] {
		switch v := lookupAny(m, p).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstFloat: number under any alias (float64 or string like "8,0").
func firstFloat(m map[string]any, key string) *float64 {
	for _, p := range listingAliases[key] {
		switch v := lookupAny(m, p).(type) {
		case float64:
			f := v
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstStrings accepts []any of strings or {name/label/url} objects.
func firstStrings(m map[string]any, key string) []string {
	for _, p := range listingAliases[key] {
		raw, ok := lookupAny(m, p).([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, it := range raw {
			switch t := it.(type) {
			case string:
				if s := strings.TrimSpace(t); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				for _, k := range []string{"name", "label", "url", "src"} {
					if s, ok := t[k].(string); ok && s != "" {
						out = append(out, s)
						break
					}
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []string{}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

/********** listing mapper **********/

// mapListing normalizes a catalog payload into a fully populated Hotel:
// price falls back to price_per_night then 0, rating defaults to 0 and is
// clamped to 0..10, amenities default to empty. Coordinates are kept only
// when both are present and valid.
func mapListing(p map[string]any) domain.Hotel {
	raw, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Str("context", "mapListing").Msg("failed to marshal listing to JSON")
	}

	h := domain.Hotel{
		ID:          firstString(p, "id"),
		Name:        firstString(p, "name"),
		Location:    firstString(p, "location"),
		City:        firstString(p, "city"),
		Country:     firstString(p, "country"),
		Type:        firstString(p, "type"),
		Description: firstString(p, "description"),
		Amenities:   firstStrings(p, "amenities"),
		Images:      firstStrings(p, "images"),
		RawJSON:     raw,
	}
	if h.ID == "" {
		h.ID = uuid.NewSHA1(listingNamespace, raw).String()
	}
	if f := firstFloat(p, "price"); f != nil && finite(*f) && *f >= 0 {
		h.Price = *f
	}
	if f := firstFloat(p, "rating"); f != nil && finite(*f) {
		h.Rating = math.Max(0, math.Min(10, *f))
	}

	lat, lng := firstFloat(p, "lat"), firstFloat(p, "lng")
	if lat != nil && lng != nil && finite(*lat) && finite(*lng) &&
		math.Abs(*lat) <= 90 && math.Abs(*lng) <= 180 {
		h.Coordinates = &domain.Coordinates{Lat: *lat, Lng: *lng}
	}
	return h
}
