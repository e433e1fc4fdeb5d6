package search_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staymap/internal/domain"
	"staymap/internal/geo"
	"staymap/internal/search"
)

// north returns a hotel km kilometers due north of the origin.
func north(id string, km float64) domain.Hotel {
	lat := km / (geo.EarthRadiusKm * math.Pi / 180)
	return domain.Hotel{ID: id, Coordinates: &domain.Coordinates{Lat: lat, Lng: 0}}
}

func unlocated(id string) domain.Hotel { return domain.Hotel{ID: id} }

func ids(hs []domain.RankedHotel) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.ID
	}
	return out
}

func ptr(f float64) *float64 { return &f }

var origin = &domain.SearchLocation{Lat: 0, Lng: 0}

func TestSearch_NoLocationPassesThrough(t *testing.T) {
	in := []domain.Hotel{north("a", 100), unlocated("b"), north("c", 1)}
	res := search.Search(nil, in, ptr(10))

	assert.Equal(t, domain.ModeNoLocation, res.Mode)
	assert.Nil(t, res.RadiusKm)
	assert.Equal(t, []string{"a", "b", "c"}, ids(res.Hotels))
	for _, h := range res.Hotels {
		assert.Nil(t, h.DistanceKm)
	}
}

func TestSearch_FixedRadiusEmpty(t *testing.T) {
	center := &domain.SearchLocation{Lat: 12.9, Lng: 77.6}
	in := []domain.Hotel{
		{ID: "mysore", Coordinates: &domain.Coordinates{Lat: 12.2958, Lng: 76.6394}},
		{ID: "chennai", Coordinates: &domain.Coordinates{Lat: 13.0827, Lng: 80.2707}},
		{ID: "hyderabad", Coordinates: &domain.Coordinates{Lat: 17.385, Lng: 78.4867}},
	}
	res := search.Search(center, in, ptr(10))

	assert.Equal(t, domain.ModeFixed, res.Mode)
	require.NotNil(t, res.RadiusKm)
	assert.Equal(t, 10.0, *res.RadiusKm)
	assert.Empty(t, res.Hotels)
}

func TestSearch_FixedRadiusNeverExceeds(t *testing.T) {
	var in []domain.Hotel
	for i := 0; i < 200; i++ {
		in = append(in, north(strconv.Itoa(i), float64(i)*0.37))
	}
	in = append(in, unlocated("x"))
	for _, r := range []float64{0.5, 7, 15, 20, 33.4} {
		res := search.Search(origin, in, ptr(r))
		assert.Equal(t, domain.ModeFixed, res.Mode)
		for _, h := range res.Hotels {
			require.NotNil(t, h.DistanceKm)
			assert.LessOrEqual(t, *h.DistanceKm, r)
		}
		want := int(math.Floor(r/0.37)) + 1
		assert.Len(t, res.Hotels, want, "radius %v", r)
	}
}

func TestSearch_AutoStopsAtFirstStep(t *testing.T) {
	in := []domain.Hotel{
		north("a", 1), north("b", 2), north("c", 3), north("d", 4), north("e", 4.5),
		north("far", 9),
	}
	res := search.Search(origin, in, nil)

	assert.Equal(t, domain.ModeAutoRadius, res.Mode)
	require.NotNil(t, res.RadiusKm)
	assert.Equal(t, 5.0, *res.RadiusKm)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(res.Hotels))
}

func TestSearch_AutoExpandsToTen(t *testing.T) {
	in := []domain.Hotel{
		north("f", 7.9), north("a", 5.5), north("c", 6.5),
		north("b", 6), north("e", 7.5), north("d", 7),
	}
	res := search.Search(origin, in, nil)

	assert.Equal(t, domain.ModeAutoRadius, res.Mode)
	require.NotNil(t, res.RadiusKm)
	assert.Equal(t, 10.0, *res.RadiusKm)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, ids(res.Hotels))
}

func TestSearch_AutoMax(t *testing.T) {
	in := []domain.Hotel{north("a", 30), north("b", 45), north("c", 80)}
	res := search.Search(origin, in, nil)

	assert.Equal(t, domain.ModeAutoMax, res.Mode)
	require.NotNil(t, res.RadiusKm)
	assert.Equal(t, 50.0, *res.RadiusKm)
	assert.Equal(t, []string{"a", "b"}, ids(res.Hotels))
}

func TestSearch_AutoNearest(t *testing.T) {
	in := []domain.Hotel{unlocated("x"), north("only", 120), unlocated("y")}
	res := search.Search(origin, in, nil)

	assert.Equal(t, domain.ModeAutoNearest, res.Mode)
	require.NotNil(t, res.RadiusKm)
	assert.InDelta(t, 120, *res.RadiusKm, 1e-6)
	assert.Equal(t, []string{"only"}, ids(res.Hotels))
}

func TestSearch_AutoEmpty(t *testing.T) {
	res := search.Search(origin, nil, nil)
	assert.Equal(t, domain.ModeAutoEmpty, res.Mode)
	assert.Nil(t, res.RadiusKm)
	assert.NotNil(t, res.Hotels)
	assert.Empty(t, res.Hotels)

	res = search.Search(origin, []domain.Hotel{unlocated("x")}, nil)
	assert.Equal(t, domain.ModeAutoEmpty, res.Mode)
	assert.Empty(t, res.Hotels)
}

func TestSearch_AutoNeverEmptyWhenLocated(t *testing.T) {
	for _, km := range []float64{0.1, 4, 12, 49, 51, 500, 9000} {
		in := []domain.Hotel{unlocated("x"), north("h", km)}
		res := search.Search(origin, in, nil)
		assert.NotEmpty(t, res.Hotels, "km=%v mode=%s", km, res.Mode)
	}
}

func TestSearch_MalformedRadiusFallsBackToAuto(t *testing.T) {
	in := []domain.Hotel{north("a", 30)}
	for _, r := range []float64{math.NaN(), -3, 0, math.Inf(1)} {
		res := search.Search(origin, in, ptr(r))
		assert.Equal(t, domain.ModeAutoMax, res.Mode, "radius %v", r)
	}
}

func TestSearch_StableTies(t *testing.T) {
	in := []domain.Hotel{north("z", 2), north("a", 1), north("m", 2), north("b", 1), north("q", 2)}
	res := search.Search(origin, in, ptr(5))
	assert.Equal(t, []string{"a", "b", "z", "m", "q"}, ids(res.Hotels))
}

func TestSearch_DistanceMatchesGeo(t *testing.T) {
	center := &domain.SearchLocation{Lat: 48.85, Lng: 2.35}
	h := domain.Hotel{ID: "h", Coordinates: &domain.Coordinates{Lat: 48.86, Lng: 2.29}}
	res := search.Search(center, []domain.Hotel{h}, ptr(10))
	require.Len(t, res.Hotels, 1)
	assert.Equal(t, geo.DistanceKm(48.85, 2.35, 48.86, 2.29), *res.Hotels[0].DistanceKm)
}

func TestSearch_DoesNotMutateInput(t *testing.T) {
	in := []domain.Hotel{north("b", 3), north("a", 1)}
	_ = search.Search(origin, in, nil)
	assert.Equal(t, "b", in[0].ID)
	assert.Equal(t, "a", in[1].ID)
}
