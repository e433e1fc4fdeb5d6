package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"staymap/internal/adapters/observability"
	"staymap/internal/display"
	"staymap/internal/domain"
	"staymap/internal/filter"
)

const candidatesKey = "hotels:all"

type QueryService struct {
	repo        domain.HotelRepository
	cache       domain.Cache
	places      domain.PlacesClient
	cacheTTL    time.Duration
	snapshotTTL time.Duration
	now         func() time.Time

	mu   sync.Mutex
	snap snapshot
}

// snapshot is the in-process copy of the candidate collection. version
// changes whenever hotels does, which keys downstream memoization.
type snapshot struct {
	hotels  []domain.Hotel
	version uint64
	at      time.Time
	ok      bool
}

func NewQueryService(r domain.HotelRepository, c domain.Cache, p domain.PlacesClient, cacheTTL, snapshotTTL time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, places: p, cacheTTL: cacheTTL, snapshotTTL: snapshotTTL, now: time.Now}
}

func (s *QueryService) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	key := fmt.Sprintf("hotel:%s", id)
	var h domain.Hotel
	if ok, _ := s.cache.Get(ctx, key, &h); ok {
		return h, nil
	}
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	return h, nil
}

// Candidates returns the full candidate collection for this moment and its
// version. A failed fetch yields an empty collection rather than an error.
func (s *QueryService) Candidates(ctx context.Context) ([]domain.Hotel, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.ok && s.now().Sub(s.snap.at) < s.snapshotTTL {
		return s.snap.hotels, s.snap.version
	}

	hotels, err := s.fetchCandidates(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("candidate fetch failed; serving empty collection")
		// ok stays false so the next call retries
		s.snap = snapshot{hotels: []domain.Hotel{}, version: s.snap.version + 1}
		return s.snap.hotels, s.snap.version
	}
	s.snap = snapshot{hotels: hotels, version: s.snap.version + 1, at: s.now(), ok: true}
	return hotels, s.snap.version
}

func (s *QueryService) fetchCandidates(ctx context.Context) ([]domain.Hotel, error) {
	var hotels []domain.Hotel
	ok, err := s.cache.Get(ctx, candidatesKey, &hotels)
	if err != nil {
		log.Warn().Err(err).Msg("candidate cache read failed")
	}
	if ok && err == nil {
		return hotels, nil
	}
	hotels, err = s.repo.ListHotels(ctx, domain.HotelsQuery{})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, candidatesKey, hotels, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Msg("candidate cache write failed")
	}
	return hotels, nil
}

// Invalidate drops the in-process snapshot and the shared cache entry.
func (s *QueryService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.snap.ok = false
	s.mu.Unlock()
	_ = s.cache.Del(ctx, candidatesKey)
}

func (s *QueryService) Autocomplete(ctx context.Context, input string) ([]domain.PlaceSuggestion, error) {
	return s.places.Autocomplete(ctx, input)
}

func (s *QueryService) PlaceDetails(ctx context.Context, placeID string) (domain.PlaceDetails, error) {
	return s.places.Details(ctx, placeID)
}

type SearchRequest struct {
	Text    string
	PlaceID string
	// Center, when set, is an already resolved search location.
	Center      *domain.SearchLocation
	Filters     domain.FilterState
	RadiusKm    *float64
	Sort        filter.SortKey
	Bounds      *domain.MapBounds
	ShowMapView bool
}

type SearchResponse struct {
	Hotels   []domain.RankedHotel `json:"hotels"`
	Total    int                  `json:"total"`
	Mode     domain.Mode          `json:"mode,omitempty"`
	RadiusKm *float64             `json:"radius_km,omitempty"`
	Source   display.Source       `json:"source"`
	Banner   bool                 `json:"banner"`
	Place    *domain.PlaceDetails `json:"place,omitempty"`
}

// Search runs the whole pipeline for one request. The place lookup and the
// candidate fetch run concurrently; an unresolved place falls back to the
// free-text match.
func (s *QueryService) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	var (
		hotels []domain.Hotel
		place  *domain.PlaceDetails
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hotels, _ = s.Candidates(gctx)
		return nil
	})
	if req.PlaceID != "" && req.Center == nil {
		g.Go(func() error {
			d, err := s.places.Details(gctx, req.PlaceID)
			if err != nil {
				log.Warn().Err(err).Str("place_id", req.PlaceID).Msg("place lookup failed; using text match")
				return nil
			}
			place = &d
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return SearchResponse{}, err
	}

	dest := filter.Destination{Text: req.Text, Place: req.Center}
	if place != nil {
		loc := place.Location
		dest.Place = &loc
		if dest.Text == "" {
			dest.Text = place.Name
		}
	}

	out := filter.Apply(filter.Input{
		Hotels:      hotels,
		Destination: dest,
		Filters:     req.Filters,
		RadiusKm:    req.RadiusKm,
		Sort:        req.Sort,
	})

	var mapView []domain.RankedHotel
	if req.Bounds != nil {
		mapView = display.InBounds(domain.Rank(hotels), *req.Bounds)
	}
	var sel display.Selector
	if req.ShowMapView {
		sel.ShowMapView()
	}
	res := sel.Select(out.Hotels, req.Bounds, mapView, dest.Active())
	observability.ObserveDisplay(string(res.Source))

	resp := SearchResponse{
		Hotels: res.Hotels,
		Total:  len(res.Hotels),
		Source: res.Source,
		Banner: res.Banner,
		Place:  place,
	}
	if out.Search != nil {
		observability.ObserveSearch(string(out.Search.Mode))
		resp.Mode, resp.RadiusKm = out.Search.Mode, out.Search.RadiusKm
	}
	return resp, nil
}
