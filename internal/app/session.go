package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"staymap/internal/adapters/observability"
	"staymap/internal/display"
	"staymap/internal/domain"
	"staymap/internal/filter"
	"staymap/internal/viewport"
)

// CurrentLocationLabel names a destination seeded from the device position
// when reverse geocoding gives nothing better.
const CurrentLocationLabel = "Current location"

var ErrUnknownEvent = errors.New("unknown map event")

// Map event types accepted by HandleMapEvent.
const (
	EventLoaded        = "loaded"
	EventBoundsChanged = "bounds_changed"
	EventDragStart     = "dragstart"
	EventZoomChanged   = "zoom_changed"
	EventFit           = "fit"
	EventResetView     = "reset_view"
)

type MapEvent struct {
	Type   string            `json:"type"`
	Bounds *domain.MapBounds `json:"bounds,omitempty"`
}

// Session is one map-driven search view: a destination, the facet filters,
// the viewport reconciler and the display override.
type Session struct {
	ID string

	svc  *QueryService
	view *viewport.Reconciler
	sel  display.Selector
	memo filter.Memo
	gen  atomic.Uint64 // bumped per destination change

	mu       sync.Mutex
	dest     filter.Destination
	placeID  string
	filters  domain.FilterState
	radius   *float64
	sort     filter.SortKey
	lastSeen time.Time
}

func NewSession(svc *QueryService, opts ...viewport.Option) *Session {
	return &Session{
		ID:       uuid.NewString(),
		svc:      svc,
		view:     viewport.New(opts...),
		filters:  domain.DefaultFilterState(),
		lastSeen: time.Now(),
	}
}

// SetDestination replaces the destination. The typed text applies at once;
// when placeID is set its coordinates are looked up and applied only if no
// newer destination arrived meanwhile, otherwise domain.ErrStale is returned.
// A failed lookup leaves the text match in place.
func (s *Session) SetDestination(ctx context.Context, text, placeID string) error {
	g := s.gen.Add(1)
	text = strings.TrimSpace(text)

	s.mu.Lock()
	s.dest = filter.Destination{Text: text}
	s.placeID = placeID
	s.mu.Unlock()
	s.sel.Reset()
	s.view.SetDestination(text != "" || placeID != "")

	if placeID == "" {
		return nil
	}
	d, err := s.svc.PlaceDetails(ctx, placeID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen.Load() != g {
		return domain.ErrStale
	}
	if err != nil {
		log.Warn().Err(err).Str("session", s.ID).Str("place_id", placeID).Msg("place lookup failed; using text match")
		return nil
	}
	loc := d.Location
	s.dest.Place = &loc
	if s.dest.Text == "" {
		s.dest.Text = d.Name
	}
	return nil
}

// SetLocation seeds the destination with an already resolved position.
func (s *Session) SetLocation(label string, loc domain.SearchLocation) {
	s.gen.Add(1)
	s.mu.Lock()
	s.dest = filter.Destination{Text: label, Place: &loc}
	s.placeID = ""
	s.mu.Unlock()
	s.sel.Reset()
	s.view.SetDestination(true)
}

func (s *Session) SetFilters(f domain.FilterState, radiusKm *float64, sort filter.SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
	s.radius = radiusKm
	s.sort = sort
}

// HandleMapEvent forwards a map widget event to the reconciler. The bool is
// false when a fit was refused because the user has taken over the camera.
func (s *Session) HandleMapEvent(ev MapEvent) (bool, error) {
	switch ev.Type {
	case EventLoaded:
		s.view.MapLoaded()
	case EventBoundsChanged, EventFit:
		if ev.Bounds == nil {
			return false, fmt.Errorf("%s: bounds required", ev.Type)
		}
		if ev.Type == EventFit {
			return s.view.FitBounds(*ev.Bounds), nil
		}
		s.view.BoundsChanged(*ev.Bounds)
	case EventDragStart:
		s.view.DragStart()
	case EventZoomChanged:
		s.view.ZoomChanged()
	case EventResetView:
		s.view.ResetView()
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return true, nil
}

func (s *Session) ShowMapView() { s.sel.ShowMapView() }

type SessionResults struct {
	Hotels            []domain.RankedHotel `json:"hotels"`
	Total             int                  `json:"total"`
	Source            display.Source       `json:"source"`
	Banner            bool                 `json:"banner"`
	Mode              domain.Mode          `json:"mode,omitempty"`
	RadiusKm          *float64             `json:"radius_km,omitempty"`
	Destination       string               `json:"destination,omitempty"`
	Bounds            *domain.MapBounds    `json:"bounds,omitempty"`
	FitBounds         *domain.MapBounds    `json:"fit_bounds,omitempty"`
	Dirty             bool                 `json:"dirty"`
	AutoFitSuppressed bool                 `json:"auto_fit_suppressed"`
}

// Results renders the current display list. While a destination is active
// and the user has not moved the map, the camera is fitted to the displayed
// hotels and the box is returned in FitBounds.
func (s *Session) Results(ctx context.Context) SessionResults {
	hotels, version := s.svc.Candidates(ctx)

	s.mu.Lock()
	s.lastSeen = time.Now()
	in := filter.Input{
		Hotels:      hotels,
		Destination: s.dest,
		Filters:     s.filters,
		RadiusKm:    s.radius,
		Sort:        s.sort,
	}
	s.mu.Unlock()

	out := s.memo.Apply(version, in)
	bounds := s.view.Bounds()
	var mapView []domain.RankedHotel
	if bounds != nil {
		mapView = display.InBounds(domain.Rank(hotels), *bounds)
	}
	active := in.Destination.Active()
	res := s.sel.Select(out.Hotels, bounds, mapView, active)
	observability.ObserveDisplay(string(res.Source))

	r := SessionResults{
		Hotels:      res.Hotels,
		Total:       len(res.Hotels),
		Source:      res.Source,
		Banner:      res.Banner,
		Destination: in.Destination.Text,
	}
	if out.Search != nil {
		r.Mode, r.RadiusKm = out.Search.Mode, out.Search.RadiusKm
	}
	if active && res.Source == display.SourceDestination {
		if box, ok := boundingBox(res.Hotels); ok && s.view.FitBounds(box) {
			r.FitBounds = &box
		}
	}
	r.Bounds = s.view.Bounds()
	r.Dirty = s.view.Dirty()
	r.AutoFitSuppressed = s.view.AutoFitSuppressed()
	return r
}

func (s *Session) Close() { s.view.Stop() }

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// minSpan keeps a single-hotel box from collapsing to a point.
const minSpan = 0.01

func boundingBox(hs []domain.RankedHotel) (domain.MapBounds, bool) {
	var b domain.MapBounds
	found := false
	for _, h := range hs {
		c := h.Coordinates
		if c == nil {
			continue
		}
		if !found {
			b = domain.MapBounds{North: c.Lat, South: c.Lat, East: c.Lng, West: c.Lng}
			found = true
			continue
		}
		b.North, b.South = max(b.North, c.Lat), min(b.South, c.Lat)
		b.East, b.West = max(b.East, c.Lng), min(b.West, c.Lng)
	}
	if !found {
		return b, false
	}
	if b.North-b.South < minSpan {
		b.North, b.South = b.North+minSpan/2, b.South-minSpan/2
	}
	if b.East-b.West < minSpan {
		b.East, b.West = b.East+minSpan/2, b.West-minSpan/2
	}
	return b, true
}
