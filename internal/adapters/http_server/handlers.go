package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"staymap/internal/app"
	"staymap/internal/domain"
	"staymap/internal/filter"
)

type Handlers struct {
	Q        *app.QueryService
	Sessions *app.SessionStore
	// GeoTimeout bounds the one-shot device location lookup on session create.
	GeoTimeout time.Duration
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/hotels/{id}", h.getHotel)
	s.mux.Get("/v1/search", h.search)
	s.mux.Get("/v1/places/autocomplete", h.autocomplete)
	s.mux.Get("/v1/places/{placeID}", h.placeDetails)

	s.mux.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", h.deleteSession)
			r.Put("/destination", h.withSession(h.setDestination))
			r.Put("/filters", h.withSession(h.setFilters))
			r.Post("/map-events", h.withSession(h.mapEvent))
			r.Post("/show-map-view", h.withSession(h.showMapView))
			r.Get("/results", h.withSession(h.results))
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON writes v with a weak ETag and answers 304 when the client
// already holds that version.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "response encoding failed")
		return
	}
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); status == http.StatusOK && inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("route", routeOf(r)).Msg("failed to write body")
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Q.GetHotel(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("get hotel failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "hotel lookup failed")
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := parseFilters(q.Get)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	f.Amenities = nonEmpty(q["amenity"])
	bounds, err := parseBounds(q.Get)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid bounds", err.Error())
		return
	}
	center, err := parseCenter(q.Get("lat"), q.Get("lng"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid location", err.Error())
		return
	}

	resp, err := h.Q.Search(r.Context(), app.SearchRequest{
		Text:        q.Get("q"),
		PlaceID:     q.Get("place_id"),
		Center:      center,
		Filters:     f,
		RadiusKm:    parseRadius(q.Get("radius_km")),
		Sort:        filter.ParseSort(q.Get("sort")),
		Bounds:      bounds,
		ShowMapView: truthy(q.Get("map_view")),
	})
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Search Cancelled", err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handlers) autocomplete(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.Autocomplete(r.Context(), r.URL.Query().Get("input"))
	if err != nil {
		log.Warn().Err(err).Msg("autocomplete failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "place autocomplete unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"suggestions": out})
}

func (h *Handlers) placeDetails(w http.ResponseWriter, r *http.Request) {
	d, err := h.Q.PlaceDetails(r.Context(), chi.URLParam(r, "placeID"))
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "place not found")
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("place details failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "place details unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

// ---- sessions ----

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *app.Session)

func (h *Handlers) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			writeProblem(w, http.StatusNotFound, "Not Found", "session not found")
			return
		}
		next(w, r, s)
	}
}

type sessionCreated struct {
	ID      string             `json:"id"`
	Results app.SessionResults `json:"results"`
}

// createSession opens a map session. When the client shares its device
// position as lat/lng it becomes the initial destination.
func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s := h.Sessions.Create()
	loc := requestLocator{lat: q.Get("lat"), lng: q.Get("lng")}
	timeout := h.GeoTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if c := app.ResolveDeviceLocation(r.Context(), loc, timeout); c != nil {
		s.SetLocation(h.Q.DeviceDestination(r.Context(), *c), *c)
	}
	writeJSON(w, r, http.StatusCreated, sessionCreated{ID: s.ID, Results: s.Results(r.Context())})
}

func (h *Handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.Sessions.Delete(chi.URLParam(r, "id")) {
		writeProblem(w, http.StatusNotFound, "Not Found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type destinationBody struct {
	Text    string `json:"text"`
	PlaceID string `json:"place_id"`
}

func (h *Handlers) setDestination(w http.ResponseWriter, r *http.Request, s *app.Session) {
	var b destinationBody
	if err := decodeBody(r, &b); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid destination", err.Error())
		return
	}
	if err := s.SetDestination(r.Context(), b.Text, b.PlaceID); errors.Is(err, domain.ErrStale) {
		writeProblem(w, http.StatusConflict, "Superseded", "a newer destination was set")
		return
	}
	writeJSON(w, r, http.StatusOK, s.Results(r.Context()))
}

type filtersBody struct {
	MinPrice  *float64 `json:"min_price"`
	MaxPrice  *float64 `json:"max_price"`
	Rating    string   `json:"rating"`
	Type      string   `json:"type"`
	Amenities []string `json:"amenities"`
	RadiusKm  *float64 `json:"radius_km"`
	Sort      string   `json:"sort"`
}

func (h *Handlers) setFilters(w http.ResponseWriter, r *http.Request, s *app.Session) {
	var b filtersBody
	if err := decodeBody(r, &b); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filters", err.Error())
		return
	}
	f := domain.DefaultFilterState()
	if b.MinPrice != nil {
		f.PriceRange[0] = *b.MinPrice
	}
	if b.MaxPrice != nil {
		f.PriceRange[1] = *b.MaxPrice
	}
	if f.PriceRange[0] > f.PriceRange[1] {
		writeProblem(w, http.StatusBadRequest, "Invalid filters", "min_price exceeds max_price")
		return
	}
	if b.Rating != "" {
		f.Rating = b.Rating
	}
	if b.Type != "" {
		f.Type = b.Type
	}
	f.Amenities = nonEmpty(b.Amenities)
	s.SetFilters(f, b.RadiusKm, filter.ParseSort(b.Sort))
	writeJSON(w, r, http.StatusOK, s.Results(r.Context()))
}

func (h *Handlers) mapEvent(w http.ResponseWriter, r *http.Request, s *app.Session) {
	var ev app.MapEvent
	if err := decodeBody(r, &ev); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid map event", err.Error())
		return
	}
	applied, err := s.HandleMapEvent(ev)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid map event", err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"applied": applied})
}

func (h *Handlers) showMapView(w http.ResponseWriter, r *http.Request, s *app.Session) {
	s.ShowMapView()
	writeJSON(w, r, http.StatusOK, s.Results(r.Context()))
}

func (h *Handlers) results(w http.ResponseWriter, r *http.Request, s *app.Session) {
	writeJSON(w, r, http.StatusOK, s.Results(r.Context()))
}

// ---- query parsing ----

func parseFilters(get func(string) string) (domain.FilterState, error) {
	f := domain.DefaultFilterState()
	for i, key := range []string{"min_price", "max_price"} {
		v := get(key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("%s must be a number", key)
		}
		f.PriceRange[i] = n
	}
	if f.PriceRange[0] > f.PriceRange[1] {
		return f, errors.New("min_price exceeds max_price")
	}
	if v := get("rating"); v != "" {
		f.Rating = v
	}
	if v := get("type"); v != "" {
		f.Type = v
	}
	return f, nil
}

// parseBounds needs all four edges or none.
func parseBounds(get func(string) string) (*domain.MapBounds, error) {
	keys := []string{"north", "south", "east", "west"}
	var vals [4]float64
	n := 0
	for i, k := range keys {
		v := get(k)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", k)
		}
		vals[i] = f
		n++
	}
	switch n {
	case 0:
		return nil, nil
	case 4:
		return &domain.MapBounds{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}, nil
	}
	return nil, errors.New("north, south, east and west must be given together")
}

func parseCenter(lat, lng string) (*domain.SearchLocation, error) {
	if lat == "" && lng == "" {
		return nil, nil
	}
	c, err := parseCoordinates(lat, lng)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parseCoordinates(lat, lng string) (domain.Coordinates, error) {
	la, err1 := strconv.ParseFloat(lat, 64)
	lo, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil || la < -90 || la > 90 || lo < -180 || lo > 180 {
		return domain.Coordinates{}, errors.New("lat and lng must be valid degrees")
	}
	return domain.Coordinates{Lat: la, Lng: lo}, nil
}

// parseRadius never fails: anything unusable means auto radius.
func parseRadius(v string) *float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func truthy(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func nonEmpty(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
