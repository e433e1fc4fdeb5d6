// Package places talks to a Google-Places-compatible autocomplete, details
// and geocoding API.
package places

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"staymap/internal/adapters/upstream"
	"staymap/internal/domain"
)

type Client struct {
	base string
	key  string
	up   *upstream.Client
}

func New(base, key string, rps int) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		up:   upstream.New("places", rps, 0, nil),
	}
}

// ---- wire formats ----

type apiStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geometry struct {
	Location latLng `json:"location"`
}

type component struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type autocompleteResp struct {
	apiStatus
	Predictions []struct {
		Description          string `json:"description"`
		PlaceID              string `json:"place_id"`
		StructuredFormatting struct {
			MainText      string `json:"main_text"`
			SecondaryText string `json:"secondary_text"`
		} `json:"structured_formatting"`
	} `json:"predictions"`
}

type placeResult struct {
	PlaceID           string      `json:"place_id"`
	Name              string      `json:"name"`
	FormattedAddress  string      `json:"formatted_address"`
	Geometry          geometry    `json:"geometry"`
	AddressComponents []component `json:"address_components"`
}

type detailsResp struct {
	apiStatus
	Result placeResult `json:"result"`
}

type geocodeResp struct {
	apiStatus
	Results []placeResult `json:"results"`
}

// ---- API ----

func (c *Client) Autocomplete(ctx context.Context, input string) ([]domain.PlaceSuggestion, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return []domain.PlaceSuggestion{}, nil
	}
	q := url.Values{"input": {input}}
	var r autocompleteResp
	if err := c.get(ctx, "autocomplete", "/place/autocomplete/json", q, &r); err != nil {
		return nil, err
	}
	if err := statusErr(r.apiStatus, false); err != nil {
		return nil, err
	}
	out := make([]domain.PlaceSuggestion, 0, len(r.Predictions))
	for _, p := range r.Predictions {
		out = append(out, domain.PlaceSuggestion{
			Description:   p.Description,
			PlaceID:       p.PlaceID,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}
	return out, nil
}

func (c *Client) Details(ctx context.Context, placeID string) (domain.PlaceDetails, error) {
	q := url.Values{
		"place_id": {placeID},
		"fields":   {"place_id,name,geometry,formatted_address,address_components"},
	}
	var r detailsResp
	if err := c.get(ctx, "details", "/place/details/json", q, &r); err != nil {
		return domain.PlaceDetails{}, err
	}
	if err := statusErr(r.apiStatus, true); err != nil {
		return domain.PlaceDetails{}, err
	}
	d := toDetails(r.Result)
	if d.PlaceID == "" {
		d.PlaceID = placeID
	}
	return d, nil
}

// ReverseGeocode names the locality containing pos.
func (c *Client) ReverseGeocode(ctx context.Context, pos domain.Coordinates) (domain.PlaceDetails, error) {
	q := url.Values{
		"latlng": {strconv.FormatFloat(pos.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(pos.Lng, 'f', 6, 64)},
	}
	var r geocodeResp
	if err := c.get(ctx, "geocode", "/geocode/json", q, &r); err != nil {
		return domain.PlaceDetails{}, err
	}
	if err := statusErr(r.apiStatus, true); err != nil {
		return domain.PlaceDetails{}, err
	}
	if len(r.Results) == 0 {
		return domain.PlaceDetails{}, domain.ErrNotFound
	}
	d := toDetails(r.Results[0])
	if d.Name == "" {
		d.Name = locality(d.Components)
	}
	d.Location = pos
	return d, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	if c.key != "" {
		q.Set("key", c.key)
	}
	return c.up.GetJSON(ctx, endpoint, c.base+path+"?"+q.Encode(), out)
}

// statusErr maps API-level statuses carried in a 200 body.
func statusErr(s apiStatus, zeroIsMissing bool) error {
	switch s.Status {
	case "", "OK":
		return nil
	case "ZERO_RESULTS":
		if zeroIsMissing {
			return domain.ErrNotFound
		}
		return nil
	case "NOT_FOUND", "INVALID_REQUEST":
		return domain.ErrNotFound
	case "REQUEST_DENIED":
		return fmt.Errorf("%w: %s", upstream.ErrForbidden, s.ErrorMessage)
	default:
		return fmt.Errorf("places: status %s: %s", s.Status, s.ErrorMessage)
	}
}

func toDetails(p placeResult) domain.PlaceDetails {
	d := domain.PlaceDetails{
		PlaceID:          p.PlaceID,
		Name:             p.Name,
		FormattedAddress: p.FormattedAddress,
		Location:         domain.Coordinates{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng},
	}
	for _, ac := range p.AddressComponents {
		d.Components = append(d.Components, domain.AddressComponent{
			LongName: ac.LongName, ShortName: ac.ShortName, Types: ac.Types,
		})
	}
	return d
}

// locality picks the most specific settlement name from address components.
func locality(cs []domain.AddressComponent) string {
	for _, want := range []string{"locality", "postal_town", "sublocality", "administrative_area_level_2", "administrative_area_level_1"} {
		for _, c := range cs {
			for _, t := range c.Types {
				if t == want {
					return c.LongName
				}
			}
		}
	}
	return ""
}
