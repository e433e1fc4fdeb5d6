package places_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"staymap/internal/adapters/places"
	"staymap/internal/domain"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/place/autocomplete/json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k" {
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","predictions":[
			{"description":"Bengaluru, Karnataka, India","place_id":"blr",
			 "structured_formatting":{"main_text":"Bengaluru","secondary_text":"Karnataka, India"}}]}`))
	})
	mux.HandleFunc("/place/details/json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("place_id") != "blr" {
			_, _ = w.Write([]byte(`{"status":"NOT_FOUND"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","result":{
			"name":"Bengaluru","formatted_address":"Bengaluru, Karnataka, India",
			"geometry":{"location":{"lat":12.9716,"lng":77.5946}},
			"address_components":[{"long_name":"Bengaluru","short_name":"Bengaluru","types":["locality","political"]}]}}`))
	})
	mux.HandleFunc("/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"place_id":"g1","formatted_address":"MG Road, Bengaluru",
			"address_components":[{"long_name":"MG Road","types":["route"]},{"long_name":"Bengaluru","types":["locality"]}]}]}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestAutocomplete(t *testing.T) {
	c := places.New(fakeAPI(t).URL, "k", 100)
	got, err := c.Autocomplete(context.Background(), "beng")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 1 || got[0].PlaceID != "blr" || got[0].MainText != "Bengaluru" {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
}

func TestAutocomplete_EmptyInputSkipsCall(t *testing.T) {
	c := places.New("http://127.0.0.1:1", "k", 100)
	got, err := c.Autocomplete(context.Background(), "   ")
	if err != nil || len(got) != 0 {
		t.Fatalf("got %+v err %v", got, err)
	}
}

func TestAutocomplete_Denied(t *testing.T) {
	c := places.New(fakeAPI(t).URL, "wrong", 100)
	if _, err := c.Autocomplete(context.Background(), "beng"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDetails(t *testing.T) {
	c := places.New(fakeAPI(t).URL, "k", 100)
	d, err := c.Details(context.Background(), "blr")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if d.PlaceID != "blr" || d.Location.Lat != 12.9716 || d.Location.Lng != 77.5946 || d.Name != "Bengaluru" {
		t.Fatalf("unexpected details: %+v", d)
	}

	if _, err := c.Details(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReverseGeocode(t *testing.T) {
	c := places.New(fakeAPI(t).URL, "k", 100)
	pos := domain.Coordinates{Lat: 12.975, Lng: 77.605}
	d, err := c.ReverseGeocode(context.Background(), pos)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if d.Name != "Bengaluru" || d.Location != pos {
		t.Fatalf("unexpected: %+v", d)
	}
}
