package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staymap/internal/adapters/catalog"
	"staymap/internal/adapters/upstream"
)

func TestClient_ListListings_Envelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/listings" || r.Header.Get("X-API-Key") != "test-key" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"data":[{"id":"a"},{"id":"b"}],"next_page":2}`))
		default:
			_, _ = w.Write([]byte(`{"data":[{"id":"c"}],"next_page":null}`))
		}
	}))
	defer ts.Close()

	cl, err := catalog.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	items, more, err := cl.ListListings(ctx, 1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(items) != 2 || !more {
		t.Fatalf("page 1: items=%d more=%v", len(items), more)
	}
	items, more, err = cl.ListListings(ctx, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(items) != 1 || more || items[0]["id"] != "c" {
		t.Fatalf("page 2: items=%+v more=%v", items, more)
	}
}

func TestClient_ListListings_BareArray(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"x"}]`))
	}))
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "test-key", 100)
	items, more, err := cl.ListListings(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 1 || more {
		t.Fatalf("items=%d more=%v", len(items), more)
	}
}

func TestClient_GetListing_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "test-key", 100)
	_, err := cl.GetListing(context.Background(), "missing")
	if !errors.Is(err, upstream.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := catalog.New("http://example.test", "", 5); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
