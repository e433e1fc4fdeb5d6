package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"staymap/internal/app"
	"staymap/internal/display"
	"staymap/internal/domain"
	"staymap/internal/viewport"
)

func newStore(places *fakePlaces) *app.SessionStore {
	q, _ := newService(&fakeRepo{hotels: fixtures()}, places)
	return app.NewSessionStore(q, viewport.WithDebounce(10*time.Millisecond))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSession_StalePlaceLookupDiscarded(t *testing.T) {
	gate := make(chan struct{})
	places := &fakePlaces{
		details: map[string]domain.PlaceDetails{
			"slow":  {Name: "Lyon", Location: lyon},
			"paris": {Name: "Paris", Location: paris},
		},
		gates: map[string]chan struct{}{"slow": gate},
	}
	s := newStore(places).Create()
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.SetDestination(ctx, "", "slow") }()
	waitFor(t, func() bool { return places.calls.Load() == 1 })

	if err := s.SetDestination(ctx, "Paris", "paris"); err != nil {
		t.Fatalf("newer destination: %v", err)
	}
	close(gate)
	if err := <-done; !errors.Is(err, domain.ErrStale) {
		t.Fatalf("want ErrStale for the superseded lookup, got %v", err)
	}

	r := s.Results(ctx)
	if r.Destination != "Paris" || r.Mode != domain.ModeAutoMax {
		t.Fatalf("stale response leaked: %+v", r)
	}
	sameIDs(t, r.Hotels, "marais", "louvre")
}

func TestSession_AutoFitUntilUserTakesOver(t *testing.T) {
	s := newStore(&fakePlaces{}).Create()
	ctx := context.Background()
	if err := s.SetDestination(ctx, "Lyon", ""); err != nil {
		t.Fatalf("err: %v", err)
	}

	r := s.Results(ctx)
	if r.FitBounds == nil || !r.FitBounds.Contains(lyon) {
		t.Fatalf("expected auto-fit around lyon, got %+v", r.FitBounds)
	}
	if r.Dirty {
		t.Fatalf("programmatic fit must not mark dirty")
	}

	for _, ev := range []string{app.EventLoaded, app.EventDragStart} {
		if _, err := s.HandleMapEvent(app.MapEvent{Type: ev}); err != nil {
			t.Fatalf("%s: %v", ev, err)
		}
	}
	r = s.Results(ctx)
	if r.FitBounds != nil || !r.Dirty || !r.AutoFitSuppressed {
		t.Fatalf("user interaction should suppress fit and mark dirty: %+v", r)
	}

	fit := domain.MapBounds{North: 50, South: 40, East: 10, West: 0}
	if ok, _ := s.HandleMapEvent(app.MapEvent{Type: app.EventFit, Bounds: &fit}); ok {
		t.Fatalf("fit should be refused while suppressed")
	}

	s.HandleMapEvent(app.MapEvent{Type: app.EventResetView})
	r = s.Results(ctx)
	if r.FitBounds == nil || r.Dirty || r.AutoFitSuppressed {
		t.Fatalf("reset should re-enable auto-fit: %+v", r)
	}
}

func TestSession_BoundsDrivenWithoutDestination(t *testing.T) {
	s := newStore(&fakePlaces{}).Create()
	ctx := context.Background()

	if r := s.Results(ctx); r.Source != display.SourceAll || r.Total != 4 {
		t.Fatalf("want all hotels before bounds, got %+v", r)
	}

	box := domain.MapBounds{North: 46, South: 45.5, East: 5, West: 4.5}
	if _, err := s.HandleMapEvent(app.MapEvent{Type: app.EventBoundsChanged, Bounds: &box}); err != nil {
		t.Fatalf("err: %v", err)
	}
	waitFor(t, func() bool { return s.Results(ctx).Source == display.SourceBounds })
	sameIDs(t, s.Results(ctx).Hotels, "bellecour")
}

func TestSession_MapViewOverrideClearsOnNewDestination(t *testing.T) {
	s := newStore(&fakePlaces{}).Create()
	ctx := context.Background()

	box := domain.MapBounds{North: 49, South: 48.5, East: 2.6, West: 2.0}
	s.HandleMapEvent(app.MapEvent{Type: app.EventBoundsChanged, Bounds: &box})
	waitFor(t, func() bool { return s.Results(ctx).Bounds != nil })

	_ = s.SetDestination(ctx, "Berlin", "")
	if r := s.Results(ctx); r.Source != display.SourceNone || r.Banner {
		t.Fatalf("want empty destination, got %+v", r)
	}

	s.ShowMapView()
	r := s.Results(ctx)
	if r.Source != display.SourceMapView || !r.Banner {
		t.Fatalf("want map view override, got %+v", r)
	}
	sameIDs(t, r.Hotels, "louvre", "marais")

	_ = s.SetDestination(ctx, "Paris", "")
	r = s.Results(ctx)
	if r.Source != display.SourceDestination || r.Banner {
		t.Fatalf("new destination should drop the override, got %+v", r)
	}
}

func TestSession_MapEventValidation(t *testing.T) {
	s := newStore(&fakePlaces{}).Create()
	if _, err := s.HandleMapEvent(app.MapEvent{Type: "pinch"}); !errors.Is(err, app.ErrUnknownEvent) {
		t.Fatalf("want ErrUnknownEvent, got %v", err)
	}
	if _, err := s.HandleMapEvent(app.MapEvent{Type: app.EventBoundsChanged}); err == nil {
		t.Fatalf("bounds_changed without bounds should fail")
	}
}

func TestSessionStore_GetDeleteSweep(t *testing.T) {
	st := newStore(&fakePlaces{})
	a := st.Create()
	b := st.Create()
	if a.ID == b.ID || st.Len() != 2 {
		t.Fatalf("sessions not distinct")
	}
	if got, ok := st.Get(a.ID); !ok || got != a {
		t.Fatalf("get failed")
	}
	if !st.Delete(a.ID) || st.Delete(a.ID) {
		t.Fatalf("delete should succeed once")
	}

	if n := st.Sweep(time.Hour); n != 0 {
		t.Fatalf("fresh session swept")
	}
	time.Sleep(5 * time.Millisecond)
	if n := st.Sweep(time.Millisecond); n != 1 || st.Len() != 0 {
		t.Fatalf("idle session not swept: n=%d len=%d", n, st.Len())
	}
}

type geoFunc func(ctx context.Context) (domain.Coordinates, error)

func (f geoFunc) Locate(ctx context.Context) (domain.Coordinates, error) { return f(ctx) }

func TestResolveDeviceLocation(t *testing.T) {
	ctx := context.Background()

	got := app.ResolveDeviceLocation(ctx, geoFunc(func(context.Context) (domain.Coordinates, error) {
		return paris, nil
	}), time.Second)
	if got == nil || *got != paris {
		t.Fatalf("want paris, got %v", got)
	}

	denied := geoFunc(func(context.Context) (domain.Coordinates, error) {
		return domain.Coordinates{}, errors.New("permission denied")
	})
	if got := app.ResolveDeviceLocation(ctx, denied, time.Second); got != nil {
		t.Fatalf("error should mean no location, got %v", got)
	}

	hang := geoFunc(func(ctx context.Context) (domain.Coordinates, error) {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return paris, nil
	})
	if got := app.ResolveDeviceLocation(ctx, hang, 20*time.Millisecond); got != nil {
		t.Fatalf("timeout should mean no location, got %v", got)
	}
	if got := app.ResolveDeviceLocation(ctx, nil, time.Second); got != nil {
		t.Fatalf("nil locator should mean no location")
	}
}

func TestDeviceDestination(t *testing.T) {
	q, _ := newService(&fakeRepo{}, &fakePlaces{reverse: domain.PlaceDetails{Name: "Montmartre"}})
	if got := q.DeviceDestination(context.Background(), paris); got != "Montmartre" {
		t.Fatalf("got %q", got)
	}
	q, _ = newService(&fakeRepo{}, &fakePlaces{})
	if got := q.DeviceDestination(context.Background(), paris); got != app.CurrentLocationLabel {
		t.Fatalf("got %q", got)
	}
}
