package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"staymap/internal/domain"
)

// ResolveDeviceLocation asks g for a one-shot position. A timeout or an
// error means the device location is unavailable and nil is returned.
func ResolveDeviceLocation(ctx context.Context, g domain.Geolocator, timeout time.Duration) *domain.SearchLocation {
	if g == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		c   domain.Coordinates
		err error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := g.Locate(ctx)
		ch <- result{c, err}
	}()

	select {
	case <-ctx.Done():
		log.Debug().Err(ctx.Err()).Msg("device location timed out")
		return nil
	case r := <-ch:
		if r.err != nil {
			log.Debug().Err(r.err).Msg("device location unavailable")
			return nil
		}
		return &r.c
	}
}

// DeviceDestination turns a device position into a destination label,
// preferring the reverse geocoded place name.
func (s *QueryService) DeviceDestination(ctx context.Context, c domain.Coordinates) string {
	d, err := s.places.ReverseGeocode(ctx, c)
	if err != nil || d.Name == "" {
		return CurrentLocationLabel
	}
	return d.Name
}
