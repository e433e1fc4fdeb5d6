package httpserver

import (
	"context"
	"errors"

	"staymap/internal/domain"
)

var errNoPosition = errors.New("no device position shared")

// requestLocator serves the position a client attached to its request.
type requestLocator struct{ lat, lng string }

func (l requestLocator) Locate(ctx context.Context) (domain.Coordinates, error) {
	if l.lat == "" && l.lng == "" {
		return domain.Coordinates{}, errNoPosition
	}
	return parseCoordinates(l.lat, l.lng)
}
