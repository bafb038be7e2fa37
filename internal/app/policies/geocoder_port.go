package policies

import (
	"context"
	"errors"
)

var ErrAddressNotFound = errors.New("policies: address not found")

// Geocoder resolves a free-form address into coordinates. Lookups are
// opportunistic and callers treat failures as non fatal.
type Geocoder interface {
	Locate(ctx context.Context, address string) (lat, lon float64, err error)
}
