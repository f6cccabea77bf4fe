// Package images resolves missing primary product images by querying an
// ordered chain of external providers, first valid result wins.
package images

import (
	"context"
	"errors"
)

// Query carries the product fields a provider may search on.
type Query struct {
	Name  string
	Brand string
}

// Provider is one external image source. Fetch returns a candidate image URL
// or ErrNoImage; any other error is treated the same as no result by the
// caller. Each implementation applies its own timeout.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) (string, error)
}

// ErrNoImage signals a provider found nothing for the query.
var ErrNoImage = errors.New("no image found")
