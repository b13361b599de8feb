// Package geo reports the device position used to pre-select the nearest
// clinic. Every lookup is best-effort.
package geo

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds how long the booking form waits for a position.
const DefaultTimeout = 8 * time.Second

var (
	// ErrUnavailable means no position source exists or it could not answer.
	ErrUnavailable = errors.New("geo: position unavailable")
	// ErrDenied means the user refused to share their position.
	ErrDenied = errors.New("geo: permission denied")
)

// Position is a latitude/longitude pair in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Locator yields the device position.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Position, error)

func (f LocatorFunc) Locate(ctx context.Context) (Position, error) { return f(ctx) }

// StaticLocator always reports the same position, e.g. from configuration or
// from coordinates a browser has already posted.
type StaticLocator struct {
	Position Position
}

func (s StaticLocator) Locate(context.Context) (Position, error) { return s.Position, nil }

// DeniedLocator models a user who declined location access.
type DeniedLocator struct{}

func (DeniedLocator) Locate(context.Context) (Position, error) { return Position{}, ErrDenied }

// BestEffort asks locator for a position, giving up after timeout. A nil
// locator yields ErrUnavailable; a timeout yields an error wrapping both
// ErrUnavailable and context.DeadlineExceeded.
func BestEffort(ctx context.Context, locator Locator, timeout time.Duration) (*Position, error) {
	if locator == nil {
		return nil, ErrUnavailable
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type answer struct {
		pos Position
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		pos, err := locator.Locate(ctx)
		ch <- answer{pos, err}
	}()

	select {
	case a := <-ch:
		if a.err != nil {
			return nil, a.err
		}
		return &a.pos, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}
