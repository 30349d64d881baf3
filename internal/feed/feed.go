// Package feed provides the data feed client: per-element heat values
// fetched by visualization mode, with push updates over a subscription.
package feed

import (
	"context"
	"fmt"
)

// Item carries one element's heat value. Heat is normalized to [0,1].
type Item struct {
	TargetID int     `json:"targetId"`
	Heat     float64 `json:"heatValue"`
}

// Clamp forces the heat value into [0,1].
func (it Item) Clamp() Item {
	if it.Heat < 0 {
		it.Heat = 0
	}
	if it.Heat > 1 {
		it.Heat = 1
	}
	return it
}

// Handlers receive push updates from a subscription. OnChange delivers a
// full replacement item set; OnError reports transport or decode failures.
type Handlers struct {
	OnChange func(items []Item)
	OnError  func(err error)
}

// Subscription is an opaque cancellation handle. Cancel is idempotent; the
// consumer contract is at most one live handle at a time, cancelled before a
// replacement is created or on teardown.
type Subscription interface {
	Cancel() error
}

// Client fetches heat data for a visualization mode and supports push
// subscriptions. Ordering across in-flight loads is not guaranteed beyond
// "most recent call wins"; callers sequence their own generations.
type Client interface {
	Load(ctx context.Context, mode string) ([]Item, error)
	Subscribe(mode string, h Handlers) (Subscription, error)
}

// FetchError wraps a network or decode failure during Load.
type FetchError struct {
	Mode string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("feed load %s: %v", e.Mode, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
