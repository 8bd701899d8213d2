// Package relaypool provides the thin relay-pool abstraction the
// resolver and publisher consume. The interface is the core contract;
// wspool.go provides a concrete gorilla/websocket-backed default.
package relaypool

import (
	"context"

	"github.com/sage-x-project/nostrlocator/event"
)

// Filter selects events for Query/Get, mirroring the subset of NIP-01
// filter fields this library needs from a NIP-01 REQ frame.
type Filter struct {
	Authors []string
	Kinds   []int
	Limit   int
}

// PublishResult is one relay's outcome for a single publish call, resolved
// to a value here (rather than a future) since Go callers
// consume a slice rather than awaiting futures individually).
type PublishResult struct {
	RelayURL string
	OK       bool
	Message  string
	Err      error
}

// Pool is the capability the resolver and publisher depend on:
// publish to N relays with per-relay outcomes, query/get under a deadline,
// and close. Deduplicating identical concurrent subscriptions and honoring
// the caller's deadline are the adapter's responsibility.
type Pool interface {
	// Publish sends ev to every relay in relays and returns one result per
	// relay. It never returns an error itself: failure is expressed per-relay.
	Publish(ctx context.Context, relays []string, ev event.Event) []PublishResult
	// Query issues a synchronous filter-based query against relays and
	// returns every distinct event seen before ctx's deadline or EOSE from
	// all relays, whichever comes first.
	Query(ctx context.Context, relays []string, filter Filter) ([]event.Event, error)
	// Get returns the single newest event matching filter across relays,
	// or nil if none matched before the deadline.
	Get(ctx context.Context, relays []string, filter Filter) (*event.Event, error)
	// Close releases any connections this pool owns to relays.
	Close(relays []string) error
}
