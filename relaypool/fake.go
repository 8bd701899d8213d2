package relaypool

import (
	"context"
	"sync"
	"time"

	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/internal/metrics"
)

// Fake is an in-memory Pool for resolver/publisher tests: no real network,
// each relay is just a named bucket of events this process appended to.
type Fake struct {
	mu      sync.Mutex
	byRelay map[string][]event.Event
	// Unreachable names relays that Publish reports as failed and that Query
	// skips without error, used to exercise partial-success and
	// all-relays-failed paths.
	Unreachable map[string]bool
	metrics     *metrics.Collectors
}

var _ Pool = (*Fake)(nil)

// NewFake returns an empty fake pool. collectors may be nil; passing the
// same collectors a resolver/publisher under test uses lets latency
// assertions exercise the same code path as WSPool.
func NewFake(collectors *metrics.Collectors) *Fake {
	return &Fake{
		byRelay:     make(map[string][]event.Event),
		Unreachable: make(map[string]bool),
		metrics:     collectors,
	}
}

// Seed injects an event as if it had already been published to relayURL,
// for setting up resolver test fixtures.
func (f *Fake) Seed(relayURL string, ev event.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byRelay[relayURL] = append(f.byRelay[relayURL], ev)
}

func (f *Fake) Publish(_ context.Context, relays []string, ev event.Event) []PublishResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	results := make([]PublishResult, len(relays))
	for i, relayURL := range relays {
		start := time.Now()
		if f.Unreachable[relayURL] {
			results[i] = PublishResult{RelayURL: relayURL, OK: false, Err: errUnreachable(relayURL)}
			f.metrics.ObserveQueryLatency(relayURL, time.Since(start))
			continue
		}
		f.byRelay[relayURL] = append(f.byRelay[relayURL], ev)
		results[i] = PublishResult{RelayURL: relayURL, OK: true, Message: ""}
		f.metrics.ObserveQueryLatency(relayURL, time.Since(start))
	}
	return results
}

func (f *Fake) Query(_ context.Context, relays []string, filter Filter) ([]event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[string]struct{})
	var out []event.Event
	for _, relayURL := range relays {
		start := time.Now()
		if f.Unreachable[relayURL] {
			f.metrics.ObserveQueryLatency(relayURL, time.Since(start))
			continue
		}
		for _, ev := range f.byRelay[relayURL] {
			if !matches(ev, filter) {
				continue
			}
			if _, dup := seen[ev.ID]; dup {
				continue
			}
			seen[ev.ID] = struct{}{}
			out = append(out, ev)
		}
		f.metrics.ObserveQueryLatency(relayURL, time.Since(start))
	}
	return out, nil
}

func (f *Fake) Get(ctx context.Context, relays []string, filter Filter) (*event.Event, error) {
	events, err := f.Query(ctx, relays, filter)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	newest := &events[0]
	for i := 1; i < len(events); i++ {
		if isNewer(events[i], *newest) {
			newest = &events[i]
		}
	}
	return newest, nil
}

func (f *Fake) Close([]string) error { return nil }

func matches(ev event.Event, filter Filter) bool {
	if len(filter.Kinds) > 0 {
		found := false
		for _, k := range filter.Kinds {
			if ev.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.Authors) > 0 {
		found := false
		for _, a := range filter.Authors {
			if ev.PubKey == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type errUnreachable string

func (e errUnreachable) Error() string { return "relaypool: relay unreachable: " + string(e) }
