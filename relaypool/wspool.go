package relaypool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/internal/logger"
	"github.com/sage-x-project/nostrlocator/internal/metrics"
)

// WSPool is the default Pool implementation: it dials each relay over a
// real WebSocket connection and frames the NIP-01 wire protocol
// (EVENT/REQ/CLOSE/EOSE/OK). Connections are cached and reused across
// calls; Close tears down the ones named.
type WSPool struct {
	mu      sync.Mutex
	conns   map[string]*websocket.Conn
	log     logger.Logger
	metrics *metrics.Collectors
}

var _ Pool = (*WSPool)(nil)

// NewWSPool returns an empty pool ready to dial relays on demand. collectors
// may be nil, in which case per-relay latency is simply not recorded.
func NewWSPool(collectors *metrics.Collectors) *WSPool {
	return &WSPool{
		conns:   make(map[string]*websocket.Conn),
		log:     logger.GetDefaultLogger().WithFields(logger.String("component", "relaypool")),
		metrics: collectors,
	}
}

func (p *WSPool) connFor(relayURL string) (*websocket.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[relayURL]; ok {
		return conn, nil
	}
	conn, _, err := websocket.DefaultDialer.Dial(relayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("relaypool: dial %s: %w", relayURL, err)
	}
	p.conns[relayURL] = conn
	return conn, nil
}

// Publish sends ev to every relay in relays concurrently, each under ctx's
// deadline, and collects the OK frame (or failure) per relay.
func (p *WSPool) Publish(ctx context.Context, relays []string, ev event.Event) []PublishResult {
	results := make([]PublishResult, len(relays))
	var g errgroup.Group
	for i, relayURL := range relays {
		i, relayURL := i, relayURL
		g.Go(func() error {
			results[i] = p.publishOne(ctx, relayURL, ev)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *WSPool) publishOne(ctx context.Context, relayURL string, ev event.Event) PublishResult {
	start := time.Now()
	defer func() { p.metrics.ObserveQueryLatency(relayURL, time.Since(start)) }()

	conn, err := p.connFor(relayURL)
	if err != nil {
		return PublishResult{RelayURL: relayURL, OK: false, Err: err}
	}

	frame, err := json.Marshal([]interface{}{"EVENT", ev})
	if err != nil {
		return PublishResult{RelayURL: relayURL, OK: false, Err: fmt.Errorf("relaypool: encode EVENT frame: %w", err)}
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return PublishResult{RelayURL: relayURL, OK: false, Err: fmt.Errorf("relaypool: send EVENT: %w", err)}
	}

	type okResult struct {
		ok      bool
		message string
		err     error
	}
	done := make(chan okResult, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				done <- okResult{err: fmt.Errorf("relaypool: read OK: %w", err)}
				return
			}
			var frame []json.RawMessage
			if err := json.Unmarshal(raw, &frame); err != nil || len(frame) < 1 {
				continue
			}
			var label string
			if json.Unmarshal(frame[0], &label) != nil || label != "OK" {
				continue
			}
			var id string
			var ok bool
			var message string
			if len(frame) >= 4 {
				_ = json.Unmarshal(frame[1], &id)
				_ = json.Unmarshal(frame[2], &ok)
				_ = json.Unmarshal(frame[3], &message)
			}
			if id != ev.ID {
				continue
			}
			done <- okResult{ok: ok, message: message}
			return
		}
	}()

	select {
	case <-ctx.Done():
		return PublishResult{RelayURL: relayURL, OK: false, Err: ctx.Err()}
	case res := <-done:
		if res.err != nil {
			return PublishResult{RelayURL: relayURL, OK: false, Err: res.err}
		}
		return PublishResult{RelayURL: relayURL, OK: res.ok, Message: res.message}
	}
}

// Query issues filter as a REQ against every relay in parallel, collecting
// every distinct event (by id) seen before ctx's deadline or before all
// relays have sent EOSE. A relay that fails is logged and skipped; an error
// is returned only when every relay failed.
func (p *WSPool) Query(ctx context.Context, relays []string, filter Filter) ([]event.Event, error) {
	type relayEvents struct {
		events []event.Event
		err    error
	}

	out := make(chan relayEvents, len(relays))
	var g errgroup.Group
	for _, relayURL := range relays {
		relayURL := relayURL
		g.Go(func() error {
			events, err := p.queryOne(ctx, relayURL, filter)
			out <- relayEvents{events: events, err: err}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(out)
	}()

	seen := make(map[string]struct{})
	var merged []event.Event
	failures := 0
	var lastErr error
	for r := range out {
		if r.err != nil {
			p.log.Warn("relay query failed", logger.Error(r.err))
			failures++
			lastErr = r.err
			continue
		}
		for _, ev := range r.events {
			if _, dup := seen[ev.ID]; dup {
				continue
			}
			seen[ev.ID] = struct{}{}
			merged = append(merged, ev)
		}
	}
	if len(relays) > 0 && failures == len(relays) {
		return nil, fmt.Errorf("relaypool: query failed on every relay: %w", lastErr)
	}
	return merged, nil
}

func (p *WSPool) queryOne(ctx context.Context, relayURL string, filter Filter) ([]event.Event, error) {
	start := time.Now()
	defer func() { p.metrics.ObserveQueryLatency(relayURL, time.Since(start)) }()

	conn, err := p.connFor(relayURL)
	if err != nil {
		return nil, err
	}

	sub := uuid.NewString()
	frame, err := json.Marshal([]interface{}{"REQ", sub, filter.toWire()})
	if err != nil {
		return nil, fmt.Errorf("relaypool: encode REQ frame: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return nil, fmt.Errorf("relaypool: send REQ: %w", err)
	}
	defer p.closeSub(conn, sub)

	type readResult struct {
		events []event.Event
		done   bool
		err    error
	}
	msgs := make(chan readResult)
	go func() {
		var events []event.Event
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				msgs <- readResult{err: fmt.Errorf("relaypool: read frame: %w", err)}
				return
			}
			var parts []json.RawMessage
			if err := json.Unmarshal(raw, &parts); err != nil || len(parts) < 2 {
				continue
			}
			var label, frameSub string
			_ = json.Unmarshal(parts[0], &label)
			_ = json.Unmarshal(parts[1], &frameSub)
			if frameSub != sub {
				continue
			}
			switch label {
			case "EVENT":
				if len(parts) < 3 {
					continue
				}
				var ev event.Event
				if json.Unmarshal(parts[2], &ev) == nil {
					events = append(events, ev)
				}
			case "EOSE":
				msgs <- readResult{events: events, done: true}
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-msgs:
		if r.err != nil {
			return nil, r.err
		}
		return r.events, nil
	}
}

func (p *WSPool) closeSub(conn *websocket.Conn, sub string) {
	frame, err := json.Marshal([]interface{}{"CLOSE", sub})
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, frame)
}

// Get returns the single newest event matching filter, applying the same
// (created_at desc, id asc) tie-break as the resolver's event selection.
func (p *WSPool) Get(ctx context.Context, relays []string, filter Filter) (*event.Event, error) {
	events, err := p.Query(ctx, relays, filter)
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

// isNewer reports whether a should be preferred over b: higher created_at
// wins; ties go to the lexicographically smaller id.
func isNewer(a, b event.Event) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.ID < b.ID
}

// Close closes and forgets the named relay connections.
func (p *WSPool) Close(relays []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, relayURL := range relays {
		conn, ok := p.conns[relayURL]
		if !ok {
			continue
		}
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.conns, relayURL)
	}
	return firstErr
}

func (f Filter) toWire() map[string]interface{} {
	wire := map[string]interface{}{}
	if len(f.Authors) > 0 {
		wire["authors"] = f.Authors
	}
	if len(f.Kinds) > 0 {
		wire["kinds"] = f.Kinds
	}
	if f.Limit > 0 {
		wire["limit"] = f.Limit
	}
	return wire
}
