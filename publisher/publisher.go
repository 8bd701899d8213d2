// Package publisher builds and broadcasts locator events to a relay set,
// applying a partial-success policy: a call only fails when every relay
// rejected the publish.
package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/sage-x-project/nostrlocator/config"
	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/internal/logger"
	"github.com/sage-x-project/nostrlocator/internal/metrics"
	"github.com/sage-x-project/nostrlocator/locerr"
	"github.com/sage-x-project/nostrlocator/payload"
	"github.com/sage-x-project/nostrlocator/relaypool"
)

// Mode selects which of event's Build* functions Publish uses to encode a
// payload into an event's content.
type Mode int

const (
	// ModePublic stores the payload verbatim, readable by anyone.
	ModePublic Mode = iota
	// ModeSelf encrypts under the publisher's own self-conversation key.
	ModeSelf
	// ModeTargeted encrypts for a single named recipient.
	ModeTargeted
	// ModeWrapped encrypts for an arbitrary set of recipients.
	ModeWrapped
)

// Request describes one publish call.
type Request struct {
	Mode       Mode
	Payload    payload.Payload
	Recipient  [32]byte   // used by ModeTargeted
	Recipients [][32]byte // used by ModeWrapped
	Options    event.Options
}

// Result is the outcome of one Publish call: the built event and the
// per-relay results reaching it.
type Result struct {
	Event   event.Event
	Relays  []relaypool.PublishResult
	Success []string
	Failed  []string
}

// Publisher builds and broadcasts kind-30058 events.
type Publisher struct {
	pool      relaypool.Pool
	ownsPool  bool
	bootstrap []string
	timeout   time.Duration
	private   bool
	metrics   *metrics.Collectors
	log       logger.Logger
}

// New builds a Publisher. If pool is nil, a relaypool.WSPool is created and
// owned by the Publisher (closed by Close).
func New(cfg config.PublisherConfig, pool relaypool.Pool, collectors *metrics.Collectors) *Publisher {
	ownsPool := false
	if pool == nil {
		pool = relaypool.NewWSPool(collectors)
		ownsPool = true
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultPublisherConfig().Timeout
	}
	return &Publisher{
		pool:      pool,
		ownsPool:  ownsPool,
		bootstrap: cfg.BootstrapRelays,
		timeout:   timeout,
		private:   cfg.PrivateLocator,
		metrics:   collectors,
		log:       logger.GetDefaultLogger().WithFields(logger.String("component", "publisher")),
	}
}

// Close releases this Publisher's pool connections, if it owns the pool.
func (p *Publisher) Close() error {
	if p.ownsPool {
		return p.pool.Close(p.bootstrap)
	}
	return nil
}

// Publish builds req's event under signer and broadcasts it to every
// bootstrap relay (or relays, if non-empty), returning a RelayError only
// when every relay rejected it.
func (p *Publisher) Publish(ctx context.Context, signer identity.Signer, req Request, relays []string) (*Result, error) {
	if err := req.Payload.Validate(); err != nil {
		return nil, err
	}
	if !req.Options.Private && p.private {
		req.Options.Private = true
	}

	body, err := payload.Encode(req.Payload)
	if err != nil {
		return nil, locerr.NewLibraryError("encode payload", err)
	}

	now := time.Now()
	var ev event.Event
	switch req.Mode {
	case ModePublic:
		ev, err = event.BuildPublic(ctx, signer, body, req.Options, now)
	case ModeSelf:
		ev, err = event.BuildSelf(ctx, signer, body, req.Options, now)
	case ModeTargeted:
		ev, err = event.BuildTargeted(ctx, signer, req.Recipient, body, req.Options, now)
	case ModeWrapped:
		ev, err = event.BuildWrapped(ctx, signer, req.Recipients, body, req.Options, now)
	default:
		return nil, locerr.NewArgumentError(fmt.Sprintf("unknown publish mode %d", req.Mode), nil)
	}
	if err != nil {
		return nil, err
	}

	if len(relays) == 0 {
		relays = p.bootstrap
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	results := p.pool.Publish(ctx, relays, ev)

	var success, failed []string
	causes := make(map[string]error)
	for _, r := range results {
		p.metrics.RecordPublishOutcome(r.RelayURL, r.OK)
		if r.OK {
			success = append(success, r.RelayURL)
			continue
		}
		failed = append(failed, r.RelayURL)
		if r.Err != nil {
			causes[r.RelayURL] = r.Err
		} else {
			causes[r.RelayURL] = fmt.Errorf("relay rejected event: %s", r.Message)
		}
	}

	out := &Result{Event: ev, Relays: results, Success: success, Failed: failed}
	if len(success) == 0 && len(results) > 0 {
		return out, locerr.NewRelayError("publish failed on every relay", causes)
	}
	if len(failed) > 0 {
		p.log.Warn("publish partially failed", logger.Int("failed", len(failed)), logger.Int("succeeded", len(success)))
	}
	return out, nil
}
