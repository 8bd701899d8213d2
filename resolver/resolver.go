// Package resolver implements relay selection, concurrent querying
// under a deadline, event selection, decryption dispatch, freshness
// checking, and the in-memory cache.
package resolver

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sage-x-project/nostrlocator/config"
	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/internal/logger"
	"github.com/sage-x-project/nostrlocator/internal/metrics"
	"github.com/sage-x-project/nostrlocator/locerr"
	"github.com/sage-x-project/nostrlocator/payload"
	"github.com/sage-x-project/nostrlocator/relaypool"
)

// queryLimit bounds the event fetch, shared by resolve and resolve_latest
// so both can use one query code path.
const queryLimit = 50

// cacheSweepInterval is how often the background eviction sweep runs,
// matching the order of magnitude of the cache's own cleanup ticker.
const cacheSweepInterval = 30 * time.Second

// UrlTransformer rewrites one endpoint of a resolved payload, e.g. to turn
// .onion addresses into SOCKS URLs.
type UrlTransformer func(payload.Endpoint) payload.Endpoint

// Options controls per-call resolve behavior.
type Options struct {
	Strict bool
	Gossip bool
}

// Resolver implements the resolve and resolve_latest operations over a relay Pool.
type Resolver struct {
	pool           relaypool.Pool
	ownsPool       bool
	bootstrap      []string
	timeout        time.Duration
	cache          *cache
	metrics        *metrics.Collectors
	log            logger.Logger
	urlTransformer UrlTransformer
	sf             singleflight.Group
}

// New builds a Resolver. If pool is nil, a relaypool.WSPool is created and
// owned by the Resolver (closed by Close); a caller-supplied pool is never
// closed by the Resolver.
func New(cfg config.ResolverConfig, pool relaypool.Pool, collectors *metrics.Collectors) *Resolver {
	ownsPool := false
	if pool == nil {
		pool = relaypool.NewWSPool(collectors)
		ownsPool = true
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultResolverConfig().Timeout
	}
	return &Resolver{
		pool:      pool,
		ownsPool:  ownsPool,
		bootstrap: cfg.BootstrapRelays,
		timeout:   timeout,
		cache:     newCache(cacheSweepInterval),
		metrics:   collectors,
		log:       logger.GetDefaultLogger().WithFields(logger.String("component", "resolver")),
	}
}

// SetURLTransformer installs the optional pure function applied
// to every endpoint in the returned payload, after freshness.
func (r *Resolver) SetURLTransformer(t UrlTransformer) { r.urlTransformer = t }

// Close releases the cache's background sweep goroutine and, if this
// Resolver created its own pool, the pool's connections.
func (r *Resolver) Close() error {
	r.cache.close()
	if r.ownsPool {
		return r.pool.Close(r.bootstrap)
	}
	return nil
}

// Resolve looks up the kind-30058 record identified by (target, identifier),
// decrypting it for caller if needed.
func (r *Resolver) Resolve(ctx context.Context, target string, caller identity.Signer, identifier string, opts Options) (*payload.Payload, error) {
	if identifier == "" {
		identifier = event.DefaultIdentifier
	}
	return r.resolve(ctx, target, caller, identifier, false, opts)
}

// ResolveLatest ignores the "d" tag identifier and returns the freshest
// kind-30058 record from target.
func (r *Resolver) ResolveLatest(ctx context.Context, target string, caller identity.Signer, opts Options) (*payload.Payload, error) {
	return r.resolve(ctx, target, caller, "", true, opts)
}

func (r *Resolver) resolve(ctx context.Context, target string, caller identity.Signer, identifier string, latest bool, opts Options) (*payload.Payload, error) {
	// Step 1: normalize target.
	pubkey, err := identity.NormalizePublicKey(target)
	if err != nil {
		return nil, err
	}
	hexPubkey := identity.PublicKeyHex(pubkey)

	// Step 2: cache lookup.
	key := cacheKey{pubkey: hexPubkey, identifier: cacheIdentifier(identifier, latest)}
	now := time.Now()
	if cached, ok := r.cache.get(key, now); ok {
		r.metrics.RecordCacheLookup(true)
		return &cached, nil
	}
	r.metrics.RecordCacheLookup(false)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Step 3: relay set.
	relays := append([]string(nil), r.bootstrap...)
	if opts.Gossip {
		relays = append(relays, discoverGossipRelays(ctx, r.pool, r.bootstrap, hexPubkey, r.log)...)
		relays = dedupeStrings(relays)
	}

	// Step 4: query, deduped via singleflight so concurrent resolves for the
	// same author and relay set share one round trip instead of each
	// opening its own subscription.
	sfKey := hexPubkey + "|" + strings.Join(relays, ",")
	v, err, _ := r.sf.Do(sfKey, func() (interface{}, error) {
		return r.queryWithDeadline(ctx, relays, hexPubkey)
	})
	if err != nil {
		return nil, err
	}
	events := v.([]event.Event)

	// Step 5: event selection.
	candidate := selectLatestVerified(events, hexPubkey)
	if candidate == nil {
		return nil, nil
	}

	// Step 6: identifier match.
	if !latest && candidate.Identifier() != identifier {
		return nil, nil
	}

	// Step 7: decrypt and parse.
	plaintext, err := event.Decrypt(ctx, *candidate, caller)
	if err != nil {
		r.metrics.RecordDecryptFailure()
		if opts.Strict {
			return nil, err
		}
		r.log.Warn("decryption failed, returning null", logger.Error(err))
		return nil, nil
	}
	if plaintext == nil {
		return nil, nil
	}

	p, err := payload.Decode(plaintext)
	if err != nil {
		if opts.Strict {
			return nil, err
		}
		r.log.Warn("payload decode failed, returning null", logger.Error(err))
		return nil, nil
	}

	// Step 8: freshness.
	explicit := math.Inf(1)
	if expUnix, ok := candidate.ExpirationUnix(); ok {
		explicit = float64(expUnix)
	}
	calculated := float64(p.ExpiryUnix())
	expiry := explicit
	if calculated < expiry {
		expiry = calculated
	}

	if float64(now.Unix()) > expiry {
		if opts.Strict {
			return nil, nil
		}
		r.log.Warn("returning expired payload uncached", logger.String("pubkey", hexPubkey))
		return r.applyTransformer(&p), nil
	}

	// Step 9: cache insert.
	r.cache.put(key, p, time.Unix(int64(expiry), 0))
	return r.applyTransformer(&p), nil
}

func (r *Resolver) applyTransformer(p *payload.Payload) *payload.Payload {
	if r.urlTransformer == nil {
		return p
	}
	transformed := *p
	transformed.Endpoints = make([]payload.Endpoint, len(p.Endpoints))
	for i, ep := range p.Endpoints {
		transformed.Endpoints[i] = r.urlTransformer(ep)
	}
	return &transformed
}

func (r *Resolver) queryWithDeadline(ctx context.Context, relays []string, hexPubkey string) ([]event.Event, error) {
	type result struct {
		events []event.Event
		err    error
	}
	done := make(chan result, 1)
	go func() {
		events, err := r.pool.Query(ctx, relays, relaypool.Filter{
			Authors: []string{hexPubkey},
			Kinds:   []int{event.Kind},
			Limit:   queryLimit,
		})
		done <- result{events: events, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, locerr.NewTimeoutError("resolve deadline exceeded")
	case res := <-done:
		if res.err != nil {
			return nil, locerr.NewRelayError("query failed on every relay", map[string]error{"query": res.err})
		}
		return res.events, nil
	}
}

// selectLatestVerified drops events with the wrong author or a failing
// signature, then picks the head of the (created_at desc, id asc) order
// tie-break rule requires: newest created_at first, smallest id breaks ties.
func selectLatestVerified(events []event.Event, hexPubkey string) *event.Event {
	var candidates []event.Event
	for _, ev := range events {
		if ev.PubKey != hexPubkey {
			continue
		}
		if !event.Verify(ev) {
			continue
		}
		candidates = append(candidates, ev)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt != candidates[j].CreatedAt {
			return candidates[i].CreatedAt > candidates[j].CreatedAt
		}
		return candidates[i].ID < candidates[j].ID
	})
	return &candidates[0]
}

func cacheIdentifier(identifier string, latest bool) string {
	if latest {
		return latestSentinel
	}
	return identifier
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
