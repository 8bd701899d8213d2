package resolver

import (
	"context"

	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/internal/logger"
	"github.com/sage-x-project/nostrlocator/relaypool"
)

// discoverGossipRelays issues get(bootstrap, {authors, kinds:[10002]}) and,
// on a verified result from the expected author, returns the deduplicated
// set of its "r" tag values. Any failure here is non-fatal: callers should
// log and continue with the bootstrap set alone.
func discoverGossipRelays(ctx context.Context, pool relaypool.Pool, bootstrap []string, hexPubkey string, log logger.Logger) []string {
	ev, err := pool.Get(ctx, bootstrap, relaypool.Filter{
		Authors: []string{hexPubkey},
		Kinds:   []int{event.RelayListKind},
	})
	if err != nil {
		log.Warn("gossip discovery query failed", logger.Error(err))
		return nil
	}
	if ev == nil {
		return nil
	}
	if !event.Verify(*ev) {
		log.Warn("gossip relay-list event failed verification")
		return nil
	}
	if ev.PubKey != hexPubkey {
		log.Warn("gossip relay-list event author mismatch")
		return nil
	}

	seen := make(map[string]struct{})
	var relays []string
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == "r" {
			if _, dup := seen[tag[1]]; dup {
				continue
			}
			seen[tag[1]] = struct{}{}
			relays = append(relays, tag[1])
		}
	}
	return relays
}
