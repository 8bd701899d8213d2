// Package selector implements deterministic ordering of resolved
// endpoints by priority and address family.
package selector

import (
	"sort"

	"github.com/sage-x-project/nostrlocator/payload"
)

// familyRank assigns the privacy-preserving tie-break order
// describes: onion first, then ipv6, ipv4, then anything unset or unknown.
func familyRank(family string) int {
	switch family {
	case "onion":
		return 1
	case "ipv6":
		return 2
	case "ipv4":
		return 3
	case "":
		return 4
	default:
		return 5
	}
}

// Select returns a copy of list ordered by ascending priority (missing =
// 1000), then ascending family rank, then original index — a stable sort
// so equal (priority, family) pairs keep their publisher-given order.
func Select(list []payload.Endpoint) []payload.Endpoint {
	out := make([]payload.Endpoint, len(list))
	copy(out, list)

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].PriorityOrDefault(), out[j].PriorityOrDefault()
		if pi != pj {
			return pi < pj
		}
		return familyRank(out[i].Family) < familyRank(out[j].Family)
	})
	return out
}
