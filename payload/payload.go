// Package payload implements the logical locator document — its Go
// shape, validation, and canonical JSON codec.
package payload

import (
	"encoding/json"

	"github.com/sage-x-project/nostrlocator/locerr"
)

// CurrentVersion is the only payload version this implementation produces.
const CurrentVersion = 1

// Endpoint describes one reachable address a resolver may hand to callers.
type Endpoint struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Priority *int   `json:"priority,omitempty"`
	Family   string `json:"family,omitempty"`
	K        string `json:"k,omitempty"`
}

// PriorityOrDefault returns the endpoint's stated priority, or 1000 when
// absent.
func (e Endpoint) PriorityOrDefault() int {
	if e.Priority == nil {
		return 1000
	}
	return *e.Priority
}

// UnmarshalJSON accepts either "url" or "uri" for the address field,
// normalizing to the canonical "url" field on the in-memory value.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	type alias Endpoint
	var aux struct {
		alias
		URI string `json:"uri,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Endpoint(aux.alias)
	if e.URL == "" && aux.URI != "" {
		e.URL = aux.URI
	}
	return nil
}

// Payload is the logical locator document carried (possibly encrypted)
// inside an event's content.
type Payload struct {
	V         int        `json:"v"`
	TTL       int64      `json:"ttl"`
	UpdatedAt int64      `json:"updated_at"`
	Endpoints []Endpoint `json:"endpoints"`
	Caps      []string   `json:"caps,omitempty"`
	Notes     string     `json:"notes,omitempty"`

	// extra preserves any field this implementation doesn't recognize, so
	// round-tripping an unknown-field payload through Decode/Encode doesn't
	// silently drop data.
	extra map[string]json.RawMessage
}

// ExpiryUnix returns the calculated end of the freshness window,
// updated_at + ttl.
func (p Payload) ExpiryUnix() int64 { return p.UpdatedAt + p.TTL }

// Validate enforces the basic invariants: v >= 1, ttl >= 0, and a
// non-empty, non-nil endpoints slice.
func (p Payload) Validate() error {
	if p.V < 1 {
		return locerr.NewArgumentError("payload version must be >= 1", nil)
	}
	if p.TTL < 0 {
		return locerr.NewArgumentError("payload ttl must be >= 0", nil)
	}
	if p.Endpoints == nil {
		return locerr.NewArgumentError("payload endpoints must be present", nil)
	}
	if len(p.Endpoints) == 0 {
		return locerr.NewArgumentError("payload endpoints must be non-empty", nil)
	}
	return nil
}
