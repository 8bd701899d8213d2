package payload

import (
	"encoding/json"

	"github.com/sage-x-project/nostrlocator/locerr"
)

// knownFields lists the payload's named top-level keys; anything else in a
// decoded JSON object is stashed in extra and re-emitted by Encode, for
// forward compatibility with unrecognized fields.
var knownFields = map[string]struct{}{
	"v": {}, "ttl": {}, "updated_at": {}, "endpoints": {}, "caps": {}, "notes": {},
}

// Encode produces the canonical UTF-8 JSON encoding of p, re-emitting any
// unknown fields captured at decode time alongside the known ones.
func Encode(p Payload) ([]byte, error) {
	known, err := json.Marshal(struct {
		V         int        `json:"v"`
		TTL       int64      `json:"ttl"`
		UpdatedAt int64      `json:"updated_at"`
		Endpoints []Endpoint `json:"endpoints"`
		Caps      []string   `json:"caps,omitempty"`
		Notes     string     `json:"notes,omitempty"`
	}{p.V, p.TTL, p.UpdatedAt, p.Endpoints, p.Caps, p.Notes})
	if err != nil {
		return nil, locerr.NewLibraryError("encode payload", err)
	}
	if len(p.extra) == 0 {
		return known, nil
	}

	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, locerr.NewLibraryError("encode payload", err)
	}
	for k, v := range p.extra {
		if _, ok := knownFields[k]; ok {
			continue
		}
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, locerr.NewLibraryError("encode payload", err)
	}
	return out, nil
}

// Decode strictly parses utf8 JSON into a Payload, rejecting any document
// where endpoints is missing/non-array or ttl/updated_at aren't numbers
// Unknown top-level fields are preserved for a later Encode.
func Decode(utf8 []byte) (Payload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(utf8, &raw); err != nil {
		return Payload{}, locerr.NewArgumentError("payload is not a JSON object", err)
	}

	endpointsRaw, ok := raw["endpoints"]
	if !ok {
		return Payload{}, locerr.NewArgumentError("payload is missing endpoints", nil)
	}
	var endpoints []Endpoint
	if err := json.Unmarshal(endpointsRaw, &endpoints); err != nil {
		return Payload{}, locerr.NewArgumentError("payload endpoints must be an array", err)
	}

	var p Payload
	if v, ok := raw["v"]; ok {
		if err := json.Unmarshal(v, &p.V); err != nil {
			return Payload{}, locerr.NewArgumentError("payload v must be a number", err)
		}
	}
	if ttl, ok := raw["ttl"]; ok {
		if err := json.Unmarshal(ttl, &p.TTL); err != nil {
			return Payload{}, locerr.NewArgumentError("payload ttl must be a number", err)
		}
	} else {
		return Payload{}, locerr.NewArgumentError("payload is missing ttl", nil)
	}
	if updatedAt, ok := raw["updated_at"]; ok {
		if err := json.Unmarshal(updatedAt, &p.UpdatedAt); err != nil {
			return Payload{}, locerr.NewArgumentError("payload updated_at must be a number", err)
		}
	} else {
		return Payload{}, locerr.NewArgumentError("payload is missing updated_at", nil)
	}
	if caps, ok := raw["caps"]; ok {
		if err := json.Unmarshal(caps, &p.Caps); err != nil {
			return Payload{}, locerr.NewArgumentError("payload caps must be an array", err)
		}
	}
	if notes, ok := raw["notes"]; ok {
		if err := json.Unmarshal(notes, &p.Notes); err != nil {
			return Payload{}, locerr.NewArgumentError("payload notes must be a string", err)
		}
	}

	p.Endpoints = endpoints
	for k, v := range raw {
		if _, known := knownFields[k]; known {
			continue
		}
		if p.extra == nil {
			p.extra = make(map[string]json.RawMessage, len(raw))
		}
		p.extra[k] = v
	}
	return p, nil
}
