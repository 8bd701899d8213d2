package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := Payload{
		V:         1,
		TTL:       600,
		UpdatedAt: 1766726400,
		Endpoints: []Endpoint{
			{Type: "tcp", URL: "[2001:db8:abcd:42::10]:9735", Priority: intPtr(5), Family: "ipv6"},
			{Type: "tcp", URL: "203.0.113.42:9735", Priority: intPtr(10), Family: "ipv4"},
		},
		Caps: []string{"nostr-connect"},
	}
	require.NoError(t, p.Validate())

	encoded, err := Encode(p)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, p.V, decoded.V)
	assert.Equal(t, p.TTL, decoded.TTL)
	assert.Equal(t, p.UpdatedAt, decoded.UpdatedAt)
	assert.Equal(t, p.Endpoints, decoded.Endpoints)
	assert.Equal(t, p.Caps, decoded.Caps)
}

func TestDecodeRejectsMissingEndpoints(t *testing.T) {
	_, err := Decode([]byte(`{"v":1,"ttl":60,"updated_at":1000}`))
	assert.Error(t, err)
}

func TestDecodeRejectsNonArrayEndpoints(t *testing.T) {
	_, err := Decode([]byte(`{"v":1,"ttl":60,"updated_at":1000,"endpoints":"nope"}`))
	assert.Error(t, err)
}

func TestDecodeRejectsNonNumericTTL(t *testing.T) {
	_, err := Decode([]byte(`{"v":1,"ttl":"soon","updated_at":1000,"endpoints":[]}`))
	assert.Error(t, err)
}

func TestDecodePreservesUnknownFields(t *testing.T) {
	raw := []byte(`{"v":1,"ttl":60,"updated_at":1000,"endpoints":[],"future_field":"kept"}`)
	decoded, err := Decode(raw)
	require.NoError(t, err)

	reencoded, err := Encode(decoded)
	require.NoError(t, err)
	assert.Contains(t, string(reencoded), `"future_field":"kept"`)
}

func TestEndpointAcceptsURIAlias(t *testing.T) {
	var e Endpoint
	require.NoError(t, jsonUnmarshal(`{"type":"tcp","uri":"203.0.113.1:1234"}`, &e))
	assert.Equal(t, "203.0.113.1:1234", e.URL)
}

func TestEndpointPriorityDefaultsTo1000(t *testing.T) {
	e := Endpoint{Type: "tcp", URL: "x"}
	assert.Equal(t, 1000, e.PriorityOrDefault())
}

func TestValidateRejectsEmptyEndpoints(t *testing.T) {
	p := Payload{V: 1, TTL: 0, UpdatedAt: 0, Endpoints: []Endpoint{}}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsVersionZero(t *testing.T) {
	p := Payload{V: 0, TTL: 0, UpdatedAt: 0, Endpoints: []Endpoint{{Type: "tcp", URL: "x"}}}
	assert.Error(t, p.Validate())
}

func jsonUnmarshal(s string, e *Endpoint) error {
	return e.UnmarshalJSON([]byte(s))
}
