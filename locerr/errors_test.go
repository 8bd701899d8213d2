package locerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentErrorUnwraps(t *testing.T) {
	cause := errors.New("bad hex")
	err := NewArgumentError("invalid pubkey", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ArgumentError")
	assert.Contains(t, err.Error(), "invalid pubkey")
}

func TestRelayErrorAggregatesCauses(t *testing.T) {
	causes := map[string]error{
		"wss://a.example": errors.New("dial refused"),
		"wss://b.example": errors.New("timed out"),
	}
	err := NewRelayError("all relays failed", causes)

	assert.Len(t, err.Causes, 2)
	assert.Contains(t, err.Error(), "RelayError")
}

func TestDecryptionErrorDetailsChain(t *testing.T) {
	err := NewDecryptionError("malformed wrap", nil)
	err.WithDetail("recipient", "deadbeef")

	assert.Equal(t, "deadbeef", err.Details()["recipient"])
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := NewTimeoutError("resolve deadline exceeded")
	assert.Contains(t, err.Error(), "TimeoutError")
}
