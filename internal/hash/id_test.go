package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestID_Deterministic(t *testing.T) {
	require.Equal(t, ID("robot-1"), ID("robot-1"))
	require.NotEqual(t, ID("robot-1"), ID("robot-2"))
}

func TestEntityID(t *testing.T) {
	a := EntityID("rover-alpha")
	b := EntityID("rover-beta")

	require.Equal(t, a, EntityID("rover-alpha"), "must be stable across calls")
	require.NotEqual(t, a, b)

	// Ids must survive the float32 lane of the wire format exactly.
	require.Less(t, a, uint32(1<<24))
	require.Equal(t, a, uint32(float32(a)))
}
