package clientauth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGate_Check(t *testing.T) {
	g := NewGate("client-1", "s3cr3t")

	require.NoError(t, g.Check("client-1", "s3cr3t"))
	require.ErrorIs(t, g.Check("client-2", "s3cr3t"), ErrMismatch)
	require.ErrorIs(t, g.Check("client-1", "nope"), ErrMismatch)
	require.ErrorIs(t, g.Check("", ""), ErrMismatch)
}

func TestGate_NotConfigured(t *testing.T) {
	require.ErrorIs(t, NewGate("", "s").Check("", "s"), ErrNotConfigured)
	require.ErrorIs(t, NewGate("c", "").Check("c", ""), ErrNotConfigured)

	var g *Gate
	require.ErrorIs(t, g.Check("c", "s"), ErrNotConfigured)
}
