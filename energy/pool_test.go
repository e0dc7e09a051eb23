package energy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpendInsufficientLeavesUnchanged(t *testing.T) {
	p := NewPool(100)
	ok := p.Spend(200)
	require.False(t, ok)
	require.Equal(t, int64(100), p.Current())
	require.Equal(t, int64(0), p.Lifetime())
}

func TestSpendSufficient(t *testing.T) {
	p := NewPool(100)
	ok := p.Spend(30)
	require.True(t, ok)
	require.Equal(t, int64(70), p.Current())
	require.Equal(t, int64(30), p.Lifetime())
}

func TestRechargeSaturates(t *testing.T) {
	p := NewPool(100)
	p.Spend(50)
	p.Recharge(1000)
	require.Equal(t, int64(100), p.Current())
}

func TestCriticalAndLow(t *testing.T) {
	p := NewPool(100)
	p.Spend(96)
	require.True(t, p.IsCritical())
	require.True(t, p.IsLow())

	p2 := NewPool(100)
	p2.Spend(90)
	require.False(t, p2.IsCritical())
	require.True(t, p2.IsLow())
}
