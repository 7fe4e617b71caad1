package pool

import (
	"testing"

	"github.com/carun/eipsession/internal/plcclient"
	"github.com/stretchr/testify/require"
)

func offlineFactory() (*plcclient.Client, error) {
	return plcclient.NewClient("", 0, plcclient.WithOffline())
}

func TestAcquireCreatesUpToMaxSize(t *testing.T) {
	p := New(2, offlineFactory)

	c1, err := p.Acquire()
	require.NoError(t, err)
	require.NotNil(t, c1)

	c2, err := p.Acquire()
	require.NoError(t, err)
	require.NotNil(t, c2)

	_, err = p.Acquire()
	require.Error(t, err)
	require.Contains(t, err.Error(), "exhausted")
}

func TestReleaseAllowsReuse(t *testing.T) {
	p := New(1, offlineFactory)

	c1, err := p.Acquire()
	require.NoError(t, err)

	p.Release(c1)

	c2, err := p.Acquire()
	require.NoError(t, err)
	require.Same(t, c1, c2)
}

func TestReleasePrefersMostRecentlyReleased(t *testing.T) {
	p := New(2, offlineFactory)

	c1, err := p.Acquire()
	require.NoError(t, err)
	c2, err := p.Acquire()
	require.NoError(t, err)

	p.Release(c1)
	p.Release(c2)

	got, err := p.Acquire()
	require.NoError(t, err)
	require.Same(t, c2, got, "pool should reuse the most recently released client (LIFO)")
}

func TestDropFreesASlotForANewClient(t *testing.T) {
	p := New(1, offlineFactory)

	c1, err := p.Acquire()
	require.NoError(t, err)

	p.Drop(c1)

	c2, err := p.Acquire()
	require.NoError(t, err)
	require.NotSame(t, c1, c2)
}
