package searcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUCB(t *testing.T) {
	t.Run("unvisited parent", func(t *testing.T) {
		require.Panics(t, func() { newUCB(CSquared, 0) })
	})

	t.Run("score", func(t *testing.T) {
		got := newUCB(2.0, 100).score(5.0, 10)

		require.InDelta(t, 5.0/10+math.Sqrt(2.0*math.Log(100)/10), got, 1e-9)
	})

	t.Run("unvisited child", func(t *testing.T) {
		require.Panics(t, func() { newUCB(2.0, 100).score(5.0, 0) })
	})

	t.Run("exploration grows with parent visits and shrinks with child visits", func(t *testing.T) {
		require.Greater(t, newUCB(2.0, 1000).score(5, 10), newUCB(2.0, 100).score(5, 10))
		require.Greater(t, newUCB(2.0, 100).score(5, 10), newUCB(2.0, 100).score(5, 20))
	})

	t.Run("best keeps the first of equal children", func(t *testing.T) {
		first := &node{action: 1, rewards: 2, visits: 4}
		second := &node{action: 2, rewards: 2, visits: 4}

		require.Same(t, first, newUCB(CSquared, 8).best([]*node{first, second}))
		require.Nil(t, newUCB(CSquared, 8).best(nil))
	})
}
