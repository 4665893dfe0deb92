package searcher

import (
	"fmt"
	"slices"
	"testing"

	"gamesearch/game"

	"github.com/stretchr/testify/require"
)

// mockState is an endless (or terminalAfter-long) game where every action is always legal.
type mockState struct {
	player        game.Player
	actions       []game.Action
	played        []game.Action
	terminalAfter int
	winner        game.Player
}

func newMockState(actions ...game.Action) *mockState {
	return &mockState{player: game.PlayerOne, actions: actions}
}

func (m *mockState) LegalActions() []game.Action {
	if m.IsTerminal() {
		return nil
	}
	return slices.Clone(m.actions)
}

func (m *mockState) Perform(action game.Action) error {
	if !game.Contains(m.LegalActions(), action) {
		return game.ErrIllegalAction
	}
	m.played = append(m.played, action)
	m.player = m.PlayerAfter(m.player)
	return nil
}

func (m *mockState) Undo(game.Action) error {
	return game.ErrUndoUnsupported
}

func (m *mockState) Copy() game.State {
	c := *m
	c.played = append([]game.Action{}, m.played...)
	return &c
}

func (m *mockState) IsTerminal() bool {
	return m.terminalAfter > 0 && len(m.played) >= m.terminalAfter
}

func (m *mockState) Winner() game.Player {
	if m.IsTerminal() {
		return m.winner
	}
	return game.NoPlayer
}

func (m *mockState) CurrentPlayer() game.Player { return m.player }

func (m *mockState) PlayerAfter(p game.Player) game.Player {
	if p == game.PlayerOne {
		return game.PlayerTwo
	}
	return game.PlayerOne
}

func (m *mockState) PlayerBefore(p game.Player) game.Player { return m.PlayerAfter(p) }

func (m *mockState) ActionString(a game.Action) string { return fmt.Sprintf("mock %d", a) }

func (m *mockState) String() string { return fmt.Sprintf("mock %v", m.played) }

func TestNodeExpand(t *testing.T) {
	state := newMockState(1, 2, 3)
	root := newNode(nil, 0, game.NoPlayer, state)
	require.True(t, root.isExpandable())

	require.NoError(t, state.Perform(2))
	child := root.expand(1, game.PlayerOne, state)

	require.Equal(t, game.Action(2), child.action)
	require.Equal(t, game.PlayerOne, child.player, "Child should belong to the player who moved")
	require.Equal(t, root, child.parent)
	require.ElementsMatch(t, []game.Action{1, 3}, root.untried, "Expanded action should leave the untried set")
	require.Equal(t, []*node{child}, root.children)

	t.Run("untried actions do not alias the state", func(t *testing.T) {
		state.actions[0] = 9
		require.ElementsMatch(t, []game.Action{1, 2, 3}, child.untried)
	})
}

func TestNodeBackup(t *testing.T) {
	root := &node{}
	child := &node{parent: root, player: game.PlayerOne}
	grandChild := &node{parent: child, player: game.PlayerTwo}

	grandChild.backup(func(p game.Player) float64 {
		if p == game.PlayerOne {
			return 1
		}
		return 0
	})

	require.Equal(t, 1, root.visits)
	require.Zero(t, root.rewards, "Root should not be rewarded")
	require.Equal(t, 1, child.visits)
	require.Equal(t, 1.0, child.rewards, "Reward should follow the player who moved into the node")
	require.Equal(t, 1, grandChild.visits)
	require.Zero(t, grandChild.rewards)
}

func TestNodeSelectChild(t *testing.T) {
	best := &node{action: 1, rewards: 3, visits: 4}
	other := &node{action: 2, rewards: 1, visits: 4}
	root := &node{children: []*node{other, best}, visits: 8}

	require.Equal(t, best, root.selectChild(CSquared), "Equal visits should favour higher rewards")

	t.Run("exploration favours rarely visited children", func(t *testing.T) {
		rare := &node{action: 3, rewards: 0, visits: 1}
		root := &node{children: []*node{best, rare}, visits: 1000}
		require.Equal(t, rare, root.selectChild(CSquared))
	})
}
