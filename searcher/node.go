package searcher

import "gamesearch/game"

// node is a position in a single goroutine's search tree. Rewards are kept
// from the perspective of the player who performed the action leading here.
type node struct {
	parent   *node
	action   game.Action
	player   game.Player
	untried  []game.Action
	children []*node
	rewards  float64
	visits   int
}

func newNode(parent *node, action game.Action, player game.Player, state game.State) *node {
	return &node{
		parent:  parent,
		action:  action,
		player:  player,
		untried: state.LegalActions(),
	}
}

func (n *node) isExpandable() bool {
	return len(n.untried) > 0
}

// expand removes the untried action at index i and adds its child, built from
// the state after the action was performed by player.
func (n *node) expand(i int, player game.Player, state game.State) *node {
	action := n.untried[i]
	n.untried[i] = n.untried[len(n.untried)-1]
	n.untried = n.untried[:len(n.untried)-1]

	child := newNode(n, action, player, state)
	n.children = append(n.children, child)
	return child
}

// selectChild returns the child with the highest UCB1 score. Every child has
// been visited once it was expanded.
func (n *node) selectChild(cSquared float64) *node {
	return newUCB(cSquared, n.visits).best(n.children)
}

func (n *node) backup(evaluate func(game.Player) float64) {
	for cur := n; cur != nil; cur = cur.parent {
		cur.visits++
		if cur.parent != nil { // Root has no incoming action to reward
			cur.rewards += evaluate(cur.player)
		}
	}
}
