package searcher

import "math"

// ucb ranks the children of one parent by UCB1. The exploration numerator
// c^2*ln(N) only depends on the parent, so it is computed once per selection.
type ucb struct {
	numerator float64
}

func newUCB(cSquared float64, parentVisits int) ucb {
	if parentVisits <= 0 {
		panic("parent of a selected node must have been visited")
	}
	return ucb{numerator: cSquared * math.Log(float64(parentVisits))}
}

// score is rewards/visits + sqrt(c^2*ln(N)/visits).
func (u ucb) score(rewards float64, visits int) float64 {
	if visits <= 0 {
		panic("expanded child must have been visited")
	}
	n := float64(visits)
	return rewards/n + math.Sqrt(u.numerator/n)
}

// best returns the highest scoring child, the earliest expanded one on ties.
func (u ucb) best(children []*node) *node {
	var best *node
	bestScore := math.Inf(-1)
	for _, child := range children {
		if s := u.score(child.rewards, child.visits); s > bestScore {
			best, bestScore = child, s
		}
	}
	return best
}
