package game

// Evaluator scores a state from the perspective of player.
type Evaluator interface {
	Evaluate(player Player, state State) float64
}

// EvaluatorFunc adapts a plain function to an Evaluator.
type EvaluatorFunc func(player Player, state State) float64

func (f EvaluatorFunc) Evaluate(player Player, state State) float64 {
	return f(player, state)
}

// WinLoss rewards 1 for a win and 0 for a loss at a terminal state, Draw for a
// drawn game and Truncated for a state that is not terminal yet.
type WinLoss struct {
	Draw      float64
	Truncated float64
}

// NewWinLoss returns the default evaluator: draws halfway between a win and a
// loss, truncated rollouts worth nothing.
func NewWinLoss() WinLoss {
	return WinLoss{Draw: 0.5, Truncated: 0}
}

func (w WinLoss) Evaluate(player Player, state State) float64 {
	if !state.IsTerminal() {
		return w.Truncated
	}
	switch state.Winner() {
	case player:
		return 1
	case NoPlayer:
		return w.Draw
	default:
		return 0
	}
}
