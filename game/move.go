package game

import "fmt"

// Action is a packed integer encoding a player and the parameters of a move.
// Actions compare by value and order by their integer value.
type Action int64

// ActionScore pairs an action with its estimated value on the evaluator's scale.
type ActionScore struct {
	Action Action
	Score  float64
}

func (as ActionScore) String() string {
	return fmt.Sprintf("action=%d score=%.3f", as.Action, as.Score)
}
