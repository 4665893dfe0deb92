package game

import "errors"

var (
	// ErrIllegalAction is returned when an action is performed or undone that the state does not allow.
	ErrIllegalAction = errors.New("illegal action")
	// ErrUndoUnsupported is returned by games that cannot reverse an action.
	ErrUndoUnsupported = errors.New("undo not supported")
	// ErrNoLegalAction is returned when a decision is requested for a terminal state.
	ErrNoLegalAction = errors.New("no legal action")
)

// Player identifies a participant in the fixed player rotation of a game.
type Player int

// NoPlayer is the absent player, e.g. the winner of a drawn or unfinished game.
const NoPlayer Player = 0

const (
	PlayerOne Player = iota + 1
	PlayerTwo
)

// State is a mutable game position. Any game that aims to be playable by the
// searcher and engine packages implements it.
//
// Copy must return a state that shares no mutable storage with the receiver:
// searches run on copies in the background while the canonical state keeps
// changing.
type State interface {
	// LegalActions returns the actions available to the current player, empty
	// for a terminal state. The slice belongs to the caller.
	LegalActions() []Action
	// Perform applies a legal action and advances to the next player
	Perform(Action) error
	// Undo reverts the most recent Perform of the same action
	Undo(Action) error
	Copy() State
	IsTerminal() bool
	// Winner returns NoPlayer until the game is won, and for a draw
	Winner() Player
	CurrentPlayer() Player
	PlayerAfter(Player) Player
	PlayerBefore(Player) Player
	// ActionString renders an action for reports
	ActionString(Action) string
	String() string
}

// Contains reports whether action is among actions.
func Contains(actions []Action, action Action) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
