// Package connect4 implements four-in-a-row on a 7 column, 6 row board.
package connect4

import (
	"fmt"
	"slices"
	"strings"

	"gamesearch/game"
)

const (
	Width  = 7
	Height = 6
	// Connect is the run length that wins the game
	Connect = 4
)

// Per-player column actions, built once and shared read-only by every state.
var columnActions = buildColumnActions()

func buildColumnActions() map[game.Player][Width]game.Action {
	actions := make(map[game.Player][Width]game.Action, 2)
	for _, player := range []game.Player{game.PlayerOne, game.PlayerTwo} {
		var row [Width]game.Action
		for column := 0; column < Width; column++ {
			row[column] = NewAction(player, column)
		}
		actions[player] = row
	}
	return actions
}

// NewAction packs a drop of player's piece into column.
func NewAction(player game.Player, column int) game.Action {
	return game.Action(int64(player)<<8 | int64(column))
}

// Column returns the column an action drops into.
func Column(action game.Action) int {
	return int(action & 0xff)
}

// Owner returns the player an action belongs to.
func Owner(action game.Action) game.Player {
	return game.Player(action >> 8)
}

// State is a connect four position. The board is indexed [column][row] with
// the origin in the bottom left; 0 marks an empty cell.
type State struct {
	board   [Width][Height]game.Player
	actions []game.Action
	history []game.Action // Performed actions, most recent last
	current game.Player
	winner  game.Player
}

// NewState returns a state set to starting conditions: empty board, player one to move.
func NewState() *State {
	s := &State{current: game.PlayerOne}
	s.actions = s.actionsForCurrentPlayer()
	return s
}

func (s *State) LegalActions() []game.Action {
	return slices.Clone(s.actions)
}

func (s *State) Perform(action game.Action) error {
	if !game.Contains(s.actions, action) {
		return fmt.Errorf("%w: %s", game.ErrIllegalAction, s.ActionString(action))
	}
	column := Column(action)
	row := 0
	for s.board[column][row] != game.NoPlayer {
		row++
	}
	s.board[column][row] = s.current
	s.history = append(s.history, action)
	s.winner = s.computeWinner(s.current, column, row)
	s.current = s.PlayerAfter(s.current)
	s.actions = s.actionsForCurrentPlayer()
	return nil
}

// Undo takes back the most recent drop. Any other action is rejected.
func (s *State) Undo(action game.Action) error {
	if len(s.history) == 0 || s.history[len(s.history)-1] != action {
		return fmt.Errorf("%w: cannot undo %s, it was not the last action", game.ErrIllegalAction, s.ActionString(action))
	}
	column := Column(action)
	row := Height - 1
	for s.board[column][row] == game.NoPlayer {
		row--
	}
	s.board[column][row] = game.NoPlayer
	s.history = s.history[:len(s.history)-1]
	// The game ends on the first run, so no run is left once its last drop is gone
	s.winner = game.NoPlayer
	s.current = Owner(action)
	s.actions = s.actionsForCurrentPlayer()
	return nil
}

func (s *State) Copy() game.State {
	return &State{
		board:   s.board, // Arrays copy by value
		actions: slices.Clone(s.actions),
		history: slices.Clone(s.history),
		current: s.current,
		winner:  s.winner,
	}
}

func (s *State) IsTerminal() bool {
	return s.winner != game.NoPlayer || len(s.actions) == 0
}

func (s *State) Winner() game.Player {
	return s.winner
}

func (s *State) CurrentPlayer() game.Player {
	return s.current
}

func (s *State) PlayerAfter(player game.Player) game.Player {
	if player == game.PlayerOne {
		return game.PlayerTwo
	}
	return game.PlayerOne
}

func (s *State) PlayerBefore(player game.Player) game.Player {
	return s.PlayerAfter(player)
}

// At returns the owner of a cell, NoPlayer if empty.
func (s *State) At(column, row int) game.Player {
	return s.board[column][row]
}

func (s *State) ActionString(action game.Action) string {
	return fmt.Sprintf("player %d drops in column %d", Owner(action), Column(action))
}

func (s *State) String() string {
	var sb strings.Builder
	for row := Height - 1; row >= 0; row-- {
		for column := 0; column < Width; column++ {
			switch s.board[column][row] {
			case game.PlayerOne:
				sb.WriteByte('O')
			case game.PlayerTwo:
				sb.WriteByte('X')
			default:
				sb.WriteByte('-')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// actionsForCurrentPlayer lists drops into every non-full column, none once the game is won.
func (s *State) actionsForCurrentPlayer() []game.Action {
	if s.winner != game.NoPlayer {
		return []game.Action{}
	}
	all := columnActions[s.current]
	actions := make([]game.Action, 0, Width)
	for column := 0; column < Width; column++ {
		if s.board[column][Height-1] == game.NoPlayer {
			actions = append(actions, all[column])
		}
	}
	return actions
}

// computeWinner checks whether player's piece at (column, row) completes a run.
func (s *State) computeWinner(player game.Player, column, row int) game.Player {
	directions := [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for _, d := range directions {
		run := 1 + s.count(player, column, row, d[0], d[1]) + s.count(player, column, row, -d[0], -d[1])
		if run >= Connect {
			return player
		}
	}
	return game.NoPlayer
}

// count returns the number of player's pieces in a line from (column, row), exclusive.
func (s *State) count(player game.Player, column, row, dc, dr int) int {
	n := 0
	for c, r := column+dc, row+dr; c >= 0 && c < Width && r >= 0 && r < Height; c, r = c+dc, r+dr {
		if s.board[c][r] != player {
			break
		}
		n++
	}
	return n
}
