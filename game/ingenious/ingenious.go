// Package ingenious implements a hex-tile scoring game: players place two-hex
// pieces on a hexagonal board and score colour runs radiating from each hex.
// The lowest colour score of a player decides the game.
package ingenious

import (
	"fmt"
	"slices"
	"strings"

	"gamesearch/game"

	"golang.org/x/exp/rand"
)

const (
	BoardSize = 11
	HandSize  = 6
	NumColors = 6

	MinPlayers = 2
	MaxPlayers = 4
)

// Hex is the content of a board cell.
type Hex uint8

const (
	Empty Hex = iota
	Red
	Orange
	Yellow
	Green
	Blue
	Purple
	OffBoard
)

var hexNames = [...]string{"..", "Re", "Or", "Ye", "Gr", "Bl", "Pu", "  "}

func (h Hex) String() string {
	if int(h) < len(hexNames) {
		return hexNames[h]
	}
	return "??"
}

// Piece is a pair of hexes, stored with First <= Second.
type Piece struct {
	First, Second Hex
}

func newPiece(a, b Hex) Piece {
	if a > b {
		a, b = b, a
	}
	return Piece{First: a, Second: b}
}

func (p Piece) String() string {
	return p.First.String() + "/" + p.Second.String()
}

// direction is an axial step on the board
type direction struct{ dx, dy int }

// NE, E, SE, SW, W, NW
var directions = [6]direction{{1, -1}, {1, 0}, {0, 1}, {-1, 1}, {-1, 0}, {0, -1}}

// NewAction packs player placing piece's First hex at (x1, y1) and Second at (x2, y2).
func NewAction(player game.Player, piece Piece, x1, y1, x2, y2 int) game.Action {
	v := int64(player)
	v = v<<4 | int64(piece.First)
	v = v<<4 | int64(piece.Second)
	v = v<<4 | int64(x1)
	v = v<<4 | int64(y1)
	v = v<<4 | int64(x2)
	v = v<<4 | int64(y2)
	return game.Action(v)
}

// Placement is an unpacked action.
type Placement struct {
	Player         game.Player
	Piece          Piece
	X1, Y1, X2, Y2 int
}

// Unpack decodes an action built by NewAction.
func Unpack(action game.Action) Placement {
	v := int64(action)
	field := func(shift int) int64 { return (v >> shift) & 0xf }
	return Placement{
		Player: game.Player(v >> 24),
		Piece:  Piece{First: Hex(field(20)), Second: Hex(field(16))},
		X1:     int(field(12)),
		Y1:     int(field(8)),
		X2:     int(field(4)),
		Y2:     int(field(0)),
	}
}

// State is a position of the game for two to four players.
type State struct {
	board   [BoardSize][BoardSize]Hex
	players int
	current game.Player
	hands   [][HandSize]Piece
	scores  [][NumColors]int
	actions []game.Action
	bag     rand.PCGSource // Copies by value, so copies draw the same pieces
}

// NewState returns a state set to starting conditions. The seed determines the
// sequence of pieces drawn from the bag, so equal seeds give equal games.
func NewState(players int, seed uint64) (*State, error) {
	if players < MinPlayers || players > MaxPlayers {
		return nil, fmt.Errorf("ingenious supports %d to %d players, got %d", MinPlayers, MaxPlayers, players)
	}
	s := &State{
		players: players,
		current: game.PlayerOne,
		hands:   make([][HandSize]Piece, players),
		scores:  make([][NumColors]int, players),
	}
	s.bag.Seed(seed)
	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			if !onBoard(x, y) {
				s.board[x][y] = OffBoard
			}
		}
	}
	for i := range s.hands {
		for j := range s.hands[i] {
			s.hands[i][j] = s.draw()
		}
	}
	s.actions = s.actionsForCurrentPlayer()
	return s, nil
}

// onBoard reports whether (x, y) lies on the hexagon inside the square array.
func onBoard(x, y int) bool {
	return x >= 0 && y >= 0 && x < BoardSize && y < BoardSize && x+y >= 5 && x+y <= 15
}

// draw takes the next piece from the bag.
func (s *State) draw() Piece {
	v := s.bag.Uint64()
	return newPiece(Hex(v%NumColors)+Red, Hex((v/NumColors)%NumColors)+Red)
}

func (s *State) LegalActions() []game.Action {
	return slices.Clone(s.actions)
}

func (s *State) Perform(action game.Action) error {
	if !game.Contains(s.actions, action) {
		return fmt.Errorf("%w: %s", game.ErrIllegalAction, s.ActionString(action))
	}
	p := Unpack(action)
	s.board[p.X1][p.Y1] = p.Piece.First
	s.board[p.X2][p.Y2] = p.Piece.Second

	score := &s.scores[s.current-1]
	score[p.Piece.First-Red] += s.scoreHex(p.X1, p.Y1, p.Piece.First, p.X2-p.X1, p.Y2-p.Y1)
	score[p.Piece.Second-Red] += s.scoreHex(p.X2, p.Y2, p.Piece.Second, p.X1-p.X2, p.Y1-p.Y2)

	hand := &s.hands[s.current-1]
	for i, piece := range hand {
		if piece == p.Piece {
			hand[i] = s.draw()
			break
		}
	}

	s.current = s.PlayerAfter(s.current)
	s.actions = s.actionsForCurrentPlayer()
	return nil
}

func (s *State) Undo(game.Action) error {
	return game.ErrUndoUnsupported
}

func (s *State) Copy() game.State {
	hands := make([][HandSize]Piece, len(s.hands))
	copy(hands, s.hands)
	scores := make([][NumColors]int, len(s.scores))
	copy(scores, s.scores)
	return &State{
		board:   s.board,
		players: s.players,
		current: s.current,
		hands:   hands,
		scores:  scores,
		actions: slices.Clone(s.actions),
		bag:     s.bag,
	}
}

func (s *State) IsTerminal() bool {
	return len(s.actions) == 0
}

// Winner returns the player with the highest lowest-colour score once the
// game is over. A tie for the best score is a draw.
func (s *State) Winner() game.Player {
	if !s.IsTerminal() {
		return game.NoPlayer
	}
	winner := game.NoPlayer
	best := -1
	for i := range s.scores {
		total := s.MinScore(game.Player(i + 1))
		switch {
		case total > best:
			best = total
			winner = game.Player(i + 1)
		case total == best:
			winner = game.NoPlayer
		}
	}
	return winner
}

// Score returns player's points for a colour.
func (s *State) Score(player game.Player, color Hex) int {
	return s.scores[player-1][color-Red]
}

// MinScore returns player's lowest colour score.
func (s *State) MinScore(player game.Player) int {
	lowest := s.scores[player-1][0]
	for _, score := range s.scores[player-1][1:] {
		lowest = min(lowest, score)
	}
	return lowest
}

// Hand returns player's pieces.
func (s *State) Hand(player game.Player) [HandSize]Piece {
	return s.hands[player-1]
}

// At returns the hex at (x, y).
func (s *State) At(x, y int) Hex {
	return s.board[x][y]
}

func (s *State) CurrentPlayer() game.Player {
	return s.current
}

func (s *State) PlayerAfter(player game.Player) game.Player {
	return game.Player(int(player)%s.players + 1)
}

func (s *State) PlayerBefore(player game.Player) game.Player {
	return game.Player((int(player)+s.players-2)%s.players + 1)
}

func (s *State) ActionString(action game.Action) string {
	p := Unpack(action)
	return fmt.Sprintf("player %d places %s at (%d,%d)-(%d,%d)", p.Player, p.Piece, p.X1, p.Y1, p.X2, p.Y2)
}

func (s *State) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "actions: %d\nscores:\n", len(s.actions))
	for i := range s.scores {
		fmt.Fprintf(&sb, "  player %d:", i+1)
		for c := Red; c <= Purple; c++ {
			fmt.Fprintf(&sb, " %s=%d", c, s.scores[i][c-Red])
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("board:\n")
	for y := 0; y < BoardSize; y++ {
		indent := 5 - y
		if indent < 0 {
			indent = -indent
		}
		sb.WriteString(strings.Repeat("  ", indent))
		for x := 0; x < BoardSize; x++ {
			if s.board[x][y] == OffBoard {
				continue
			}
			fmt.Fprintf(&sb, "[%s]", s.board[x][y])
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "hand of player %d:", s.current)
	for i, piece := range s.hands[s.current-1] {
		fmt.Fprintf(&sb, " %d) %s", i, piece)
	}
	sb.WriteByte('\n')
	return sb.String()
}

// scoreHex counts same-colour hexes in lines from (x, y), skipping the line
// that starts at the sibling hex (x+skipX, y+skipY).
func (s *State) scoreHex(x, y int, hex Hex, skipX, skipY int) int {
	total := 0
	for _, d := range directions {
		if d.dx == skipX && d.dy == skipY {
			continue
		}
		for cx, cy := x+d.dx, y+d.dy; onBoard(cx, cy) && s.board[cx][cy] == hex; cx, cy = cx+d.dx, cy+d.dy {
			total++
		}
	}
	return total
}

func (s *State) isOpen(x, y int) bool {
	return onBoard(x, y) && s.board[x][y] == Empty
}

// actionsForCurrentPlayer lists every placement of a distinct hand piece on
// two adjacent open hexes, in both orientations.
func (s *State) actionsForCurrentPlayer() []game.Action {
	var pieces []Piece
	for _, piece := range s.hands[s.current-1] {
		duplicate := false
		for _, seen := range pieces {
			if seen == piece {
				duplicate = true
				break
			}
		}
		if !duplicate {
			pieces = append(pieces, piece)
		}
	}

	actions := []game.Action{}
	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			if !s.isOpen(x, y) {
				continue
			}
			for _, d := range directions {
				x2, y2 := x+d.dx, y+d.dy
				if !s.isOpen(x2, y2) {
					continue
				}
				for _, piece := range pieces {
					// Both orientations of a single-colour piece are the same placement
					if piece.First == piece.Second && (x2 < x || (x2 == x && y2 < y)) {
						continue
					}
					actions = append(actions, NewAction(s.current, piece, x, y, x2, y2))
				}
			}
		}
	}
	return actions
}
