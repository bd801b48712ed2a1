// internal/grid/generator.go
//
// Board generator for the word-search puzzle.
// Responsibilities:
//   - Place the hidden word along a random self-avoiding walk of adjacent cells.
//   - On a dead end, discard the whole board and rebuild from scratch.
//   - Fill every remaining cell with a random letter.
//
// Notes:
//   - The walk is greedy: it never backtracks a single letter. A dead end
//     within the per-letter retry budget throws away the entire
//     board-in-progress. Long words on small boards therefore rebuild often,
//     and an impossible word (longer than any connected path) rebuilds
//     forever unless a rebuild cap is configured.
//   - Randomness is injected so callers can seed deterministic boards.

package grid

import (
	"errors"
	"math/rand"
)

// ErrUnsatisfiable is returned when a rebuild cap is configured and generation
// still has not produced a board. Without a cap, generation retries forever.
var ErrUnsatisfiable = errors.New("grid: could not place hidden word")

// placeTries bounds how many random directions are sampled for one letter
// before the board is declared dead.
const placeTries = 10

// step is one of the four orthogonal walk directions.
type step struct{ dr, dc int }

var steps = [4]step{
	{-1, 0}, // up
	{1, 0},  // down
	{0, -1}, // left
	{0, 1},  // right
}

// Generator builds word-search boards from an injected random source.
// Not safe for concurrent use; rand.Rand is not either.
type Generator struct {
	rng         *rand.Rand
	maxRebuilds int // 0 = retry forever
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxRebuilds caps how many whole-board rebuilds Generate attempts before
// giving up with ErrUnsatisfiable. n <= 0 keeps the default unbounded retry.
func WithMaxRebuilds(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxRebuilds = n
		}
	}
}

// NewGenerator constructs a Generator around rng.
func NewGenerator(rng *rand.Rand, opts ...Option) *Generator {
	g := &Generator{rng: rng}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate builds a rows × cols board with word hidden along a random
// self-avoiding walk. rows and cols must be positive and word non-empty;
// both are the caller's preconditions, not validated here.
//
// A dead end while walking discards the board and starts over. With no
// rebuild cap this loops until a board is found (or forever, for words that
// cannot fit); with a cap it returns ErrUnsatisfiable instead.
func (g *Generator) Generate(rows, cols int, word string) (*Board, error) {
	for rebuilds := 0; ; rebuilds++ {
		if g.maxRebuilds > 0 && rebuilds >= g.maxRebuilds {
			return nil, ErrUnsatisfiable
		}
		b, ok := g.tryBuild(rows, cols, word)
		if !ok {
			continue
		}
		g.fill(b)
		return b, nil
	}
}

// tryBuild attempts one complete placement walk. It returns ok=false on a
// dead end; the partially built board is discarded by the caller.
func (g *Generator) tryBuild(rows, cols int, word string) (*Board, bool) {
	b := newBoard(rows, cols)
	b.word = word

	cur := Coord{} // sentinel until the first letter lands
	for _, letter := range word {
		next, ok := g.nextCell(b, cur)
		if !ok {
			return nil, false
		}
		b.setLetter(next.Row, next.Col, letter)
		b.path = append(b.path, next)
		cur = next
	}
	return b, true
}

// nextCell picks the cell for the next letter of the walk.
//
// The first letter may land anywhere. Each later letter samples up to
// placeTries random orthogonal neighbours of cur, rejecting positions that
// fall off the board or already hold a letter. The result is tagged: ok=false
// means the retry budget ran out (a dead end), and the caller decides what to
// do about it — nextCell never rebuilds on its own.
func (g *Generator) nextCell(b *Board, cur Coord) (Coord, bool) {
	if !cur.Valid() {
		return At(g.rng.Intn(b.rows), g.rng.Intn(b.cols)), true
	}
	for try := 0; try < placeTries; try++ {
		s := steps[g.rng.Intn(len(steps))]
		r, c := cur.Row+s.dr, cur.Col+s.dc
		if !b.InBounds(r, c) {
			continue
		}
		if b.CellAt(r, c).Letter != 0 {
			continue
		}
		return At(r, c), true
	}
	return Coord{}, false
}

// fill assigns an independent random lowercase letter to every cell the walk
// did not touch.
func (g *Generator) fill(b *Board) {
	for i := range b.cells {
		if b.cells[i].Letter == 0 {
			b.cells[i].Letter = rune('a' + g.rng.Intn(26))
		}
	}
}
