// internal/grid/cell.go
//
// Coordinate and cell types for the word-search board.
// Defines:
//   - Coord: a board position with an explicit valid/sentinel state.
//   - Cell:  a coordinate plus its assigned letter (0 until filled).
//
// The zero Coord is the sentinel. A sentinel coordinate models "no position
// yet" (uninitialized input, cleared selection slot) and is deliberately not
// equal to anything — including another sentinel — so stale zero values can
// never collide with the real coordinate (0,0).

package grid

import "fmt"

// Coord identifies a board position. Use At to build a valid one; the zero
// value is the sentinel and fails Valid().
type Coord struct {
	Row, Col int
	ok       bool
}

// At returns a valid coordinate for (row, col).
// Bounds are the board's concern, not the coordinate's.
func At(row, col int) Coord {
	return Coord{Row: row, Col: col, ok: true}
}

// Valid reports whether the coordinate was built via At (i.e. is not the sentinel).
func (c Coord) Valid() bool { return c.ok }

// Equal reports coordinate equality. Sentinels compare unequal to everything,
// themselves included.
func (c Coord) Equal(o Coord) bool {
	return c.ok && o.ok && c.Row == o.Row && c.Col == o.Col
}

// String renders "(r,c)" or "(?,?)" for sentinels. Used in logs and test failures.
func (c Coord) String() string {
	if !c.ok {
		return "(?,?)"
	}
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Cell is a board position plus its letter. Letter is 0 until the generator
// assigns one; a selection always carries the letter copied from the board.
type Cell struct {
	Pos    Coord
	Letter rune
}

// Equal implements the selection equality contract: both positions valid,
// same coordinates, same letter.
func (c Cell) Equal(o Cell) bool {
	return c.Pos.Equal(o.Pos) && c.Letter == o.Letter
}
