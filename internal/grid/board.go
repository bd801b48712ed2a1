// internal/grid/board.go
//
// Board representation for the word-search puzzle.
// A board is a rows × cols grid stored row-major so any cell is addressed in
// O(1) from its coordinates. After generation every cell carries a letter;
// the cells holding the hidden word are recorded, in placement order, as the
// board's path.

package grid

// Board is a populated word-search grid. Construct via Generator.Generate;
// a Board is immutable afterwards.
type Board struct {
	rows, cols int
	cells      []Cell
	path       []Coord
	word       string
}

// newBoard allocates an empty board (all letters unset).
func newBoard(rows, cols int) *Board {
	b := &Board{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			b.cells[r*cols+c] = Cell{Pos: At(r, c)}
		}
	}
	return b
}

// Rows returns the board height.
func (b *Board) Rows() int { return b.rows }

// Cols returns the board width.
func (b *Board) Cols() int { return b.cols }

// InBounds reports whether (row, col) addresses a cell on this board.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// CellAt returns the cell at (row, col). Callers must check InBounds first.
func (b *Board) CellAt(row, col int) Cell {
	return b.cells[row*b.cols+col]
}

// setLetter assigns a letter during generation.
func (b *Board) setLetter(row, col int, letter rune) {
	b.cells[row*b.cols+col].Letter = letter
}

// Word returns the hidden word placed on this board.
func (b *Board) Word() string { return b.word }

// Path returns a copy of the hidden word's placement path, in letter order.
func (b *Board) Path() []Coord {
	out := make([]Coord, len(b.path))
	copy(out, b.path)
	return out
}

// Letters renders the grid as a rows × cols matrix of single-letter strings,
// the shape the HTTP layer serializes for clients.
func (b *Board) Letters() [][]string {
	out := make([][]string, b.rows)
	for r := 0; r < b.rows; r++ {
		row := make([]string, b.cols)
		for c := 0; c < b.cols; c++ {
			row[c] = string(b.cells[r*b.cols+c].Letter)
		}
		out[r] = row
	}
	return out
}
