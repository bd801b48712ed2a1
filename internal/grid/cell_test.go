package grid

import "testing"

func TestCoordEquality(t *testing.T) {
	if !At(0, 0).Equal(At(0, 0)) {
		t.Fatalf("identical valid coordinates must be equal")
	}
	if At(1, 2).Equal(At(2, 1)) {
		t.Fatalf("different coordinates must not be equal")
	}

	var sentinel Coord
	if sentinel.Valid() {
		t.Fatalf("zero Coord must be the sentinel")
	}
	if sentinel.Equal(sentinel) {
		t.Fatalf("sentinel must not equal itself")
	}
	if sentinel.Equal(At(0, 0)) || At(0, 0).Equal(sentinel) {
		t.Fatalf("sentinel must not equal the real coordinate (0,0)")
	}
}

func TestCellEquality(t *testing.T) {
	a := Cell{Pos: At(1, 1), Letter: 'a'}
	b := Cell{Pos: At(1, 1), Letter: 'a'}
	c := Cell{Pos: At(1, 1), Letter: 'b'}
	d := Cell{Pos: Coord{}, Letter: 'a'}

	if !a.Equal(b) {
		t.Fatalf("same position and letter must be equal")
	}
	if a.Equal(c) {
		t.Fatalf("same position, different letter must not be equal")
	}
	if d.Equal(d) {
		t.Fatalf("cell with sentinel position must not equal itself")
	}
}
