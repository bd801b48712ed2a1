package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/thphuccoder/wordsearch/internal/grid"
)

// newTestSession builds a session around a seeded generator with near-zero
// feedback delays unless overridden.
func newTestSession(t *testing.T, word string, opts ...Option) *Session {
	t.Helper()
	gen := grid.NewGenerator(rand.New(rand.NewSource(11)), grid.WithMaxRebuilds(1000))
	if len(opts) == 0 {
		opts = []Option{WithDelays(time.Millisecond, time.Millisecond)}
	}
	s, err := New("test", gen, 4, 4, word, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

// selectPath feeds the board's placement path into the tracker, spelling the
// hidden word exactly.
func selectPath(t *testing.T, s *Session) {
	t.Helper()
	b := s.Board()
	for _, p := range b.Path() {
		if err := s.Select(b.CellAt(p.Row, p.Col)); err != nil {
			t.Fatalf("Select(%v) failed: %v", p, err)
		}
	}
}

func TestSelectDeduplicates(t *testing.T) {
	s := newTestSession(t, "cat")
	b := s.Board()
	cell := b.CellAt(0, 0)

	if err := s.Select(cell); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := s.Select(cell); err != nil {
		t.Fatalf("duplicate Select must be a no-op, got %v", err)
	}
	if got := len(s.Selected()); got != 1 {
		t.Fatalf("selection length %d after duplicate select, want 1", got)
	}
}

func TestEvaluateMatch(t *testing.T) {
	s := newTestSession(t, "cat")
	selectPath(t, s)

	matched, err := s.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !matched {
		t.Fatalf("selecting the placement path must match")
	}
	if len(s.Selected()) != 0 {
		t.Fatalf("selection must be empty after a match")
	}
	if s.Wrong() {
		t.Fatalf("wrong flag must be down after a match")
	}
}

func TestEvaluateMismatch(t *testing.T) {
	s := newTestSession(t, "cat")
	b := s.Board()
	// A single cell cannot spell a three letter word.
	if err := s.Select(b.CellAt(0, 0)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	matched, err := s.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if matched {
		t.Fatalf("wrong selection must not match")
	}
	if len(s.Selected()) != 0 {
		t.Fatalf("selection must be empty after a mismatch")
	}
	if s.Wrong() {
		t.Fatalf("wrong flag must be lowered once the delay ends")
	}
}

func TestEvaluateEmptySelectionMismatches(t *testing.T) {
	s := newTestSession(t, "cat")
	matched, err := s.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if matched {
		t.Fatalf("empty selection must not match a non-empty word")
	}
}

func TestWrongFlagRaisedDuringDelay(t *testing.T) {
	s := newTestSession(t, "cat", WithDelays(100*time.Millisecond, time.Millisecond))
	b := s.Board()
	if err := s.Select(b.CellAt(0, 0)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	done := make(chan bool, 1)
	go func() {
		matched, _ := s.Evaluate()
		done <- matched
	}()

	time.Sleep(20 * time.Millisecond)
	if !s.Wrong() {
		t.Fatalf("wrong flag must be raised during the feedback delay")
	}
	if matched := <-done; matched {
		t.Fatalf("unexpected match")
	}
	if s.Wrong() {
		t.Fatalf("wrong flag must be lowered after the delay")
	}
}

func TestEvaluateSingleFlight(t *testing.T) {
	s := newTestSession(t, "cat", WithDelays(100*time.Millisecond, time.Millisecond))
	b := s.Board()
	if err := s.Select(b.CellAt(0, 0)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		_, _ = s.Evaluate()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := s.Select(b.CellAt(0, 1)); err != ErrEvaluating {
		t.Fatalf("Select during evaluation: got %v, want ErrEvaluating", err)
	}
	if _, err := s.Evaluate(); err != ErrEvaluating {
		t.Fatalf("Evaluate during evaluation: got %v, want ErrEvaluating", err)
	}
	<-done

	// Tracker must be usable again once the first evaluation resolved.
	if err := s.Select(b.CellAt(0, 1)); err != nil {
		t.Fatalf("Select after evaluation resolved: %v", err)
	}
}

func TestResetClearsState(t *testing.T) {
	s := newTestSession(t, "cat")
	b := s.Board()
	if err := s.Select(b.CellAt(1, 1)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	s.Reset()
	if len(s.Selected()) != 0 {
		t.Fatalf("Reset must clear the selection")
	}
	if s.Wrong() {
		t.Fatalf("Reset must lower the wrong flag")
	}
}

func TestNewRoundReplacesBoard(t *testing.T) {
	s := newTestSession(t, "cat")
	b := s.Board()
	if err := s.Select(b.CellAt(0, 0)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if err := s.NewRound("dog"); err != nil {
		t.Fatalf("NewRound failed: %v", err)
	}
	if got := s.Board().Word(); got != "dog" {
		t.Fatalf("board word %q after NewRound, want %q", got, "dog")
	}
	if len(s.Selected()) != 0 {
		t.Fatalf("NewRound must clear the selection")
	}

	// Full round on the fresh board still works.
	selectPath(t, s)
	matched, err := s.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !matched {
		t.Fatalf("path selection on regenerated board must match")
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	s := newTestSession(t, "cat")

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	b := s.Board()
	if err := s.Select(b.CellAt(0, 0)); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if _, err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	var kinds []EventKind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	want := map[EventKind]bool{EventSelection: false, EventWrong: false, EventResolved: false}
	for _, k := range kinds {
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Fatalf("no %q event received (got %v)", k, kinds)
		}
	}

	last := events[len(events)-1]
	if last.Kind != EventResolved || last.Matched {
		t.Fatalf("last event %+v, want unmatched resolution", last)
	}
}
