// internal/session/session.go
//
// A Session owns one player's puzzle round: the generated board, the ordered
// selection of cells, and the transient "wrong word" flag shown after a
// failed check. It replaces the original app's globally observable board
// holder with an explicit object plus a subscription interface.
//
// Responsibilities:
//   - NewRound: rebuild the board wholesale and reset tracker state.
//   - Select: accumulate picked cells, rejecting duplicates.
//   - Evaluate: compare the selection against the hidden word, hold the
//     result's feedback delay, then clear the selection either way.
//   - Notify subscribers on every observable change.
//
// Concurrency: a session is effectively single-player, but Evaluate suspends
// for its feedback delay, and nothing stops an eager client from firing the
// next request during that window. A busy flag makes Evaluate single-flight
// and turns mid-delay Select/Evaluate calls into ErrEvaluating.

package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/thphuccoder/wordsearch/internal/grid"
)

// ErrEvaluating is returned when Select or Evaluate is called while a
// previous Evaluate is still inside its feedback delay.
var ErrEvaluating = errors.New("session: evaluation in progress")

// Default feedback delays. The wrong-word flag stays raised for WrongDelay so
// a client can render the shake/flash; a win pauses MatchDelay before the
// next round can start.
const (
	DefaultWrongDelay = time.Second
	DefaultMatchDelay = 500 * time.Millisecond
)

// EventKind tags a change notification.
type EventKind string

const (
	EventBoard     EventKind = "board"     // board rebuilt
	EventSelection EventKind = "selection" // selection grew or was cleared
	EventWrong     EventKind = "wrong"     // wrong-word flag raised or cleared
	EventResolved  EventKind = "resolved"  // evaluation finished
)

// Event is pushed to subscribers after a state change.
type Event struct {
	Kind    EventKind
	Matched bool // meaningful for EventResolved only
}

// Listener receives change events. Called synchronously; keep it cheap.
type Listener func(Event)

// Session holds the board and selection state for one puzzle round.
type Session struct {
	ID string

	gen        *grid.Generator
	rows, cols int

	mu         sync.Mutex
	board      *grid.Board
	selected   []grid.Cell
	wrong      bool
	evaluating bool

	wrongDelay time.Duration
	matchDelay time.Duration

	listeners []Listener
}

// Option configures a Session.
type Option func(*Session)

// WithDelays overrides the feedback delays. Tests pass near-zero values.
func WithDelays(wrong, match time.Duration) Option {
	return func(s *Session) {
		s.wrongDelay = wrong
		s.matchDelay = match
	}
}

// New creates a session and generates its first board.
// Returns the generator's error if the word cannot be placed (only possible
// when the generator carries a rebuild cap).
func New(id string, gen *grid.Generator, rows, cols int, word string, opts ...Option) (*Session, error) {
	s := &Session{
		ID:         id,
		gen:        gen,
		rows:       rows,
		cols:       cols,
		wrongDelay: DefaultWrongDelay,
		matchDelay: DefaultMatchDelay,
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.NewRound(word); err != nil {
		return nil, err
	}
	return s, nil
}

// Subscribe registers a listener for change events.
func (s *Session) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// notify fans an event out to all listeners. Called without s.mu held.
func (s *Session) notify(ev Event) {
	s.mu.Lock()
	ls := make([]Listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()
	for _, fn := range ls {
		fn(ev)
	}
}

// NewRound discards the current board, generates a fresh one for word, and
// resets the tracker. The old board is never reused.
func (s *Session) NewRound(word string) error {
	b, err := s.gen.Generate(s.rows, s.cols, word)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.board = b
	s.selected = nil
	s.wrong = false
	s.mu.Unlock()
	s.notify(Event{Kind: EventBoard})
	return nil
}

// Board returns the current board.
func (s *Session) Board() *grid.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// Selected returns a copy of the selection sequence in insertion order.
func (s *Session) Selected() []grid.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]grid.Cell, len(s.selected))
	copy(out, s.selected)
	return out
}

// Wrong reports whether the transient wrong-word flag is raised.
func (s *Session) Wrong() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrong
}

// Select appends cell to the selection sequence. A cell equal to one already
// selected is silently ignored; a call during an in-flight evaluation returns
// ErrEvaluating. The cell must be fully specified (valid position + the
// letter copied from the board) — bounds checking happened upstream.
func (s *Session) Select(cell grid.Cell) error {
	s.mu.Lock()
	if s.evaluating {
		s.mu.Unlock()
		return ErrEvaluating
	}
	for _, c := range s.selected {
		if c.Equal(cell) {
			s.mu.Unlock()
			return nil
		}
	}
	s.selected = append(s.selected, cell)
	s.mu.Unlock()
	s.notify(Event{Kind: EventSelection})
	return nil
}

// Evaluate concatenates the selected letters in insertion order and compares
// the result to the hidden word (exact, case-sensitive). On a mismatch the
// wrong flag stays raised for the wrong-delay; a match pauses the shorter
// match-delay. Either way the selection ends empty and the flag lowered.
//
// Evaluate is single-flight: a second call during the delay gets
// ErrEvaluating. The delay is never cancelled.
func (s *Session) Evaluate() (bool, error) {
	s.mu.Lock()
	if s.evaluating {
		s.mu.Unlock()
		return false, ErrEvaluating
	}
	s.evaluating = true

	var sb strings.Builder
	for _, c := range s.selected {
		sb.WriteRune(c.Letter)
	}
	matched := sb.String() == s.board.Word()

	delay := s.matchDelay
	if !matched {
		s.wrong = true
		delay = s.wrongDelay
	}
	s.mu.Unlock()

	if !matched {
		s.notify(Event{Kind: EventWrong})
	}
	time.Sleep(delay)

	s.mu.Lock()
	s.selected = nil
	s.wrong = false
	s.evaluating = false
	s.mu.Unlock()

	if !matched {
		s.notify(Event{Kind: EventWrong})
	}
	s.notify(Event{Kind: EventSelection})
	s.notify(Event{Kind: EventResolved, Matched: matched})
	return matched, nil
}

// Reset unconditionally clears the selection and the wrong flag. NewRound
// calls this implicitly; the HTTP layer exposes it for an explicit clear.
func (s *Session) Reset() {
	s.mu.Lock()
	s.selected = nil
	s.wrong = false
	s.mu.Unlock()
	s.notify(Event{Kind: EventSelection})
}
