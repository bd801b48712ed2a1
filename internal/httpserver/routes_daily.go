// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily puzzle mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's puzzle (creates or reuses session)
//   - POST /daily/evaluate    → submit the current selection for today's puzzle
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each user can win once per day (enforced by DB + in-memory session).
// Sessions are held in memory for active play and the result persisted to DB
// on a win. Deterministic word selection is based on date + salt, so every
// player hunts the same hidden word — on their own randomly generated board.

package httpserver

import (
	"encoding/json"
	mrand "math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thphuccoder/wordsearch/internal/daily"
	"github.com/thphuccoder/wordsearch/internal/grid"
	"github.com/thphuccoder/wordsearch/internal/session"
	"github.com/thphuccoder/wordsearch/internal/words"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*dailySession // active sessions keyed by userID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession holds transient in-memory state for an in-progress daily puzzle.
type dailySession struct {
	PuzzleID  string
	UserID    string
	Date      string
	WordIndex int
	Word      string
	Start     time.Time
	Attempts  int
	Finished  bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		salt:     getEnv("DAILY_SALT", "local_dev_salt"),
		sessions: make(map[string]*dailySession),
	}
	if s.db != nil {
		dd.store = daily.NewStore(s.db)
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/evaluate", dd.handleEvaluate)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// dateKeyNow returns today's date key, deterministic word index, and word.
func (d *dailyServer) dateKeyNow() (date string, idx int, word string) {
	now := time.Now().UTC()
	date = daily.DateKey(now)
	list := words.Words()
	if len(list) == 0 {
		return date, 0, ""
	}
	idx = daily.WordIndex(now, d.salt, len(list))
	return date, idx, list[idx]
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return d.srv.ensureAnonID(w, r)
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	PuzzleID string     `json:"puzzleId"`
	Date     string     `json:"date"`
	WordLen  int        `json:"wordLen"`
	Grid     [][]string `json:"grid,omitempty"`
	Played   bool       `json:"played"`
}

// handleNew creates or reuses a daily session for the current date.
// - If user already has a DB row for today → return Played=true.
// - Otherwise create/reuse an in-memory session and return PuzzleID + grid.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)
	date, idx, word := d.dateKeyNow()
	if word == "" {
		http.Error(w, `{"error":"no_words"}`, http.StatusInternalServerError)
		return
	}

	// Check if already played (persisted in DB).
	if d.store != nil {
		if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
			_ = json.NewEncoder(w).Encode(dailyNewRes{Date: date, Played: true})
			return
		}
	}

	// Reuse or create session in memory.
	key := uid + "|" + date
	d.mu.Lock()
	if sess, ok := d.sessions[key]; ok {
		d.mu.Unlock()
		if ps, err := d.srv.store.Get(r.Context(), sess.PuzzleID); err == nil {
			_ = json.NewEncoder(w).Encode(dailyNewRes{
				PuzzleID: sess.PuzzleID,
				Date:     date,
				WordLen:  len(sess.Word),
				Grid:     ps.Board().Letters(),
			})
			return
		}
		_ = json.NewEncoder(w).Encode(dailyNewRes{PuzzleID: sess.PuzzleID, Date: date, WordLen: len(sess.Word)})
		return
	}
	d.mu.Unlock()

	gen := grid.NewGenerator(
		mrand.New(mrand.NewSource(time.Now().UnixNano())),
		grid.WithMaxRebuilds(maxRebuilds),
	)
	ps, err := session.New(genID(), gen, defaultRows, defaultCols, strings.ToLower(word),
		session.WithDelays(d.srv.wrongDelay, d.srv.matchDelay))
	if err != nil {
		http.Error(w, `{"error":"unsatisfiable_puzzle"}`, http.StatusUnprocessableEntity)
		return
	}
	if err := d.srv.store.Save(r.Context(), ps); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	sess := &dailySession{
		PuzzleID:  ps.ID,
		UserID:    uid,
		Date:      date,
		WordIndex: idx,
		Word:      strings.ToLower(word),
		Start:     time.Now(),
	}
	d.mu.Lock()
	d.sessions[key] = sess
	d.mu.Unlock()

	_ = json.NewEncoder(w).Encode(dailyNewRes{
		PuzzleID: ps.ID,
		Date:     date,
		WordLen:  len(sess.Word),
		Grid:     ps.Board().Letters(),
	})
}

// -----------------------------------------------------------------------------
// /daily/evaluate

// dailyEvalReq is the request payload for /daily/evaluate.
type dailyEvalReq struct {
	PuzzleID string `json:"puzzleId"`
}

// dailyEvalRes is the response payload for /daily/evaluate.
type dailyEvalRes struct {
	Matched  bool   `json:"matched"`
	State    string `json:"state"` // in_progress | won | locked
	Attempts int    `json:"attempts"`
}

// handleEvaluate submits the current selection for today's daily session.
// - Ensures a valid session for this user and date.
// - Rejects if the session already finished.
// - Evaluates via the shared selection tracker.
// - Persists the result to DB on a win.
func (d *dailyServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)

	var p dailyEvalReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	date, _, _ := d.dateKeyNow()
	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || sess.PuzzleID != p.PuzzleID {
		http.Error(w, `{"error":"no_session"}`, http.StatusNotFound)
		return
	}
	if sess.Finished {
		_ = json.NewEncoder(w).Encode(dailyEvalRes{State: "locked", Attempts: sess.Attempts})
		return
	}

	ps, err := d.srv.store.Get(r.Context(), sess.PuzzleID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	matched, err := ps.Evaluate()
	if err != nil {
		http.Error(w, `{"error":"evaluation_in_progress"}`, http.StatusConflict)
		return
	}

	d.mu.Lock()
	sess.Attempts++
	state := "in_progress"
	if matched {
		sess.Finished = true
		state = "won"
	}
	attempts := sess.Attempts
	d.mu.Unlock()

	if matched && d.store != nil {
		_ = d.store.InsertResult(r.Context(), daily.Result{
			UserID:    uid,
			Date:      date,
			WordIndex: sess.WordIndex,
			Attempts:  attempts,
			ElapsedMs: int(time.Since(sess.Start).Milliseconds()),
		})
	}

	_ = json.NewEncoder(w).Encode(dailyEvalRes{Matched: matched, State: state, Attempts: attempts})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// handleLeaderboard returns the top 20 results for today or ?date=YYYY-MM-DD.
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if d.store == nil {
		_ = json.NewEncoder(w).Encode([]daily.LBRow{})
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date, _, _ = d.dateKeyNow()
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []daily.LBRow{}
	}
	_ = json.NewEncoder(w).Encode(rows)
}
