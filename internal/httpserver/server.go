// internal/httpserver/server.go
//
// HTTP server wiring for the word-search backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Puzzle endpoints (optional auth): POST /puzzle/new, POST /puzzle/select,
//     POST /puzzle/evaluate, POST /puzzle/reset, GET /puzzle/state.
//   - Daily puzzle endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /rounds/mine.
//   - JWT + cookie handling, anonymous session cookie, user CRUD helpers.
//   - Database persistence for finished rounds and user stats.
//
// The select handler is the "input translation" boundary: it resolves a
// row/column pair against the session's board, rejecting out-of-bounds picks
// before anything reaches the selection tracker. Boards themselves live only
// in the in-memory store.

package httpserver

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	mrand "math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/thphuccoder/wordsearch/internal/grid"
	"github.com/thphuccoder/wordsearch/internal/session"
	"github.com/thphuccoder/wordsearch/internal/store"
	"github.com/thphuccoder/wordsearch/internal/words"
)

// Board dimension limits for requests. Generation cost grows with area and
// word length; these bounds keep a request's rebuild loop sane.
const (
	defaultRows = 8
	defaultCols = 8
	maxDim      = 20

	// A request must terminate, so the service layer always caps whole-board
	// rebuilds and maps exhaustion to HTTP 422.
	maxRebuilds = 10000
)

// Server bundles router, in-memory session store, and DB handle.
type Server struct {
	r     *chi.Mux
	store store.Store
	db    *sql.DB

	// feedback delays passed to every session; tests shrink them
	wrongDelay time.Duration
	matchDelay time.Duration

	// started-at bookkeeping for round persistence, keyed by session ID
	startedMu sync.Mutex
	started   map[string]string
}

// Option configures a Server.
type Option func(*Server)

// WithDelays overrides the evaluation feedback delays for all sessions.
func WithDelays(wrong, match time.Duration) Option {
	return func(s *Server) {
		s.wrongDelay = wrong
		s.matchDelay = match
	}
}

// New constructs a Server, installs middleware, and registers routes.
// db may be nil in tests; persistence is skipped then.
func New(st store.Store, db *sql.DB, opts ...Option) *Server {
	s := &Server{
		r:          chi.NewRouter(),
		store:      st,
		db:         db,
		wrongDelay: session.DefaultWrongDelay,
		matchDelay: session.DefaultMatchDelay,
		started:    make(map[string]string),
	}
	for _, o := range opts {
		o(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordsearch-go","endpoints":["/health","POST /puzzle/new","POST /puzzle/select","POST /puzzle/evaluate","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Puzzle endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/puzzle/new", s.handleNewPuzzle)
	s.r.With(s.withOptionalAuth()).Post("/puzzle/select", s.handleSelect)
	s.r.With(s.withOptionalAuth()).Post("/puzzle/evaluate", s.handleEvaluate)
	s.r.With(s.withOptionalAuth()).Post("/puzzle/reset", s.handleReset)
	s.r.With(s.withOptionalAuth()).Get("/puzzle/state", s.handleState)

	// Daily puzzle — OPTIONAL AUTH (guests can play; result persisted on win)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	// Debug: word list count
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{"words": words.Stats()})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ PUZZLE -------------------------------------

// newPuzzleReq/Res payloads for POST /puzzle/new.
type newPuzzleReq struct {
	Rows int    `json:"rows"` // optional; default 8
	Cols int    `json:"cols"` // optional; default 8
	Word string `json:"word"` // optional fixed hidden word (testing)
}
type newPuzzleRes struct {
	PuzzleID string     `json:"puzzleId"`
	Rows     int        `json:"rows"`
	Cols     int        `json:"cols"`
	WordLen  int        `json:"wordLen"`
	Grid     [][]string `json:"grid"`
}

// handleNewPuzzle builds a fresh session with a generated board.
// The hidden word is random unless the request pins one (for testing);
// the response reveals only its length.
func (s *Server) handleNewPuzzle(w http.ResponseWriter, r *http.Request) {
	var req newPuzzleReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	rows, cols := req.Rows, req.Cols
	if rows <= 0 {
		rows = defaultRows
	}
	if cols <= 0 {
		cols = defaultCols
	}
	if rows > maxDim || cols > maxDim {
		http.Error(w, `{"error":"board_too_large"}`, http.StatusBadRequest)
		return
	}

	word := strings.ToLower(strings.TrimSpace(req.Word))
	if word == "" {
		word = words.RandomWord(rows * cols)
	} else if !words.IsWord(word) {
		// Pinned words are a testing affordance; unknown ones still play.
		log.Debug().Str("word", word).Msg("pinned word not in list")
	}
	if len(word) > rows*cols {
		http.Error(w, `{"error":"word_too_long"}`, http.StatusUnprocessableEntity)
		return
	}

	gen := grid.NewGenerator(
		mrand.New(mrand.NewSource(time.Now().UnixNano())),
		grid.WithMaxRebuilds(maxRebuilds),
	)
	sess, err := session.New(genID(), gen, rows, cols, word,
		session.WithDelays(s.wrongDelay, s.matchDelay))
	if err != nil {
		log.Warn().Err(err).Int("rows", rows).Int("cols", cols).Int("wordLen", len(word)).Msg("generate board")
		http.Error(w, `{"error":"unsatisfiable_puzzle"}`, http.StatusUnprocessableEntity)
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	s.markStarted(sess.ID)

	_ = json.NewEncoder(w).Encode(newPuzzleRes{
		PuzzleID: sess.ID,
		Rows:     rows,
		Cols:     cols,
		WordLen:  len(word),
		Grid:     sess.Board().Letters(),
	})
}

// selectReq/Res payloads for POST /puzzle/select.
type selectReq struct {
	PuzzleID string `json:"puzzleId"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
}
type selectRes struct {
	Selected []cellJSON `json:"selected"`
}

// cellJSON is the wire shape of a selected cell.
type cellJSON struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter"`
}

// handleSelect translates a row/column pick into a board cell and feeds it to
// the tracker. Out-of-bounds coordinates are rejected here — the tracker's
// precondition is that it only ever sees valid cells.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.store.Get(r.Context(), req.PuzzleID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	b := sess.Board()
	if !b.InBounds(req.Row, req.Col) {
		http.Error(w, `{"error":"out_of_bounds"}`, http.StatusBadRequest)
		return
	}
	if err := sess.Select(b.CellAt(req.Row, req.Col)); err != nil {
		http.Error(w, `{"error":"evaluation_in_progress"}`, http.StatusConflict)
		return
	}
	_ = json.NewEncoder(w).Encode(selectRes{Selected: toCellJSON(sess.Selected())})
}

// evaluateReq/Res payloads for POST /puzzle/evaluate.
type evaluateReq struct {
	PuzzleID string `json:"puzzleId"`
}
type evaluateRes struct {
	Matched bool `json:"matched"`
}

// handleEvaluate runs the tracker's match check. The handler blocks for the
// feedback delay before responding; concurrent submits during that window
// get 409.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.store.Get(r.Context(), req.PuzzleID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	picked := len(sess.Selected())
	matched, err := sess.Evaluate()
	if err != nil {
		http.Error(w, `{"error":"evaluation_in_progress"}`, http.StatusConflict)
		return
	}

	s.persistRound(w, r, sess, matched, picked)
	_ = json.NewEncoder(w).Encode(evaluateRes{Matched: matched})
}

// resetReq is the payload for POST /puzzle/reset.
type resetReq struct {
	PuzzleID string `json:"puzzleId"`
	NewBoard bool   `json:"newBoard"` // regenerate the grid, not just clear
}

// handleReset clears the selection; with newBoard it rebuilds the whole grid
// around a fresh random word.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.store.Get(r.Context(), req.PuzzleID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if !req.NewBoard {
		sess.Reset()
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		return
	}
	b := sess.Board()
	word := words.RandomWord(b.Rows() * b.Cols())
	if err := sess.NewRound(word); err != nil {
		http.Error(w, `{"error":"unsatisfiable_puzzle"}`, http.StatusUnprocessableEntity)
		return
	}
	s.markStarted(sess.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":      true,
		"wordLen": len(word),
		"grid":    sess.Board().Letters(),
	})
}

// stateRes is the poll shape for GET /puzzle/state — the observable surface
// a presentation layer renders from.
type stateRes struct {
	Rows     int        `json:"rows"`
	Cols     int        `json:"cols"`
	Grid     [][]string `json:"grid"`
	Selected []cellJSON `json:"selected"`
	Wrong    bool       `json:"wrong"`
}

// handleState returns the current board, selection, and wrong-word flag.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("puzzleId")
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	b := sess.Board()
	_ = json.NewEncoder(w).Encode(stateRes{
		Rows:     b.Rows(),
		Cols:     b.Cols(),
		Grid:     b.Letters(),
		Selected: toCellJSON(sess.Selected()),
		Wrong:    sess.Wrong(),
	})
}

// toCellJSON converts tracker cells to their wire shape.
func toCellJSON(cells []grid.Cell) []cellJSON {
	out := make([]cellJSON, 0, len(cells))
	for _, c := range cells {
		out = append(out, cellJSON{Row: c.Pos.Row, Col: c.Pos.Col, Letter: string(c.Letter)})
	}
	return out
}

// persistRound writes the finished round and bumps user stats.
// Best effort, non-fatal if it fails; skipped entirely without a DB.
func (s *Server) persistRound(w http.ResponseWriter, r *http.Request, sess *session.Session, matched bool, picked int) {
	if s.db == nil {
		return
	}
	b := sess.Board()
	s.startedMu.Lock()
	startedAt := s.started[sess.ID]
	s.startedMu.Unlock()
	if startedAt == "" {
		startedAt = time.Now().UTC().Format(time.RFC3339)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	ownerClause := `anonymous_id`
	ownerArg := any(s.ensureAnonID(w, r))
	if me != nil {
		ownerClause = `user_id`
		ownerArg = any(me.ID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		log.Warn().Err(err).Msg("begin round tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO rounds (id, `+ownerClause+`, rows, cols, word_len, matched, selections, started_at, finished_at)
	                      VALUES (?,?,?,?,?,?,?,?,?)`,
		genID(), ownerArg, b.Rows(), b.Cols(), len(b.Word()), matched, picked, startedAt, now); err != nil {
		log.Warn().Err(err).Str("puzzleId", sess.ID).Msg("insert round")
	}
	if me != nil {
		if err := s.bumpStats(tx, me.ID, matched); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
		}
	}
	_ = tx.Commit()
	s.markStarted(sess.ID)
}

// markStarted records when the session's current round began.
func (s *Server) markStarted(id string) {
	s.startedMu.Lock()
	s.started[id] = time.Now().UTC().Format(time.RFC3339)
	s.startedMu.Unlock()
}

// ------------------------------- AUTH --------------------------------------

// Request payloads for signup/login.
type signupReq struct{ Username, Password string }
type loginReq struct{ Username, Password string }

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /rounds/mine).
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	// Current user (gated)
	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(me)
	})

	// Stats (gated)
	s.r.With(s.requireAuth()).Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		u, err := s.findUserByID(me.ID)
		if err != nil {
			http.Error(w, `{"error":"not_found"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           u.ID,
			"roundsPlayed": u.RoundsPlayed,
			"wins":         u.Wins,
			"streak":       u.Streak,
		})
	})

	// Recent rounds (gated)
	s.r.With(s.requireAuth()).Get("/rounds/mine", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		rows, err := s.db.Query(`SELECT id, rows, cols, word_len, matched, selections, started_at, COALESCE(finished_at,'')
		                         FROM rounds WHERE user_id=? ORDER BY started_at DESC LIMIT 50`, me.ID)
		if err != nil {
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		type roundRow struct {
			ID         string `json:"id"`
			Rows       int    `json:"rows"`
			Cols       int    `json:"cols"`
			WordLen    int    `json:"wordLen"`
			Matched    bool   `json:"matched"`
			Selections int    `json:"selections"`
			StartedAt  string `json:"startedAt"`
			FinishedAt string `json:"finishedAt,omitempty"`
		}
		out := []roundRow{}
		for rows.Next() {
			var rr roundRow
			if err := rows.Scan(&rr.ID, &rr.Rows, &rr.Cols, &rr.WordLen, &rr.Matched, &rr.Selections, &rr.StartedAt, &rr.FinishedAt); err == nil {
				out = append(out, rr)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
}

// handleSignup creates a new user, signs a JWT, sets auth cookie, and claims anon history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.createUser(body.Username, body.Password)
	if err != nil {
		if err.Error() == "username taken" {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	// Attach any anonymous rounds to the new account
	s.claimAnonRounds(s.ensureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates user, sets cookie, and claims anon history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.findUserByUsername(strings.TrimSpace(body.Username))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	s.claimAnonRounds(s.ensureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// --------------------------- optional auth ---------------------------------

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerOrCookie(r); tok != "" {
				claims := jwt.MapClaims{}
				if t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
					return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
				}); err == nil && t.Valid {
					if id, _ := claims["id"].(string); id != "" {
						if u, err := s.findUserByID(id); err == nil {
							ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: u.ID, Username: u.Username})
							r = r.WithContext(ctx)
						}
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

const anonCookieName = "wordsearch_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
// Used to associate guest rounds with a stable identifier.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("NODE_ENV") == "production",
		SameSite: func() http.SameSite {
			if os.Getenv("NODE_ENV") == "production" {
				return http.SameSiteNoneMode
			}
			return http.SameSiteLaxMode
		}(),
		Expires: time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// claimAnonRounds transfers any anonymous rounds to a user account after auth.
func (s *Server) claimAnonRounds(anonID, userID string) {
	if anonID == "" || userID == "" || s.db == nil {
		return
	}
	if _, err := s.db.Exec(`UPDATE rounds SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon rounds")
	}
}

// ------------------------ auth helpers & users -----------------------------

// userRow matches the users table shape.
type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	RoundsPlayed int
	Wins         int
	Streak       int
}

// createUser validates input, checks uniqueness, hashes password, and inserts a new user.
func (s *Server) createUser(username, pw string) (*userRow, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = s.db.QueryRow(`SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, errors.New("username taken")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	id := genID()
	if _, err := s.db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, username, string(h), now); err != nil {
		return nil, err
	}
	return &userRow{ID: id, Username: username, PasswordHash: string(h), CreatedAt: mustParse(now)}, nil
}

// findUserByUsername/ID load a user row or return an error if missing.
func (s *Server) findUserByUsername(username string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, games_played, wins, streak
	                      FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}
func (s *Server) findUserByID(id string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, games_played, wins, streak
	                      FROM users WHERE id=?`, id)
	return scanUser(row)
}

// scanUser converts a *sql.Row into a userRow.
func scanUser(row *sql.Row) (*userRow, error) {
	var u userRow
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.RoundsPlayed, &u.Wins, &u.Streak); err != nil {
		return nil, err
	}
	u.CreatedAt = mustParse(created)
	return &u, nil
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// normalizeUsername trims whitespace; adjust here if you want stricter rules.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8–100 chars")
	}
	return nil
}

// genID creates a 22‑char URL‑safe, crypto‑random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}

// bumpStats increments rounds played; updates wins and streak based on result (within tx).
func (s *Server) bumpStats(tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRow(`SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.Exec(`UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username and a configurable expiry (JWT_EXPIRES_DAYS; default 14).
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev_secret_change_me"
	}
	days := 14
	if v := os.Getenv("JWT_EXPIRES_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	name := getEnv("COOKIE_NAME", "wordsearch_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third‑party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	name := getEnv("COOKIE_NAME", "wordsearch_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "wordsearch_token")); err == nil {
		return c.Value
	}
	return ""
}

// ---------------------------- auth middleware ------------------------------

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			id, _ := claims["id"].(string)
			username, _ := claims["username"].(string)
			if id == "" || username == "" {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			// Ensure user still exists
			if _, err := s.findUserByID(id); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: id, Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
