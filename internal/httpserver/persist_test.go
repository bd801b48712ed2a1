package httpserver

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/thphuccoder/wordsearch/internal/store"
	"github.com/thphuccoder/wordsearch/internal/words"
)

// newTestDB opens a throwaway SQLite file and applies the real migration
// script, so these tests catch drift between sql/001_init.sql and the column
// lists used by the handlers.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "sql", "001_init.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	return db
}

func newTestServerWithDB(t *testing.T) (*httptest.Server, store.Store, *sql.DB) {
	t.Helper()
	if err := words.Init(); err != nil {
		t.Fatalf("words.Init failed: %v", err)
	}
	db := newTestDB(t)
	st := store.NewMemoryStore()
	srv := New(st, db, WithDelays(time.Millisecond, time.Millisecond))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, st, db
}

func TestWonRoundPersisted(t *testing.T) {
	ts, st, db := newTestServerWithDB(t)

	var created newPuzzleRes
	res := postJSON(t, ts.URL+"/puzzle/new", newPuzzleReq{Rows: 4, Cols: 4, Word: "cat"}, &created)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("new puzzle status %d", res.StatusCode)
	}

	sess, err := st.Get(context.Background(), created.PuzzleID)
	if err != nil {
		t.Fatalf("session not in store: %v", err)
	}
	for _, p := range sess.Board().Path() {
		postJSON(t, ts.URL+"/puzzle/select", selectReq{PuzzleID: created.PuzzleID, Row: p.Row, Col: p.Col}, nil)
	}

	var eval evaluateRes
	postJSON(t, ts.URL+"/puzzle/evaluate", evaluateReq{PuzzleID: created.PuzzleID}, &eval)
	if !eval.Matched {
		t.Fatalf("path selection must match")
	}

	var count, wordLen, selections int
	var matched bool
	var anon sql.NullString
	row := db.QueryRow(`SELECT COUNT(1), word_len, matched, selections, anonymous_id FROM rounds`)
	if err := row.Scan(&count, &wordLen, &matched, &selections, &anon); err != nil {
		t.Fatalf("scan rounds row: %v", err)
	}
	if count != 1 {
		t.Fatalf("rounds count %d, want 1", count)
	}
	if !matched || wordLen != 3 || selections != 3 {
		t.Fatalf("round row matched=%v word_len=%d selections=%d, want true/3/3", matched, wordLen, selections)
	}
	if !anon.Valid || anon.String == "" {
		t.Fatalf("guest round must carry an anonymous owner")
	}
}

func TestLostRoundPersisted(t *testing.T) {
	ts, _, db := newTestServerWithDB(t)

	var created newPuzzleRes
	postJSON(t, ts.URL+"/puzzle/new", newPuzzleReq{Rows: 4, Cols: 4, Word: "cat"}, &created)
	postJSON(t, ts.URL+"/puzzle/select", selectReq{PuzzleID: created.PuzzleID, Row: 0, Col: 0}, nil)

	var eval evaluateRes
	postJSON(t, ts.URL+"/puzzle/evaluate", evaluateReq{PuzzleID: created.PuzzleID}, &eval)
	if eval.Matched {
		t.Fatalf("one cell must not match")
	}

	var matched bool
	if err := db.QueryRow(`SELECT matched FROM rounds`).Scan(&matched); err != nil {
		t.Fatalf("scan rounds row: %v", err)
	}
	if matched {
		t.Fatalf("lost round stored as matched")
	}
}

func TestDailyWinPersistedAndLockedNextDayStart(t *testing.T) {
	ts, st, db := newTestServerWithDB(t)
	client := newDailyClient(t)

	var created dailyNewRes
	postJSONClient(t, client, ts.URL+"/daily/new", struct{}{}, &created)
	if created.Played || created.PuzzleID == "" {
		t.Fatalf("unexpected daily session: %+v", created)
	}

	sess, err := st.Get(context.Background(), created.PuzzleID)
	if err != nil {
		t.Fatalf("daily session not in store: %v", err)
	}
	for _, p := range sess.Board().Path() {
		postJSONClient(t, client, ts.URL+"/puzzle/select",
			selectReq{PuzzleID: created.PuzzleID, Row: p.Row, Col: p.Col}, nil)
	}

	var eval dailyEvalRes
	postJSONClient(t, client, ts.URL+"/daily/evaluate", dailyEvalReq{PuzzleID: created.PuzzleID}, &eval)
	if !eval.Matched {
		t.Fatalf("daily path selection must match")
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM daily_results`).Scan(&count); err != nil {
		t.Fatalf("scan daily_results: %v", err)
	}
	if count != 1 {
		t.Fatalf("daily_results count %d, want 1", count)
	}

	// With the win on record, /daily/new reports the day as played.
	var replay dailyNewRes
	postJSONClient(t, client, ts.URL+"/daily/new", struct{}{}, &replay)
	if !replay.Played {
		t.Fatalf("daily replay after a win must report played=true")
	}
}
