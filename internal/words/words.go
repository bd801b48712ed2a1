// internal/words/words.go
//
// Provides hidden-word list management for the puzzle generator.
//
// Responsibilities:
//   - Load the hidden-word candidate list from an environment-provided file
//     or fall back to the embedded default list.
//   - Maintain a set for quick membership checks.
//   - Supply utility functions like RandomWord, IsWord, and Stats.
//
// Initialization behavior (Init):
//   1. If WORDS_FILE is set, load candidate words from that file.
//   2. Otherwise fall back to the embedded default list in assets/words.txt.
//
// Environment variables:
//   WORDS_FILE=/path/to/words.txt
//
// Constraints:
//   • Words must be 3–12 alphabetic letters (a–z).
//   • Lists are normalized to lowercase.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/thphuccoder/wordsearch/assets"
)

const (
	minWordLen = 3
	maxWordLen = 12
)

var (
	initOnce   sync.Once
	all        []string            // candidate hidden words
	wordSet    map[string]struct{} // membership lookups
	initialErr error
)

// Init loads the word list exactly once.
// Returns an error if the list ends up empty.
func Init() error {
	initOnce.Do(func() {
		var list []string

		if path := os.Getenv("WORDS_FILE"); path != "" {
			var err error
			list, err = readWordFile(path)
			if err != nil {
				initialErr = err
				return
			}
		} else {
			raw, err := assets.WordList()
			if err != nil {
				initialErr = err
				return
			}
			for _, w := range raw {
				if validWord(w) {
					list = append(list, w)
				}
			}
		}

		all = list
		wordSet = toSet(list)

		if len(all) == 0 {
			initialErr = errors.New("words: word list is empty")
		}
	})
	return initialErr
}

// readWordFile loads one word per line from a file,
// lowercases, trims, and keeps only valid 3–12 letter alphabetic words.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(strings.ToLower(sc.Text()))
		if validWord(w) {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

// validWord enforces length and alphabet constraints.
func validWord(w string) bool {
	return len(w) >= minWordLen && len(w) <= maxWordLen && isAlpha(w)
}

// toSet converts a list of strings into a lookup set.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Words returns a copy of the full candidate list (all lowercase). Used by
// the daily puzzle for deterministic indexing; copied so a caller mutation
// cannot disturb the list or the index mapping.
func Words() []string {
	out := make([]string, len(all))
	copy(out, all)
	return out
}

// RandomWord returns a cryptographically random word no longer than maxLen,
// so it can fit a board with maxLen cells. Falls back to "cat" if the list is
// not loaded or nothing fits.
func RandomWord(maxLen int) string {
	var fits []string
	for _, w := range all {
		if len(w) <= maxLen {
			fits = append(fits, w)
		}
	}
	if len(fits) == 0 {
		return "cat"
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(fits))))
	return fits[nBig.Int64()]
}

// IsWord reports whether w is in the candidate list.
func IsWord(w string) bool {
	_, ok := wordSet[strings.ToLower(w)]
	return ok
}

// Stats returns the count of loaded words.
func Stats() int {
	return len(all)
}
