package words

import "testing"

func TestInitLoadsEmbeddedList(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if Stats() == 0 {
		t.Fatalf("embedded word list must not be empty")
	}
	for _, w := range Words() {
		if !validWord(w) {
			t.Fatalf("loaded invalid word %q", w)
		}
	}
}

func TestWordsReturnsCopy(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	list := Words()
	if len(list) == 0 {
		t.Fatalf("word list is empty")
	}
	orig := list[0]
	list[0] = "mutated"
	if got := Words()[0]; got != orig {
		t.Fatalf("mutating the returned slice leaked into the list: %q", got)
	}
}

func TestRandomWordRespectsMaxLen(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	for i := 0; i < 50; i++ {
		w := RandomWord(4)
		if len(w) > 4 {
			t.Fatalf("RandomWord(4) returned %q (len %d)", w, len(w))
		}
	}
}

func TestRandomWordFallback(t *testing.T) {
	// Nothing in the list is shorter than minWordLen, so a 2-cell board
	// falls back to the default.
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if w := RandomWord(2); w != "cat" {
		t.Fatalf("RandomWord(2) = %q, want fallback \"cat\"", w)
	}
}

func TestIsWord(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !IsWord("cat") {
		t.Fatalf("\"cat\" should be in the default list")
	}
	if !IsWord("CAT") {
		t.Fatalf("IsWord must be case-insensitive on input")
	}
	if IsWord("zzzzz") {
		t.Fatalf("\"zzzzz\" should not be in the default list")
	}
}
