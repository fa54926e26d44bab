package grid

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// rotate is a deterministic stand-in for rand.Shuffle.
func rotate(n int, swap func(i, j int)) {
	for i := 0; i < n-1; i++ {
		swap(i, i+1)
	}
}

func newTestLayout() *Layout {
	l := NewLayout(DefaultAttempts)
	l.Shuffle = rotate
	return l
}

func countIntersections(g *Grid) int {
	n := 0
	for _, row := range g.Cells {
		for _, c := range row {
			if c != nil && c.Intersection() {
				n++
			}
		}
	}
	return n
}

func TestGenerateKeepsInvariants(t *testing.T) {
	sets := [][]string{
		{"CAT", "DOG", "FISH", "BIRD"},
		{"LION", "BEAR", "WOLF", "DEER"},
		{"APPLE", "PEAR", "PLUM", "LEMON"},
		{"house", "mouse", "horse", "goose"},
	}
	for _, words := range sets {
		g, err := newTestLayout().Generate(words)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", words, err)
		}
		if err := g.Validate(); err != nil {
			t.Fatalf("%v: invalid grid: %v", words, err)
		}
		if len(g.Placements) != len(words) {
			t.Fatalf("%v: expected %d placements, got %d", words, len(words), len(g.Placements))
		}
		total := 0
		for _, w := range words {
			total += len(w)
		}
		if want := total - countIntersections(g); g.Fillable() != want {
			t.Fatalf("%v: expected %d fillable cells, got %d", words, want, g.Fillable())
		}
		if g.Width > DefaultMaxSize || g.Height > DefaultMaxSize {
			t.Fatalf("%v: grid %dx%d exceeds bounds", words, g.Width, g.Height)
		}
	}
}

func TestGenerateCrossesSharedLetters(t *testing.T) {
	g, err := newTestLayout().Generate([]string{"FISH", "BIRD", "CAT", "DOG"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// FISH/BIRD share I and BIRD/DOG share D; CAT shares nothing.
	if n := countIntersections(g); n != 2 {
		t.Fatalf("expected 2 intersections, got %d", n)
	}
}

func TestGenerateNumbersInReadingOrder(t *testing.T) {
	g, err := newTestLayout().Generate([]string{"HOUSE", "MOUSE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range g.Placements {
		if p.Index != i+1 {
			t.Fatalf("expected index %d, got %d", i+1, p.Index)
		}
		if i == 0 {
			continue
		}
		prev := g.Placements[i-1]
		if prev.Row > p.Row || (prev.Row == p.Row && prev.Col > p.Col) {
			t.Fatalf("placements out of reading order: %+v before %+v", prev, p)
		}
	}
	if countIntersections(g) == 0 {
		t.Fatal("expected HOUSE and MOUSE to cross")
	}
}

func TestGenerateFailures(t *testing.T) {
	l := newTestLayout()
	l.MaxSize = 5
	if _, err := l.Generate([]string{"ELEPHANT"}); !errors.Is(err, ErrNoLayout) {
		t.Fatalf("expected ErrNoLayout, got %v", err)
	}
	if _, err := l.Generate([]string{"ABCDE", "FGHIJ", "KLMNO", "PQRST"}); !errors.Is(err, ErrNoLayout) {
		t.Fatalf("expected ErrNoLayout for islands overflowing, got %v", err)
	}
	if _, err := l.Generate([]string{"CAT", "cat"}); err == nil {
		t.Fatal("expected duplicate words to be rejected")
	}
	if _, err := l.Generate(nil); err == nil {
		t.Fatal("expected empty input to be rejected")
	}
}

func TestClientGridWithholdsLetters(t *testing.T) {
	g, err := newTestLayout().Generate([]string{"LION", "BEAR", "WOLF", "DEER"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.SetClues(func(string) string { return "animal" })

	b, err := json.Marshal(g.Client())
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range g.Words() {
		if strings.Contains(string(b), w) {
			t.Fatalf("client grid leaks %q: %s", w, b)
		}
	}

	cg := g.Client()
	if len(cg.Words) != 4 {
		t.Fatalf("expected 4 words, got %d", len(cg.Words))
	}
	for _, w := range cg.Words {
		p, ok := g.Placement(w.Index)
		if !ok || w.Length != len(p.Word) || w.Clue != "animal" {
			t.Fatalf("bad metadata %+v", w)
		}
		if cg.Cells[w.Row][w.Col] == nil || cg.Cells[w.Row][w.Col].Number == 0 {
			t.Fatalf("start cell of word %d is not numbered", w.Index)
		}
	}

	sol := g.Solution()
	p := g.Placements[0]
	if got := sol.Cells[p.Row][p.Col]; got != p.Word[:1] {
		t.Fatalf("solution letter %q, want %q", got, p.Word[:1])
	}
}
