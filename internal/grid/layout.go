package grid

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
)

const (
	DefaultAttempts = 10
	DefaultMaxSize  = 15
)

// ErrNoLayout is returned when the words cannot be arranged within bounds.
var ErrNoLayout = errors.New("grid: words cannot be laid out")

// Generator turns a player's words into a crossword.
type Generator interface {
	Generate(words []string) (*Grid, error)
}

// Layout is the default Generator. It tries up to Attempts word orders to
// interlock every word; words that cannot cross the rest are kept as
// detached islands, as long as the grid stays within MaxSize on both axes.
type Layout struct {
	Attempts int
	MaxSize  int
	// Shuffle reorders words between attempts; rand.Shuffle when nil.
	Shuffle func(n int, swap func(i, j int))
}

// NewLayout returns a Layout with the given attempt budget.
func NewLayout(attempts int) *Layout {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &Layout{Attempts: attempts, MaxSize: DefaultMaxSize}
}

// Generate implements Generator.
func (l *Layout) Generate(words []string) (*Grid, error) {
	if len(words) == 0 {
		return nil, errors.New("grid: no words")
	}
	maxSize := l.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	attempts := l.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	shuffle := l.Shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}

	order := make([]string, len(words))
	seen := make(map[string]bool, len(words))
	for i, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" || strings.IndexFunc(w, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
			return nil, fmt.Errorf("grid: invalid word %q", words[i])
		}
		if seen[w] {
			return nil, fmt.Errorf("grid: duplicate word %q", w)
		}
		if len(w) > maxSize {
			return nil, ErrNoLayout
		}
		seen[w] = true
		order[i] = w
	}
	// Longest first gives the other words the most letters to cross.
	sort.SliceStable(order, func(i, j int) bool { return len(order[i]) > len(order[j]) })

	var (
		best     *board
		bestLeft []string
	)
	for a := 0; a < attempts; a++ {
		if a > 0 {
			shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		b, left := attempt(order, maxSize)
		if len(left) == 0 {
			return b.grid(), nil
		}
		if best == nil || len(left) < len(bestLeft) ||
			(len(left) == len(bestLeft) && b.area() < best.area()) {
			best, bestLeft = b, left
		}
	}

	for _, w := range bestLeft {
		if !best.island(w, maxSize) {
			return nil, ErrNoLayout
		}
	}
	return best.grid(), nil
}

type placed struct {
	word  string
	start Pos
	dir   Direction
}

const (
	bitAcross uint8 = 1 << iota
	bitDown
)

func dirBit(d Direction) uint8 {
	if d == Down {
		return bitDown
	}
	return bitAcross
}

// board is a sparse, unbounded canvas used while searching for a layout.
type board struct {
	letters map[Pos]byte
	dirs    map[Pos]uint8
	words   []placed

	minR, maxR, minC, maxC int
}

func newBoard() *board {
	return &board{letters: make(map[Pos]byte), dirs: make(map[Pos]uint8)}
}

func attempt(order []string, maxSize int) (*board, []string) {
	b := newBoard()
	b.place(order[0], Pos{}, Across)

	pending := slices.Clone(order[1:])
	for progress := true; progress && len(pending) > 0; {
		progress = false
		next := pending[:0]
		for _, w := range pending {
			if start, dir, ok := b.bestCrossing(w, maxSize); ok {
				b.place(w, start, dir)
				progress = true
				continue
			}
			next = append(next, w)
		}
		pending = next
	}
	return b, pending
}

func (b *board) occupied(p Pos) bool {
	_, ok := b.letters[p]
	return ok
}

// fits reports whether word can start at start going dir, and how many
// existing letters it would cross.
func (b *board) fits(word string, start Pos, dir Direction, maxSize int) (int, bool) {
	dr, dc := dir.step()
	pr, pc := dir.perpendicular().step()
	n := len(word)
	end := Pos{start.Row + dr*(n-1), start.Col + dc*(n-1)}

	if b.occupied(Pos{start.Row - dr, start.Col - dc}) || b.occupied(Pos{end.Row + dr, end.Col + dc}) {
		return 0, false
	}

	crossings := 0
	for i := 0; i < n; i++ {
		p := Pos{start.Row + dr*i, start.Col + dc*i}
		if l, ok := b.letters[p]; ok {
			if l != word[i] || b.dirs[p]&dirBit(dir) != 0 {
				return 0, false
			}
			crossings++
			continue
		}
		if b.occupied(Pos{p.Row + pr, p.Col + pc}) || b.occupied(Pos{p.Row - pr, p.Col - pc}) {
			return 0, false
		}
	}
	if crossings == n {
		return 0, false
	}

	if len(b.words) > 0 {
		h := max(b.maxR, end.Row) - min(b.minR, start.Row) + 1
		w := max(b.maxC, end.Col) - min(b.minC, start.Col) + 1
		if h > maxSize || w > maxSize {
			return 0, false
		}
	}
	return crossings, true
}

// bestCrossing finds the crossing placement with the most shared letters,
// preferring the smallest bounding box.
func (b *board) bestCrossing(word string, maxSize int) (Pos, Direction, bool) {
	var (
		bestStart Pos
		bestDir   Direction
		bestCross int
		bestArea  int
		found     bool
	)
	for _, pl := range b.words {
		pdr, pdc := pl.dir.step()
		dir := pl.dir.perpendicular()
		dr, dc := dir.step()
		for j := 0; j < len(pl.word); j++ {
			cross := Pos{pl.start.Row + pdr*j, pl.start.Col + pdc*j}
			for i := 0; i < len(word); i++ {
				if word[i] != pl.word[j] {
					continue
				}
				start := Pos{cross.Row - dr*i, cross.Col - dc*i}
				n, ok := b.fits(word, start, dir, maxSize)
				if !ok {
					continue
				}
				area := b.areaWith(word, start, dir)
				if !found || n > bestCross || (n == bestCross && area < bestArea) {
					bestStart, bestDir, bestCross, bestArea, found = start, dir, n, area, true
				}
			}
		}
	}
	return bestStart, bestDir, found
}

// island places word clear of every other word: below the grid, or to its right.
func (b *board) island(word string, maxSize int) bool {
	below := Pos{b.maxR + 2, b.minC}
	if _, ok := b.fits(word, below, Across, maxSize); ok {
		b.place(word, below, Across)
		return true
	}
	right := Pos{b.minR, b.maxC + 2}
	if _, ok := b.fits(word, right, Down, maxSize); ok {
		b.place(word, right, Down)
		return true
	}
	return false
}

func (b *board) place(word string, start Pos, dir Direction) {
	dr, dc := dir.step()
	end := Pos{start.Row + dr*(len(word)-1), start.Col + dc*(len(word)-1)}
	if len(b.words) == 0 {
		b.minR, b.maxR, b.minC, b.maxC = start.Row, end.Row, start.Col, end.Col
	} else {
		b.minR, b.maxR = min(b.minR, start.Row), max(b.maxR, end.Row)
		b.minC, b.maxC = min(b.minC, start.Col), max(b.maxC, end.Col)
	}
	for i := 0; i < len(word); i++ {
		p := Pos{start.Row + dr*i, start.Col + dc*i}
		b.letters[p] = word[i]
		b.dirs[p] |= dirBit(dir)
	}
	b.words = append(b.words, placed{word: word, start: start, dir: dir})
}

func (b *board) area() int {
	return (b.maxR - b.minR + 1) * (b.maxC - b.minC + 1)
}

func (b *board) areaWith(word string, start Pos, dir Direction) int {
	dr, dc := dir.step()
	end := Pos{start.Row + dr*(len(word)-1), start.Col + dc*(len(word)-1)}
	h := max(b.maxR, end.Row) - min(b.minR, start.Row) + 1
	w := max(b.maxC, end.Col) - min(b.minC, start.Col) + 1
	return h * w
}

// grid normalises the board to a 0-based Grid and numbers the placements
// in reading order.
func (b *board) grid() *Grid {
	g := &Grid{
		Width:  b.maxC - b.minC + 1,
		Height: b.maxR - b.minR + 1,
	}
	g.Cells = make([][]*Cell, g.Height)
	for r := range g.Cells {
		g.Cells[r] = make([]*Cell, g.Width)
	}

	words := slices.Clone(b.words)
	sort.SliceStable(words, func(i, j int) bool {
		a, c := words[i].start, words[j].start
		if a.Row != c.Row {
			return a.Row < c.Row
		}
		if a.Col != c.Col {
			return a.Col < c.Col
		}
		return words[i].dir == Across && words[j].dir == Down
	})

	for i, w := range words {
		dr, dc := w.dir.step()
		p := Placement{
			Index:     i + 1,
			Word:      w.word,
			Row:       w.start.Row - b.minR,
			Col:       w.start.Col - b.minC,
			Direction: w.dir,
			Cells:     make([]Pos, len(w.word)),
		}
		for k := 0; k < len(w.word); k++ {
			pos := Pos{p.Row + dr*k, p.Col + dc*k}
			p.Cells[k] = pos
			cell := g.Cells[pos.Row][pos.Col]
			if cell == nil {
				cell = &Cell{Letter: w.word[k]}
				g.Cells[pos.Row][pos.Col] = cell
			}
			cell.Words = append(cell.Words, p.Index)
		}
		g.Placements = append(g.Placements, p)
	}
	return g
}
