// apps/go-server/internal/grid/grid.go
//
// Crossword grid model shared by the generator and the game session.
// Defines:
//   - Grid: sparse 2-D cells (nil = blocked) plus the word placements.
//   - ClientGrid: the letter-free view handed to the solver.
//   - Solution: the letters, disclosed when a match ends.

package grid

import "fmt"

// Direction of a placement.
type Direction string

const (
	Across Direction = "across"
	Down   Direction = "down"
)

func (d Direction) step() (dr, dc int) {
	if d == Down {
		return 1, 0
	}
	return 0, 1
}

func (d Direction) perpendicular() Direction {
	if d == Down {
		return Across
	}
	return Down
}

// Pos is a row/col coordinate.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell is a letter cell. Words lists the indices of the placements covering it.
type Cell struct {
	Letter byte
	Words  []int
}

// Intersection reports whether two placements cross at this cell.
func (c *Cell) Intersection() bool { return len(c.Words) == 2 }

// Placement is one word's position within the grid.
type Placement struct {
	Index     int       // 1-based, reading order
	Word      string    // source word, uppercase
	Row       int       // start row
	Col       int       // start column
	Direction Direction // across | down
	Cells     []Pos     // member cells in word order
	Clue      string    // category hint shown to the solver
}

// Grid is a generated crossword.
type Grid struct {
	Width      int
	Height     int
	Cells      [][]*Cell // [row][col]; nil means blocked
	Placements []Placement
}

// At returns the cell at (row, col), or nil when blocked or out of range.
func (g *Grid) At(row, col int) *Cell {
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
		return nil
	}
	return g.Cells[row][col]
}

// Fillable counts the non-blocked cells.
func (g *Grid) Fillable() int {
	n := 0
	for _, row := range g.Cells {
		for _, c := range row {
			if c != nil {
				n++
			}
		}
	}
	return n
}

// Placement returns the placement with the given 1-based index.
func (g *Grid) Placement(index int) (*Placement, bool) {
	for i := range g.Placements {
		if g.Placements[i].Index == index {
			return &g.Placements[i], true
		}
	}
	return nil, false
}

// Words returns the source words in placement order.
func (g *Grid) Words() []string {
	out := make([]string, len(g.Placements))
	for i, p := range g.Placements {
		out[i] = p.Word
	}
	return out
}

// SetClues assigns a clue to every placement.
func (g *Grid) SetClues(clue func(word string) string) {
	for i := range g.Placements {
		g.Placements[i].Clue = clue(g.Placements[i].Word)
	}
}

// Validate checks the structural invariants: every letter cell belongs to
// one or two placements, and the placement cells agree with the letters.
func (g *Grid) Validate() error {
	counts := make(map[Pos]int)
	for _, p := range g.Placements {
		if len(p.Cells) != len(p.Word) {
			return fmt.Errorf("placement %d: %d cells for %q", p.Index, len(p.Cells), p.Word)
		}
		for i, pos := range p.Cells {
			c := g.At(pos.Row, pos.Col)
			if c == nil {
				return fmt.Errorf("placement %d: blocked cell at %d,%d", p.Index, pos.Row, pos.Col)
			}
			if c.Letter != p.Word[i] {
				return fmt.Errorf("placement %d: letter mismatch at %d,%d", p.Index, pos.Row, pos.Col)
			}
			counts[pos]++
		}
	}
	for r, row := range g.Cells {
		for col, c := range row {
			if c == nil {
				continue
			}
			n := counts[Pos{r, col}]
			if n < 1 || n > 2 {
				return fmt.Errorf("cell %d,%d belongs to %d placements", r, col, n)
			}
			if n != len(c.Words) {
				return fmt.Errorf("cell %d,%d lists %d words, covered by %d", r, col, len(c.Words), n)
			}
		}
	}
	return nil
}

// ClientCell is a cell as the solver sees it.
type ClientCell struct {
	Intersection bool `json:"intersection"`
	Number       int  `json:"number,omitempty"`
}

// ClientWord is placement metadata without the letters.
type ClientWord struct {
	Index     int       `json:"index"`
	Direction Direction `json:"direction"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Length    int       `json:"length"`
	Clue      string    `json:"clue"`
}

// ClientGrid is the blanked grid sent to the solver.
type ClientGrid struct {
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Cells  [][]*ClientCell `json:"cells"`
	Words  []ClientWord    `json:"words"`
}

// Client builds the letter-free view of g.
func (g *Grid) Client() ClientGrid {
	cells := make([][]*ClientCell, g.Height)
	for r := range cells {
		cells[r] = make([]*ClientCell, g.Width)
		for c := range cells[r] {
			if cell := g.Cells[r][c]; cell != nil {
				cells[r][c] = &ClientCell{Intersection: cell.Intersection()}
			}
		}
	}
	words := make([]ClientWord, 0, len(g.Placements))
	for _, p := range g.Placements {
		if cc := cells[p.Row][p.Col]; cc.Number == 0 {
			cc.Number = p.Index
		}
		words = append(words, ClientWord{
			Index:     p.Index,
			Direction: p.Direction,
			Row:       p.Row,
			Col:       p.Col,
			Length:    len(p.Word),
			Clue:      p.Clue,
		})
	}
	return ClientGrid{Width: g.Width, Height: g.Height, Cells: cells, Words: words}
}

// SolvedWord pairs a placement index with its word.
type SolvedWord struct {
	Index int    `json:"index"`
	Word  string `json:"word"`
}

// Solution is the fully disclosed grid.
type Solution struct {
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Cells  [][]string   `json:"cells"` // "" for blocked cells
	Words  []SolvedWord `json:"words"`
}

// Solution discloses every letter of g.
func (g *Grid) Solution() Solution {
	cells := make([][]string, g.Height)
	for r := range cells {
		cells[r] = make([]string, g.Width)
		for c := range cells[r] {
			if cell := g.Cells[r][c]; cell != nil {
				cells[r][c] = string(cell.Letter)
			}
		}
	}
	words := make([]SolvedWord, len(g.Placements))
	for i, p := range g.Placements {
		words[i] = SolvedWord{Index: p.Index, Word: p.Word}
	}
	return Solution{Width: g.Width, Height: g.Height, Cells: cells, Words: words}
}
