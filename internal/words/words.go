// apps/go-server/internal/words/words.go
//
// Dictionary management for the word-validity oracle.
//
// Responsibilities:
//   - Load the dictionary from an environment-provided file or fall back to the embedded default.
//   - Answer IsValid lookups for submitted words.
//   - Supply each word's category, used as the solver's clue.
//
// Dictionary format:
//   One entry per line: `WORD category`. The category is optional ("word" is used when missing).
//   Blank lines and lines starting with '#' are ignored.
//
// Initialization behavior (Init):
//   1. If WORDS_FILE is set, load the dictionary from that file.
//   2. Otherwise use the embedded assets/dictionary.txt.
//
// Constraints:
//   • Words must be 3–12 alphabetic letters (A–Z).
//   • Lists are normalized to uppercase.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/crossduel/apps/go-server/assets"
)

const (
	MinLength = 3
	MaxLength = 12

	defaultCategory = "word"
)

// List is an immutable dictionary keyed by uppercase word.
type List struct {
	categories map[string]string
}

var (
	initOnce   sync.Once
	defaultSet *List
	initialErr error
)

// Init loads the process-wide dictionary exactly once.
// Returns an error if the dictionary ends up empty.
func Init() error {
	initOnce.Do(func() {
		var (
			l   *List
			err error
		)
		if path := os.Getenv("WORDS_FILE"); path != "" {
			l, err = Load(path)
		} else {
			l, err = Embedded()
		}
		if err != nil {
			initialErr = err
			return
		}
		if l.Len() == 0 {
			initialErr = errors.New("words: dictionary is empty")
			return
		}
		defaultSet = l
	})
	return initialErr
}

// Load reads a dictionary file, keeping only valid 3–12 letter alphabetic words.
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l := &List{categories: make(map[string]string)}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, category, _ := strings.Cut(line, " ")
		l.add(word, category)
	}
	return l, sc.Err()
}

// Embedded builds the dictionary shipped in the assets package.
func Embedded() (*List, error) {
	entries, err := assets.DictionaryEntries()
	if err != nil {
		return nil, err
	}
	l := &List{categories: make(map[string]string, len(entries))}
	for _, e := range entries {
		l.add(e.Word, e.Category)
	}
	return l, nil
}

func (l *List) add(word, category string) {
	w := Normalize(word)
	if !WellFormed(w) {
		return
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = defaultCategory
	}
	l.categories[w] = category
}

// IsValid reports whether w (any case) is in the dictionary.
func (l *List) IsValid(w string) bool {
	_, ok := l.categories[Normalize(w)]
	return ok
}

// Category returns the category of w, or "word" when unknown.
func (l *List) Category(w string) string {
	if c, ok := l.categories[Normalize(w)]; ok {
		return c
	}
	return defaultCategory
}

// Len returns the number of words.
func (l *List) Len() int { return len(l.categories) }

// Normalize trims and uppercases a word.
func Normalize(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

// WellFormed checks length bounds and that w is only A–Z.
// w must already be normalized.
func WellFormed(w string) bool {
	return len(w) >= MinLength && len(w) <= MaxLength && IsAlpha(w)
}

// IsAlpha reports whether s is all uppercase ASCII letters.
func IsAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// IsValid reports whether w is in the process-wide dictionary.
func IsValid(w string) bool {
	if defaultSet == nil {
		return false
	}
	return defaultSet.IsValid(w)
}

// Category returns the category of w from the process-wide dictionary.
func Category(w string) string {
	if defaultSet == nil {
		return defaultCategory
	}
	return defaultSet.Category(w)
}

// Stats returns the number of loaded words.
func Stats() int {
	if defaultSet == nil {
		return 0
	}
	return defaultSet.Len()
}
