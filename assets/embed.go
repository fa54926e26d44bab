package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed dictionary.txt
var FS embed.FS

// Entry is one dictionary line: an uppercase word and its category.
type Entry struct {
	Word     string
	Category string
}

func readEntries(name string) ([]Entry, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		word, category, _ := strings.Cut(s, " ")
		out = append(out, Entry{
			Word:     strings.ToUpper(word),
			Category: strings.TrimSpace(category),
		})
	}
	return out, sc.Err()
}

func DictionaryEntries() ([]Entry, error) {
	return readEntries("dictionary.txt")
}
