package game

import (
	"github.com/robalobadob/crossduel/apps/go-server/internal/protocol"
	"github.com/robalobadob/crossduel/apps/go-server/internal/words"
)

// WordCount is the number of words each player submits.
const WordCount = 4

// ValidateWords normalizes a submission and checks it against the word rules.
// The first violation rejects the whole submission.
func ValidateWords(in []string, isValid func(string) bool) ([]string, error) {
	if len(in) != WordCount {
		return nil, protocol.Errorf(protocol.CodeWordCount, "submit exactly %d words", WordCount)
	}
	out := make([]string, 0, WordCount)
	seen := make(map[string]bool, WordCount)
	for _, raw := range in {
		w := words.Normalize(raw)
		if len(w) < words.MinLength || len(w) > words.MaxLength {
			return nil, protocol.Errorf(protocol.CodeWordLength,
				"%q must be %d-%d letters", w, words.MinLength, words.MaxLength)
		}
		if !words.IsAlpha(w) {
			return nil, protocol.Errorf(protocol.CodeWordChars, "%q must use letters A-Z only", w)
		}
		if seen[w] {
			return nil, protocol.Errorf(protocol.CodeWordDuplicate, "%q appears twice", w)
		}
		if isValid != nil && !isValid(w) {
			return nil, protocol.Errorf(protocol.CodeWordUnknown, "%q is not in the dictionary", w)
		}
		seen[w] = true
		out = append(out, w)
	}
	return out, nil
}
