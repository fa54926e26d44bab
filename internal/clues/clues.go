// apps/go-server/internal/clues/clues.go
//
// Category clues shown to solvers next to each word.
// Responsibilities:
//   - Provider: anything that can produce a short clue for a word.
//   - Dictionary: clues from the word list's categories (always available).
//   - Cache: clues warmed in the background, read without blocking.
//
// The session actor only ever calls Cache.Lookup, which never waits on a
// provider; Warm is fired when a submission is accepted so slow providers
// usually answer before the grids are built.

package clues

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const maxClueLen = 40

// Provider produces a clue for an uppercase word.
type Provider interface {
	Clue(ctx context.Context, word string) (string, error)
}

// Dictionary answers with the word's dictionary category.
type Dictionary struct {
	Category func(word string) string
}

func (d Dictionary) Clue(_ context.Context, word string) (string, error) {
	return d.Category(word), nil
}

// Cache memoizes provider clues and falls back to Fallback for unknown words.
type Cache struct {
	provider Provider
	fallback func(word string) string
	timeout  time.Duration

	mu    sync.RWMutex
	clues map[string]string
	wg    sync.WaitGroup
}

// NewCache wraps provider. fallback must not block.
func NewCache(provider Provider, fallback func(string) string, timeout time.Duration) *Cache {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Cache{
		provider: provider,
		fallback: fallback,
		timeout:  timeout,
		clues:    map[string]string{},
	}
}

// Warm fetches clues for words in the background.
func (c *Cache) Warm(words []string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for _, w := range words {
			c.fetch(w)
		}
	}()
}

// Wait blocks until every Warm call has finished.
func (c *Cache) Wait() { c.wg.Wait() }

func (c *Cache) fetch(word string) {
	c.mu.RLock()
	_, ok := c.clues[word]
	c.mu.RUnlock()
	if ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	clue, err := c.provider.Clue(ctx, word)
	if err != nil {
		log.Warn().Err(err).Str("word", word).Msg("clue lookup failed")
		return
	}
	clue, ok = sanitize(word, clue)
	if !ok {
		log.Debug().Str("word", word).Msg("clue rejected")
		return
	}
	c.mu.Lock()
	c.clues[word] = clue
	c.mu.Unlock()
}

// Lookup returns the cached clue or the fallback. It never blocks on the provider.
func (c *Cache) Lookup(word string) string {
	c.mu.RLock()
	clue, ok := c.clues[word]
	c.mu.RUnlock()
	if ok {
		return clue
	}
	return c.fallback(word)
}

// sanitize trims a provider clue and rejects any that gives the answer away.
func sanitize(word, clue string) (string, bool) {
	clue = strings.ToLower(strings.Trim(strings.TrimSpace(clue), `"'.`))
	clue = strings.Join(strings.Fields(clue), " ")
	if clue == "" || len(clue) > maxClueLen {
		return "", false
	}
	if strings.Contains(clue, strings.ToLower(word)) {
		return "", false
	}
	return clue, true
}
