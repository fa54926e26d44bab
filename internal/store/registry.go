// apps/go-server/internal/store/registry.go
//
// Session lifecycle on top of a Store.
// Responsibilities:
//   - Create and start a session the first time its id is opened or attached.
//   - Remove it from the Store when its actor exits.
//   - Periodically abandon sessions that sat idle in waiting (nobody came) or
//     in finished (clients never hung up) longer than the idle timeout.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossduel/apps/go-server/internal/game"
)

// Factory builds a session that has not been started. paired is true when
// the matchmaking queue opened it.
type Factory func(id string, paired bool) *game.Session

// Registry owns session creation and cleanup.
type Registry struct {
	store   Store
	factory Factory
	idle    time.Duration

	mu sync.Mutex // serializes get-or-create
}

// NewRegistry returns a Registry. idle <= 0 disables reaping.
func NewRegistry(st Store, f Factory, idle time.Duration) *Registry {
	return &Registry{store: st, factory: f, idle: idle}
}

// Open starts the session for a fresh pairing. It never blocks on the session.
func (r *Registry) Open(id string) { r.getOrCreate(id, true) }

// Attach returns the live session for id, creating it for direct-link play.
func (r *Registry) Attach(id string) *game.Session { return r.getOrCreate(id, false) }

// Lookup returns a live session without creating one.
func (r *Registry) Lookup(ctx context.Context, id string) (*game.Session, error) {
	return r.store.Get(ctx, id)
}

// Len is the number of live sessions.
func (r *Registry) Len() int { return r.store.Len() }

func (r *Registry) getOrCreate(id string, paired bool) *game.Session {
	ctx := context.Background()
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, err := r.store.Get(ctx, id); err == nil {
		select {
		case <-s.Done():
			// exited but not yet removed; replace it
		default:
			return s
		}
	} else if !errors.Is(err, ErrNotFound) {
		log.Error().Err(err).Str("session_id", id).Msg("session lookup")
	}

	s := r.factory(id, paired)
	if err := r.store.Save(ctx, s); err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("save session")
	}
	go func() {
		s.Run()
		r.remove(s)
	}()
	log.Debug().Str("session_id", id).Bool("paired", paired).Msg("session opened")
	return s
}

// remove deletes s unless the id has since been reused.
func (r *Registry) remove(s *game.Session) {
	ctx := context.Background()
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, err := r.store.Get(ctx, s.ID); err == nil && cur == s {
		_ = r.store.Delete(ctx, s.ID)
	}
}

// Reap abandons idle sessions and returns how many it asked to stop.
func (r *Registry) Reap(now time.Time) int {
	if r.idle <= 0 {
		return 0
	}
	n := 0
	for _, s := range r.store.All(context.Background()) {
		snap := s.Snapshot()
		idle := (snap.Phase == game.PhaseWaiting && now.Sub(snap.CreatedAt) > r.idle) ||
			(snap.Phase == game.PhaseFinished && now.Sub(snap.FinishedAt) > r.idle)
		if idle {
			log.Info().Str("session_id", s.ID).Str("phase", string(snap.Phase)).Msg("reaping idle session")
			s.Abandon()
			n++
		}
	}
	return n
}

// RunReaper calls Reap every idle/2 until ctx is done.
func (r *Registry) RunReaper(ctx context.Context) {
	if r.idle <= 0 {
		return
	}
	ticker := time.NewTicker(r.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Reap(now)
		}
	}
}
