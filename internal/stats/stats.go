// apps/go-server/internal/stats/stats.go
//
// Game counters.
// Responsibilities:
//   - Counters: the increment/decrement/read service injected into the queue,
//     the sessions and the HTTP side channel.
//   - Snapshot: the public view sent in queue messages and GET /stats.
//   - Name rules shared by every backend.
//
// Backends: Memory (tests, single process), SQLite (default, durable),
// Redis (shared between several servers).

package stats

import (
	"context"
	"errors"
	"regexp"
)

const (
	ActiveGames = "active_games"
	TotalGames  = "total_games"
)

// ErrBadName is returned for counter names outside ^[a-z][a-z0-9_]{0,31}$.
var ErrBadName = errors.New("invalid counter name")

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// ValidName reports whether name can be used as a counter.
func ValidName(name string) bool { return nameRe.MatchString(name) }

// Counters is a named-counter service. Values never go below zero.
type Counters interface {
	Increment(ctx context.Context, name string) error
	Decrement(ctx context.Context, name string) error
	Read(ctx context.Context) (Snapshot, error)
	Close() error
}

// Snapshot is a point-in-time read of every counter.
type Snapshot struct {
	ActiveGames int64            `json:"activeGames"`
	TotalGames  int64            `json:"totalGames"`
	Counters    map[string]int64 `json:"counters,omitempty"`
}

// snapshot splits the well-known counters out of a raw name → value map.
func snapshot(values map[string]int64) Snapshot {
	s := Snapshot{
		ActiveGames: values[ActiveGames],
		TotalGames:  values[TotalGames],
	}
	for k, v := range values {
		if k == ActiveGames || k == TotalGames {
			continue
		}
		if s.Counters == nil {
			s.Counters = map[string]int64{}
		}
		s.Counters[k] = v
	}
	return s
}
