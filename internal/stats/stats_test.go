package stats

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// exercise runs the shared contract against any backend.
func exercise(t *testing.T, c Counters) {
	t.Helper()
	ctx := context.Background()

	start, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := c.Increment(ctx, TotalGames); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Increment(ctx, ActiveGames); err != nil {
		t.Fatal(err)
	}
	// active never drops below zero
	for i := 0; i < int(start.ActiveGames)+3; i++ {
		if err := c.Decrement(ctx, ActiveGames); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Increment(ctx, "weekly_wins"); err != nil {
		t.Fatal(err)
	}
	if err := c.Increment(ctx, "Bad-Name"); !errors.Is(err, ErrBadName) {
		t.Fatalf("bad name: %v", err)
	}
	if err := c.Decrement(ctx, ""); !errors.Is(err, ErrBadName) {
		t.Fatalf("empty name: %v", err)
	}

	got, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalGames != start.TotalGames+3 {
		t.Fatalf("total = %d, want %d", got.TotalGames, start.TotalGames+3)
	}
	if got.ActiveGames != 0 {
		t.Fatalf("active = %d", got.ActiveGames)
	}
	if got.Counters["weekly_wins"] != start.Counters["weekly_wins"]+1 {
		t.Fatalf("weekly_wins = %d", got.Counters["weekly_wins"])
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "counters.db")
	c, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, c)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	// reopening keeps values and does not re-run migrations
	c, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	got, err := c.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalGames != 3 {
		t.Fatalf("total after reopen = %d", got.TotalGames)
	}
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("migrations recorded = %d, %v", n, err)
	}
}

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	c, err := OpenRedis(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	c.key = "crossduel:test:" + t.Name()
	defer func() {
		c.rdb.Del(context.Background(), c.key)
		c.Close()
	}()
	exercise(t, c)
}

func TestValidName(t *testing.T) {
	for name, want := range map[string]bool{
		"active_games":                      true,
		"a":                                 true,
		"leaderboard2":                      true,
		"":                                  false,
		"2fast":                             false,
		"Upper":                             false,
		"has space":                         false,
		"abcdefghijklmnopqrstuvwxyz0123456": false,
	} {
		if got := ValidName(name); got != want {
			t.Errorf("%q: got %v", name, got)
		}
	}
}
