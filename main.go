// apps/go-server/main.go
//
// Entrypoint for the Crossduel Go server.
// Responsibilities:
//   - Load `.env`, parse flags/env, configure zerolog.
//   - Load the dictionary and open the counter store (Redis when configured, else SQLite).
//   - Wire the clue cache, session registry, matchmaking queue and HTTP server.
//   - Run until SIGINT/SIGTERM, then shut down gracefully.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/crossduel/apps/go-server/internal/clues"
	"github.com/robalobadob/crossduel/apps/go-server/internal/game"
	"github.com/robalobadob/crossduel/apps/go-server/internal/grid"
	"github.com/robalobadob/crossduel/apps/go-server/internal/httpserver"
	"github.com/robalobadob/crossduel/apps/go-server/internal/match"
	"github.com/robalobadob/crossduel/apps/go-server/internal/stats"
	"github.com/robalobadob/crossduel/apps/go-server/internal/store"
	"github.com/robalobadob/crossduel/apps/go-server/internal/ticket"
	"github.com/robalobadob/crossduel/apps/go-server/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := newCmd(cfg, serve).Execute(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg *Config) {
	if lvl, err := zerolog.ParseLevel(cfg.logLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.prettyLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func openCounters(ctx context.Context, cfg *Config) (stats.Counters, error) {
	if cfg.redisURL != "" {
		log.Info().Msg("counters: redis")
		return stats.OpenRedis(ctx, cfg.redisURL)
	}
	log.Info().Str("path", cfg.dbPath).Msg("counters: sqlite")
	return stats.OpenSQLite(cfg.dbPath)
}

func clueProvider(ctx context.Context, cfg *Config) clues.Provider {
	if cfg.gcpProject == "" {
		return clues.Dictionary{Category: words.Category}
	}
	g, err := clues.NewGemini(ctx, cfg.gcpProject, cfg.gcpRegion)
	if err != nil {
		log.Warn().Err(err).Msg("gemini unavailable, using dictionary clues")
		return clues.Dictionary{Category: words.Category}
	}
	log.Info().Str("project", cfg.gcpProject).Msg("gemini clues enabled")
	return g
}

func serve(cmd *cobra.Command, cfg *Config) error {
	setupLogging(cfg)
	if cfg.jwtSecret == devSecret {
		log.Warn().Msg("development mode: tickets are signed with the built-in secret")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.wordsFile != "" {
		_ = os.Setenv("WORDS_FILE", cfg.wordsFile)
	}
	if err := words.Init(); err != nil {
		return err
	}
	log.Info().Int("words", words.Stats()).Msg("dictionary loaded")

	counters, err := openCounters(ctx, cfg)
	if err != nil {
		return err
	}
	defer counters.Close()

	cache := clues.NewCache(clueProvider(ctx, cfg), words.Category, 5*time.Second)
	layout := grid.NewLayout(cfg.gridAttempts)

	var queue *match.Queue
	sessions := store.NewRegistry(store.NewMemoryStore(), func(id string, paired bool) *game.Session {
		return game.New(id, game.Config{
			SubmitTimeout: cfg.submitTimeout,
			SolveTimeout:  cfg.solveTimeout,
			RevealPenalty: cfg.revealPenalty,
			TieEpsilon:    cfg.tieEpsilon,
			Generator:     layout,
			IsValidWord:   words.IsValid,
			Clue:          cache.Lookup,
			WordsAccepted: cache.Warm,
			Finished: func(sessionID string, r game.Result) {
				log.Info().Str("session_id", sessionID).Str("reason", string(r.Reason)).Str("winner", r.WinnerID).Msg("match finished")
				if !paired {
					return
				}
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := counters.Decrement(ctx, stats.ActiveGames); err != nil {
						log.Warn().Err(err).Str("session_id", sessionID).Msg("decrement active games")
					}
					queue.Refresh()
				}()
			},
		})
	}, cfg.joinTimeout)
	go sessions.RunReaper(ctx)

	tickets := ticket.NewIssuer(cfg.jwtSecret, cfg.ticketTTL)
	queue = match.New(match.Config{
		Opener:   sessions,
		Tickets:  tickets,
		Counters: counters,
	})
	go queue.Run(ctx)

	srv := httpserver.New(httpserver.Deps{
		Queue:        queue,
		Sessions:     sessions,
		Counters:     counters,
		Tickets:      tickets,
		ClientOrigin: cfg.clientOrigin,
	})
	log.Info().Str("addr", cfg.addr()).Msg("starting go-server")
	return srv.Start(ctx, cfg.addr())
}
