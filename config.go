// apps/go-server/config.go
//
// Command line and environment configuration.
//
// Every flag can also be set from the environment: `--submit-timeout` reads
// SUBMIT_TIMEOUT, `--jwt-secret` reads JWT_SECRET and so on. A `.env` file in
// the working directory is loaded first (development convenience).

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/robalobadob/crossduel/apps/go-server/internal/game"
	"github.com/robalobadob/crossduel/apps/go-server/internal/grid"
	"github.com/robalobadob/crossduel/apps/go-server/internal/ticket"
)

const devSecret = "dev-secret-change-me"

// Config is the resolved server configuration.
type Config struct {
	bind         string
	port         int
	logLevel     string
	prettyLogs   bool
	clientOrigin string
	dev          bool

	dbPath    string
	redisURL  string
	jwtSecret string
	ticketTTL time.Duration
	wordsFile string

	submitTimeout time.Duration
	solveTimeout  time.Duration
	revealPenalty time.Duration
	tieEpsilon    time.Duration
	gridAttempts  int
	joinTimeout   time.Duration

	gcpProject string
	gcpRegion  string
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	for name, d := range map[string]time.Duration{
		"submit-timeout": c.submitTimeout,
		"solve-timeout":  c.solveTimeout,
		"tie-epsilon":    c.tieEpsilon,
		"join-timeout":   c.joinTimeout,
		"ticket-ttl":     c.ticketTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("--%s must be positive, got %s", name, d)
		}
	}
	if c.revealPenalty < 0 {
		return errors.New("--reveal-penalty must not be negative")
	}
	if c.gridAttempts < 1 {
		return fmt.Errorf("--grid-attempts must be at least 1, got %d", c.gridAttempts)
	}
	if c.jwtSecret == "" {
		return errors.New("--jwt-secret must not be empty")
	}
	if c.jwtSecret == devSecret && !c.dev {
		return errors.New("--jwt-secret must be set (the built-in secret is only allowed with --dev)")
	}
	return nil
}

func (c *Config) addr() string { return fmt.Sprintf("%s:%d", c.bind, c.port) }

func newCmd(cfg *Config, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "crossduel-server",
		Short: "Realtime two-player crossword duel server.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 5175, "port to listen on (env: PORT)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "zerolog level (env: LOG_LEVEL)")
	fs.BoolVar(&cfg.prettyLogs, "pretty-logs", false, "human-readable console logs (env: PRETTY_LOGS)")
	fs.BoolVar(&cfg.dev, "dev", false, "development mode: allows the built-in ticket secret (env: DEV)")
	fs.StringVar(&cfg.clientOrigin, "client-origin", "http://localhost:5173", "allowed browser origin, or * (env: CLIENT_ORIGIN)")
	fs.StringVar(&cfg.dbPath, "db-path", "data/crossduel.db", "sqlite counters database (env: DB_PATH)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "use redis for counters instead of sqlite (env: REDIS_URL)")
	fs.StringVar(&cfg.jwtSecret, "jwt-secret", devSecret, "session ticket signing secret, required unless --dev (env: JWT_SECRET)")
	fs.DurationVar(&cfg.ticketTTL, "ticket-ttl", ticket.DefaultTTL, "session ticket lifetime (env: TICKET_TTL)")
	fs.StringVar(&cfg.wordsFile, "words-file", "", "dictionary file, one \"WORD category\" per line (env: WORDS_FILE)")
	fs.DurationVar(&cfg.submitTimeout, "submit-timeout", game.DefaultSubmitTimeout, "word submission phase length (env: SUBMIT_TIMEOUT)")
	fs.DurationVar(&cfg.solveTimeout, "solve-timeout", game.DefaultSolveTimeout, "solving phase length (env: SOLVE_TIMEOUT)")
	fs.DurationVar(&cfg.revealPenalty, "reveal-penalty", game.DefaultRevealPenalty, "time added per revealed letter (env: REVEAL_PENALTY)")
	fs.DurationVar(&cfg.tieEpsilon, "tie-epsilon", game.DefaultTieEpsilon, "completion times closer than this tie (env: TIE_EPSILON)")
	fs.IntVar(&cfg.gridAttempts, "grid-attempts", grid.DefaultAttempts, "layout orders tried per grid (env: GRID_ATTEMPTS)")
	fs.DurationVar(&cfg.joinTimeout, "join-timeout", time.Minute, "time before an unstarted or finished session is reaped (env: JOIN_TIMEOUT)")
	fs.StringVar(&cfg.gcpProject, "gcp-project-id", "", "enable Gemini clues in this GCP project (env: GCP_PROJECT_ID)")
	fs.StringVar(&cfg.gcpRegion, "gcp-region", "", "Vertex AI region (env: GCP_REGION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
