// Command ticketclose reconciles a week of ticket sales into the bookkeeping
// platform's sales administration.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ticketclose/internal/auth"
	"ticketclose/internal/bookkeeping"
	"ticketclose/internal/config"
	"ticketclose/internal/logging"
	"ticketclose/internal/ticketing"
	"ticketclose/internal/weekly"
)

func main() {
	// A missing .env is fine; it only carries optional overrides. Load it
	// before flag registration so env-derived defaults see it.
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("TICKETCLOSE_CONFIG", "config.json"), "path to the JSON configuration file")
	onlyAuth := flag.Bool("only-auth", false, "only perform OAuth2 authorizations; useful when the port-443 callback server needs root but the rest of the run should not")
	dryRun := flag.Bool("dry-run", false, "only report what would be exported, without running export jobs")
	transactionID := flag.Int("transaction-id", 0, "entry number of the sales entry the computed lines belong to")
	periodsAgo := flag.Int("periods-ago", 1, "how many weeks back to close; 1 is the most recent finished week, 0 is not allowed")
	utcOffsetHours := flag.Int("utc-offset-hours", 0, "local offset from UTC in hours, e.g. 1 in the Dutch winter, 2 in the summer")
	flag.Parse()

	if err := run(*configPath, *onlyAuth, weekly.Params{
		TransactionID:  *transactionID,
		PeriodsAgo:     *periodsAgo,
		UTCOffsetHours: *utcOffsetHours,
		DryRun:         *dryRun,
	}); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, onlyAuth bool, params weekly.Params) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := auth.Ensure(ctx, cfg); err != nil {
		return fmt.Errorf("ensuring authorizations: %w", err)
	}
	// Store fresh token pairs even when a later step fails.
	if err := cfg.Write(configPath); err != nil {
		return err
	}
	if onlyAuth {
		slog.Info("authorizations done, exiting as requested")
		return nil
	}

	tickets, books, err := clients(ctx, cfg)
	if err != nil {
		return err
	}

	if err := weekly.Run(ctx, cfg, tickets, books, params); err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted")
		}
		return err
	}

	slog.Info("weekly close-out finished")
	return nil
}

// clients builds the authenticated platform clients and pins the bookkeeping
// client to the user's accounting division.
func clients(ctx context.Context, cfg *config.Config) (*ticketing.Client, *bookkeeping.Client, error) {
	ticketToken, ok := cfg.TicketingToken()
	if !ok {
		return nil, nil, errors.New("no ticketing credentials present after authorization")
	}
	bookToken, ok := cfg.BookkeepingToken()
	if !ok {
		return nil, nil, errors.New("no bookkeeping credentials present after authorization")
	}

	tickets := ticketing.New(cfg.Ticketing.URL, ticketToken)
	books := bookkeeping.New(bookToken)

	division, err := books.AccountingDivision(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("looking up accounting division: %w", err)
	}
	books.SetDivision(division)
	slog.Debug("using accounting division", "division", division)

	return tickets, books, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
