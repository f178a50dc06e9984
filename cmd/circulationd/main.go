package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/postgresengine"
	"github.com/campuslib/circulation-go/features/command/accrueoverduefines"
	"github.com/campuslib/circulation-go/features/command/expirereservations"
	"github.com/campuslib/circulation-go/shared/shell"
	"github.com/campuslib/circulation-go/shared/shell/config"
	"github.com/campuslib/circulation-go/shared/shell/observable"
)

const (
	defaultRulesPath    = "borrowing_rules.toml"
	defaultAccrualHour  = 2
	expirySweepInterval = time.Hour
	notifierQueueSize   = 256
	notifierWorkerCount = 2
)

func main() {
	rulesPath := flag.String("rules", defaultRulesPath, "path to the borrowing rules file")
	accrualHour := flag.String("accrual-hour", "", "local hour (0-23) to run the nightly fine accrual")
	migrate := flag.Bool("migrate", false, "apply the schema migrations on startup")
	flag.Parse()

	logger := slog.Default()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	pgxPool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolConfig())
	if err != nil {
		log.Fatalf("Failed to create pgx pool: %v", err)
	}
	defer pgxPool.Close()

	if err = pgxPool.Ping(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrate {
		applyMigrations(ctx, pgxPool)
	}

	store, err := postgresengine.NewCirculationStoreFromPGXPool(pgxPool, postgresengine.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create circulation store: %v", err)
	}

	rules, err := config.LoadBorrowingRules(*rulesPath)
	if err != nil {
		log.Fatalf("Failed to load borrowing rules: %v", err)
	}

	notifier := shell.NewAsyncNotifier(logGateway{logger: logger},
		shell.WithNotifierWorkers(notifierWorkerCount),
		shell.WithNotifierQueueSize(notifierQueueSize),
		shell.WithNotifierLogger(logger),
	)
	defer notifier.Shutdown()

	accrualHandler := observable.NewCommandWrapper[accrueoverduefines.Command](
		accrueoverduefines.NewCommandHandler(store, rules, notifier),
		observable.WithCommandLogging[accrueoverduefines.Command](logger),
	)
	expiryHandler := observable.NewCommandWrapper[expirereservations.Command](
		expirereservations.NewCommandHandler(store, notifier),
		observable.WithCommandLogging[expirereservations.Command](logger),
	)

	accrualRunner := shell.NewNightlyRunner("overdue-accrual", func(jobCtx context.Context, day time.Time) error {
		_, jobErr := accrualHandler.Handle(jobCtx, accrueoverduefines.BuildCommand(day))
		return jobErr
	}, parseAccrualHour(*accrualHour), logger)

	accrualRunner.Start(ctx)
	defer accrualRunner.Stop()

	go runExpirySweep(ctx, expiryHandler, logger)

	log.Printf("Circulation daemon started, accrual at %02d:00, expiry sweep every %s",
		parseAccrualHour(*accrualHour), expirySweepInterval)
	log.Printf("Press Ctrl+C to stop...")

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	cancel()

	// The deferred accrualRunner.Stop and notifier.Shutdown block until the
	// nightly loop has exited and the notification queue is drained.
}

// runExpirySweep expires overstayed pickup holds once immediately and then on
// a fixed interval until the context is canceled.
func runExpirySweep(ctx context.Context, handler shell.CommandHandler[expirereservations.Command], logger circulation.Logger) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	for {
		if _, err := handler.Handle(ctx, expirereservations.BuildCommand(time.Now())); err != nil {
			logger.Error("reservation expiry sweep failed", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) {
	for _, statement := range postgresengine.Migrations("") {
		if _, err := pool.Exec(ctx, statement); err != nil {
			log.Fatalf("Failed to apply migration: %v", err)
		}
	}
}

func parseAccrualHour(value string) int {
	if value == "" {
		return defaultAccrualHour
	}

	hour, err := strconv.Atoi(value)
	if err != nil || hour < 0 || hour > 23 {
		log.Fatalf("Invalid accrual hour %q, must be 0-23", value)
	}

	return hour
}

// logGateway is the notification backend of the standalone daemon: it writes
// every message to the log. Deployments swap in a mail or push gateway.
type logGateway struct {
	logger circulation.Logger
}

func (g logGateway) Deliver(request circulation.NotificationRequest) error {
	g.logger.Info("notification delivered",
		"borrower_id", request.BorrowerID,
		"type", string(request.Type),
		"priority", string(request.Priority),
		"title", request.Title,
		"message", request.Message,
	)

	return nil
}
