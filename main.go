package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"

	"ski-forecast-mailer/config"
	"ski-forecast-mailer/mailer"
	"ski-forecast-mailer/recipients"
	"ski-forecast-mailer/services"
	"ski-forecast-mailer/storage"
	"ski-forecast-mailer/utils"
	"ski-forecast-mailer/weather/unlocked"
)

func main() {
	os.Exit(run(time.Now()))
}

func run(now time.Time) int {
	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration: %v", err)
		return 1
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid SCHEDULE_TIMEZONE: %v", err)
		return 1
	}
	gate := services.NewGate(cfg.ScheduledDays, loc)
	if !gate.ShouldRun(now) {
		logger.Info("%s is not a reporting day (scheduled: %s), nothing to do", gate.Weekday(now), gate.Days())
		return 0
	}

	if cfg.AppInsightsKey != "" {
		telemetryConfig := appinsights.NewTelemetryConfiguration(cfg.AppInsightsKey)
		telemetryConfig.MaxBatchInterval = 2 * time.Second
		client := appinsights.NewTelemetryClientFromConfig(telemetryConfig)
		client.Context().Tags.Cloud().SetRole("ski-forecast-mailer")
		logger.AttachTelemetry(client)
		defer logger.Flush(5 * time.Second)
	}

	runID := uuid.New().String()
	logger.Info("=== Ski forecast mailer starting (run %s) ===", runID)
	logger.Info("Config: resort %s | report time %s | policy %s | recipients from %s | dry run %t",
		cfg.ResortID, cfg.DesignatedTime, cfg.DispatchPolicy, cfg.RecipientSource, cfg.DryRun)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	directory, closeDirectory, err := openDirectory(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to set up recipient directory: %v", err)
		return 1
	}
	defer closeDirectory()

	transport, closeTransport, err := openTransport(cfg, runID)
	if err != nil {
		logger.Error("Failed to set up mail transport: %v", err)
		return 1
	}
	defer closeTransport()

	renderer := services.NewRenderer(cfg.DateLayout)
	pipeline := &services.Pipeline{
		RunID:       runID,
		ResortID:    cfg.ResortID,
		Gate:        gate,
		Source:      unlocked.New(cfg, logger),
		Transformer: services.NewTransformer(cfg.DesignatedTime, logger),
		Directory:   directory,
		Notifier: services.NewNotifier(transport, renderer, cfg.DispatchPolicy,
			cfg.Sender(), cfg.MailConcurrency, logger),
		Logger: logger,
	}

	result, err := pipeline.Run(ctx, now)
	if err != nil {
		logger.Error("Run %s failed: %v", runID, err)
		return 1
	}
	if result.Skipped {
		return 0
	}

	if result.Report != nil && len(result.Report.Failures) > 0 {
		logger.Warn("Run %s finished with %d failed send(s) of %d", runID,
			len(result.Report.Failures), result.Report.Attempted)
	}
	logger.Info("Done. Run %s: %d record(s), %d recipient(s)", runID,
		len(result.Summary.Records), result.Recipients)
	return 0
}

func openDirectory(ctx context.Context, cfg *config.Config, logger *utils.Logger) (services.Directory, func(), error) {
	noop := func() {}
	switch cfg.RecipientSource {
	case config.SourceXLSX:
		return recipients.NewXLSXDirectory(cfg.XLSXPath, cfg.SpreadsheetRange, cfg.HasHeaderRow, logger), noop, nil
	case config.SourcePostgres, config.SourceSQLite:
		store, err := storage.NewContactStore(string(cfg.RecipientSource), cfg.ContactsDSN, cfg.ContactsQuery, cfg.HTTPTimeout)
		if err != nil {
			return nil, noop, err
		}
		if len(cfg.ContactsSeed) > 0 {
			if err := seedContacts(ctx, store, cfg.ContactsSeed); err != nil {
				_ = store.Close()
				return nil, noop, err
			}
			logger.Info("Seeded %d contact(s) into %s directory", len(cfg.ContactsSeed), cfg.RecipientSource)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		dir, err := recipients.NewSheetsDirectory(ctx, cfg, logger)
		if err != nil {
			return nil, noop, err
		}
		return dir, noop, nil
	}
}

// seedContacts creates the default contacts table and adds emails to it.
func seedContacts(ctx context.Context, store *storage.ContactStore, emails []string) error {
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return store.AddContacts(ctx, emails)
}

func openTransport(cfg *config.Config, runID string) (services.Transport, func(), error) {
	if cfg.DryRun {
		outbox := storage.NewOutbox(cfg.OutboxPath, runID)
		return outbox, func() { _ = outbox.Close() }, nil
	}
	smtp, err := mailer.NewSMTPTransport(cfg)
	if err != nil {
		return nil, func() {}, err
	}
	return smtp, func() {}, nil
}
