package weekly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ticketclose/internal/bookkeeping"
	"ticketclose/internal/config"
	"ticketclose/internal/ticketing"
)

// Params are the user-supplied knobs of a weekly run.
type Params struct {
	// TransactionID is the entry number of the sales entry the computed
	// lines belong to.
	TransactionID int
	// PeriodsAgo selects which week to close: 1 is the most recent
	// finished week. 0 is rejected, since that week has not finished yet.
	PeriodsAgo int
	// UTCOffsetHours is the local offset from UTC in hours, e.g. +1 in the
	// Dutch winter, +2 in the summer.
	UTCOffsetHours int
	// DryRun reports what would be exported without running any export
	// jobs.
	DryRun bool
}

// Run executes the weekly close-out.
func Run(ctx context.Context, cfg *config.Config, tickets *ticketing.Client, books *bookkeeping.Client, params Params) error {
	if params.PeriodsAgo == 0 {
		return errors.New("weekly: periods-ago may not be 0: the week starting on the most recent Monday has not finished yet")
	}

	// Fetch the sales entry the lines will be added to before running any
	// exports: if this fails there is no point in the expensive export
	// jobs.
	slog.Info("fetching sales entry information", "entry_number", params.TransactionID)
	entryID, err := books.SalesEntryByNumber(ctx, params.TransactionID)
	if err != nil {
		return fmt.Errorf("weekly: looking up sales entry %d: %w", params.TransactionID, err)
	}
	entryLines, err := books.SalesEntryLines(ctx, entryID)
	if err != nil {
		return fmt.Errorf("weekly: listing lines of sales entry %d: %w", params.TransactionID, err)
	}
	for _, line := range entryLines {
		slog.Debug("existing sales entry line",
			"description", line.Description, "amount", line.AmountFC, "vat_code", line.VATCode)
	}

	loc := time.FixedZone(fmt.Sprintf("UTC%+d", params.UTCOffsetHours), params.UTCOffsetHours*3600)
	monday := LastMonday(loc).AddDate(0, 0, -7*params.PeriodsAgo)
	periodStart, periodEnd, err := ExportPeriod(monday)
	if err != nil {
		return err
	}
	slog.Info("export period computed", "start", periodStart, "end", periodEnd)

	if params.DryRun {
		return dryRun(ctx, tickets, periodStart, periodEnd)
	}

	slog.Info("running ticketing exports")
	summaries, err := EventSummaries(ctx, tickets, periodStart, periodEnd)
	if err != nil {
		return err
	}
	slog.Info("ticketing exports complete", "events", len(summaries))

	for slug, summary := range summaries {
		slog.Info("event summarized",
			"event", slug, "net_value", summary.Totals.Value, "fees", summary.Totals.Fees)

		eventCfg, ok := cfg.Ticketing.Events[slug]
		if !ok {
			return fmt.Errorf("weekly: no configuration present for event %s", slug)
		}

		lines, err := LedgerLines(ctx, books, cfg.Bookkeeping, slug, eventCfg, summary)
		if err != nil {
			return err
		}
		for _, line := range lines {
			slog.Info("computed ledger line",
				"event", slug,
				"description", line.Description,
				"amount", line.Amount,
				"gl_account", line.GLAccount,
				"cost_center", line.CostCenter,
				"vat_code", line.VATCode)
		}

		// TODO: book the computed lines onto sales entry entryID via the
		// SalesEntryLines write endpoint.
		_ = entryID
	}

	return nil
}

// dryRun lists the live events and checks that the exporters a real run
// would use are available, without starting any export jobs.
func dryRun(ctx context.Context, tickets *ticketing.Client, periodStart, periodEnd time.Time) error {
	organizers, err := tickets.Organizers(ctx)
	if err != nil {
		return err
	}

	for _, organizer := range organizers {
		events, err := tickets.Events(ctx, organizer.Slug)
		if err != nil {
			return err
		}
		for _, event := range events {
			if !event.Live {
				continue
			}

			exporters, err := tickets.Exporters(ctx, organizer.Slug, event.Slug)
			if err != nil {
				return err
			}
			available := make(map[string]bool, len(exporters))
			for _, exporter := range exporters {
				available[exporter.Identifier] = true
			}

			slog.Info("would export event",
				"organizer", organizer.Slug,
				"event", event.Slug,
				"period_start", periodStart,
				"period_end", periodEnd,
				"order_data_exporter", available[ticketing.ExporterOrderData],
				"pdf_exporter", available[ticketing.ExporterPDFReport])
		}
	}
	return nil
}
