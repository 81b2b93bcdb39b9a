package weekly

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ticketclose/internal/ticketing"
)

// EventSummary holds everything aggregated for one event during a run. Built
// once per event and immutable afterwards.
type EventSummary struct {
	// EventName is the English event name, or the slug when no English
	// name exists.
	EventName string
	Totals    Totals
	// PDF is the rendered report covering the export period.
	PDF []byte
	// SaleItems is the event's product catalog.
	SaleItems []ticketing.SaleItem
	// ItemTotals maps product display names to their summed order value.
	ItemTotals map[string]decimal.Decimal
}

// EventSummaries exports and aggregates every live event of every accessible
// organizer over [periodStart, periodEnd]. Organizers fan out concurrently,
// events fan out concurrently within each organizer, and the two exports of
// an event run concurrently. Any failure aborts the whole fan-out.
//
// The result maps event slugs to summaries. Slugs are assumed globally
// unique; a collision across organizers silently overwrites.
func EventSummaries(ctx context.Context, client *ticketing.Client, periodStart, periodEnd time.Time) (map[string]EventSummary, error) {
	organizers, err := client.Organizers(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make(map[string]EventSummary)

	g, ctx := errgroup.WithContext(ctx)
	for _, organizer := range organizers {
		g.Go(func() error {
			events, err := client.Events(ctx, organizer.Slug)
			if err != nil {
				return err
			}

			eg, ctx := errgroup.WithContext(ctx)
			for _, event := range events {
				// Closed events have nothing to book.
				if !event.Live {
					continue
				}
				eg.Go(func() error {
					summary, err := summarizeEvent(ctx, client, organizer.Slug, event, periodStart, periodEnd)
					if err != nil {
						return err
					}
					mu.Lock()
					results[event.Slug] = *summary
					mu.Unlock()
					return nil
				})
			}
			return eg.Wait()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// summarizeEvent runs the order-data and PDF exports for one event and
// aggregates the order data over the export period.
func summarizeEvent(ctx context.Context, client *ticketing.Client, organizer string, event ticketing.Event, periodStart, periodEnd time.Time) (*EventSummary, error) {
	slog.Debug("summarizing event", "organizer", organizer, "event", event.Slug)

	var (
		export *ticketing.OrderExport
		pdf    []byte
	)

	// The two exports are independent reads.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		export, err = client.ExportOrderData(ctx, organizer, event.Slug)
		return err
	})
	g.Go(func() error {
		var err error
		pdf, err = client.ExportReportPDF(ctx, organizer, event.Slug, periodStart, periodEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	orders := FilterPeriod(export.Orders, periodStart, periodEnd)
	itemTotals, err := ResolveItemTotals(TotalsPerSaleItem(orders), export.Items)
	if err != nil {
		return nil, err
	}

	return &EventSummary{
		EventName:  event.DisplayName(),
		Totals:     CalcTotals(orders),
		PDF:        pdf,
		SaleItems:  export.Items,
		ItemTotals: itemTotals,
	}, nil
}
