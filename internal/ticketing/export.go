package ticketing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// pollInterval is the fixed wait between polls of a pending export job.
const pollInterval = time.Second

// Exporter identifiers known to the platform.
const (
	ExporterOrderData = "json"
	ExporterPDFReport = "pdfreport"
)

// Exporter describes an export job type available for an event.
type Exporter struct {
	Identifier      string          `json:"identifier"`
	VerboseName     string          `json:"verbose_name"`
	InputParameters []ExporterInput `json:"input_parameters"`
}

// ExporterInput is a single parameter accepted by an exporter.
type ExporterInput struct {
	Name     string   `json:"name"`
	Required bool     `json:"required"`
	Choices  []string `json:"choices"`
}

// Order is one order in an order-data export. Monetary amounts arrive as
// either JSON numbers or strings; decimal.Decimal accepts both.
type Order struct {
	Fees     []Fee           `json:"fees"`
	Datetime time.Time       `json:"datetime"`
	Total    decimal.Decimal `json:"total"`
	// Positions are the individual items sold within the order.
	Positions []Position `json:"positions"`
}

// Fee is a transaction fee charged on an order.
type Fee struct {
	Value decimal.Decimal `json:"value"`
}

// Position is one sold item within an order.
type Position struct {
	Item  int             `json:"item"`
	Price decimal.Decimal `json:"price"`
}

// SaleItem is a purchasable product definition within an event.
type SaleItem struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	TaxRate decimal.Decimal `json:"tax_rate"`
}

// OrderExport is the payload of a completed order-data export.
type OrderExport struct {
	Orders []Order    `json:"orders"`
	Items  []SaleItem `json:"items"`
}

// ExportFailedError is returned when the platform reports a failed export
// job, carrying the server-provided reason.
type ExportFailedError struct {
	Reason string
}

func (e *ExportFailedError) Error() string {
	return fmt.Sprintf("ticketing: export failed: %s", e.Reason)
}

// UnexpectedStatusError is returned when an export poll yields a status code
// the job protocol does not define.
type UnexpectedStatusError struct {
	StatusCode int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("ticketing: export failed for unknown reason: HTTP %d", e.StatusCode)
}

// Exporters lists the export job types available for an event.
func (c *Client) Exporters(ctx context.Context, organizer, event string) ([]Exporter, error) {
	url := c.URL(fmt.Sprintf("/api/v1/organizers/%s/events/%s/exporters", organizer, event))
	return ListPaginated[Exporter](ctx, c, url)
}

// ExportOrderData runs the raw order-data export for an event and returns
// all orders together with the event's sale-item catalog. Blocks until the
// export job completes.
func (c *Client) ExportOrderData(ctx context.Context, organizer, event string) (*OrderExport, error) {
	url, err := c.runExporter(ctx, organizer, event, ExporterOrderData, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.waitForExport(ctx, url)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Event OrderExport `json:"event"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("ticketing: decoding order export: %w", err)
	}
	return &payload.Event, nil
}

// ExportReportPDF runs the PDF report export for an event over [from, until]
// and returns the raw document bytes. Blocks until the export job completes.
func (c *Client) ExportReportPDF(ctx context.Context, organizer, event string, from, until time.Time) ([]byte, error) {
	params := map[string]string{
		"date_axis":  "last_payment_date",
		"date_from":  from.Format(time.DateOnly),
		"date_until": until.Format(time.DateOnly),
	}

	url, err := c.runExporter(ctx, organizer, event, ExporterPDFReport, params)
	if err != nil {
		return nil, err
	}
	return c.waitForExport(ctx, url)
}

// runExporter starts an export job and returns the download URL to poll.
func (c *Client) runExporter(ctx context.Context, organizer, event, identifier string, params any) (string, error) {
	slog.Debug("running exporter", "organizer", organizer, "event", event, "exporter", identifier)

	var resp struct {
		Download string `json:"download"`
	}
	url := c.URL(fmt.Sprintf("/api/v1/organizers/%s/events/%s/exporters/%s/run/", organizer, event, identifier))
	if err := c.postJSON(ctx, url, params, &resp); err != nil {
		return "", err
	}
	return resp.Download, nil
}

// waitForExport polls a download URL until the job reaches a terminal state.
// 409 means the job is still running: sleep and retry. 200 returns the body.
// 410 means the job failed; the decoded message is surfaced. Any other status
// is an UnexpectedStatusError.
//
// Polling has no retry ceiling: a job that never terminates blocks until the
// context is cancelled.
func (c *Client) waitForExport(ctx context.Context, url string) ([]byte, error) {
	slog.Debug("waiting for export to be ready", "url", url)
	start := time.Now()

	for {
		resp, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		switch resp.StatusCode {
		case http.StatusConflict:
			slog.Debug("waiting on export", "elapsed", time.Since(start))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pollInterval):
			}

		case http.StatusOK:
			slog.Debug("export complete", "took", time.Since(start))
			return body, nil

		case http.StatusGone:
			var gone struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(body, &gone); err != nil {
				return nil, fmt.Errorf("ticketing: decoding export failure: %w", err)
			}
			slog.Error("export failed", "message", gone.Message)
			return nil, &ExportFailedError{Reason: gone.Message}

		default:
			return nil, &UnexpectedStatusError{StatusCode: resp.StatusCode}
		}
	}
}
