package bookkeeping

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ticketclose/internal/filter"
)

// SalesEntryLine is one booked line within a sales entry.
type SalesEntryLine struct {
	ID uuid.UUID `json:"ID"`
	// AmountFC is the line value excluding VAT.
	AmountFC      decimal.Decimal `json:"AmountFC"`
	VATCode       string          `json:"VATCode"`
	VATPercentage decimal.Decimal `json:"VATPercentage"`
	CostCenter    *string         `json:"CostCenter"`
	Description   string          `json:"Description"`
}

// SalesEntryByNumber resolves a sales-entry number to the entry's record ID.
func (c *Client) SalesEntryByNumber(ctx context.Context, number int) (uuid.UUID, error) {
	type response struct {
		EntryID uuid.UUID `json:"EntryID"`
	}

	url, err := c.divisionedURL(
		"/salesentry/SalesEntries?$select=EntryID&$filter=" +
			filter.New("EntryNumber", filter.Equals, filter.Int(number)).Finalize(),
	)
	if err != nil {
		return uuid.Nil, err
	}

	r, err := queryOne[response](ctx, c, url)
	if err != nil {
		return uuid.Nil, err
	}
	return r.EntryID, nil
}

// SalesEntryLines lists every line of the given sales entry.
func (c *Client) SalesEntryLines(ctx context.Context, entryID uuid.UUID) ([]SalesEntryLine, error) {
	url, err := c.divisionedURL(
		"/salesentry/SalesEntryLines?$select=ID,AmountFC,VATCode,VATPercentage,CostCenter,Description&$filter=" +
			filter.New("EntryID", filter.Equals, filter.Guid(entryID)).Finalize(),
	)
	if err != nil {
		return nil, err
	}
	return queryList[SalesEntryLine](ctx, c, url)
}
