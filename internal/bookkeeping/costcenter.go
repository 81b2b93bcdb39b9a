package bookkeeping

import (
	"context"

	"github.com/google/uuid"

	"ticketclose/internal/filter"
)

// CostCenterByCode resolves a cost-center code, e.g. TRX, to its record ID.
func (c *Client) CostCenterByCode(ctx context.Context, code string) (uuid.UUID, error) {
	type response struct {
		ID uuid.UUID `json:"ID"`
	}

	url, err := c.divisionedURL(
		"/hrm/Costcenters?$select=ID&$filter=" +
			filter.New("Code", filter.Equals, filter.String(code)).Finalize(),
	)
	if err != nil {
		return uuid.Nil, err
	}

	r, err := queryOne[response](ctx, c, url)
	if err != nil {
		return uuid.Nil, err
	}
	return r.ID, nil
}
