package bookkeeping

import (
	"context"

	"github.com/google/uuid"

	"ticketclose/internal/filter"
)

// GLAccountByCode resolves a general-ledger account code, e.g. 8000, to its
// record ID.
func (c *Client) GLAccountByCode(ctx context.Context, code string) (uuid.UUID, error) {
	type response struct {
		ID uuid.UUID `json:"ID"`
	}

	url, err := c.divisionedURL(
		"/financial/GLAccounts?$select=ID&$filter=" +
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
