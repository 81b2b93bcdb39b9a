package bookkeeping

import "context"

// AccountingDivision resolves the accounting division of the current user.
// This is the only endpoint that does not require a division itself.
func (c *Client) AccountingDivision(ctx context.Context) (int, error) {
	type response struct {
		AccountingDivision int `json:"AccountingDivision"`
	}

	r, err := queryOne[response](ctx, c, c.url("/api/v1/current/Me?$select=AccountingDivision"))
	if err != nil {
		return 0, err
	}
	return r.AccountingDivision, nil
}
