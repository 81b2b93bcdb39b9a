package ticketing

import "context"

// Organizer is a ticketing-platform organizer account.
type Organizer struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Organizers lists all organizers the credentials have access to.
func (c *Client) Organizers(ctx context.Context) ([]Organizer, error) {
	return ListPaginated[Organizer](ctx, c, c.URL("/api/v1/organizers"))
}
