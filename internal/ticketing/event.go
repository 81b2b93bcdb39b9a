package ticketing

import (
	"context"
	"time"
)

// Event is a single event under an organizer.
type Event struct {
	// Name maps a language shortcode, e.g. `en`, to the event name in that
	// language.
	Name map[string]string `json:"name"`
	// Slug is the event's short form, unique within the organizer.
	Slug string `json:"slug"`
	Live bool   `json:"live"`

	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
}

// DisplayName returns the English event name, falling back to the slug.
func (e Event) DisplayName() string {
	if name, ok := e.Name["en"]; ok {
		return name
	}
	return e.Slug
}

// Events lists all events organized by the given organizer.
func (c *Client) Events(ctx context.Context, organizer string) ([]Event, error) {
	return ListPaginated[Event](ctx, c, c.URL("/api/v1/organizers/"+organizer+"/events"))
}
