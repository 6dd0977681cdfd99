package push

import (
	"context"
	"errors"

	"notif_organizer/internal/model"
)

// Poster delivers an outbound notification.
type Poster interface {
	Post(ctx context.Context, n model.Notification) error
}

// Fanout posts every notification to all of its posters. A failing poster
// does not stop delivery to the rest.
type Fanout []Poster

// Post returns the joined errors of all failed deliveries.
func (f Fanout) Post(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, p := range f {
		if err := p.Post(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
