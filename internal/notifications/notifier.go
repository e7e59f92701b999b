package notifications

import "context"

type SendWelcomeInput struct {
	UserID string
	Email  string
	Name   string
}

// Notifier delivers the post-registration welcome message. Delivery is best
// effort: registration never fails because the provider is down.
type Notifier interface {
	SendWelcome(ctx context.Context, input SendWelcomeInput) error
}
