package ports

import (
	"context"

	"agromind-server/internal/model"
)

// Notifier : outbound auth events, delivery is best effort
type Notifier interface {
	Publish(ctx context.Context, event model.AuthEvent) error
}
