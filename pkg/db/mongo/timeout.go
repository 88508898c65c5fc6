package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTimeout bounds ctx unless it belongs to a session, whose deadline is
// owned by the enclosing transaction.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if mongo.SessionFromContext(ctx) != nil {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
