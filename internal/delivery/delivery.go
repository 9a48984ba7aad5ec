// Package delivery defines the processes that expose the loyalty engine to clients.
package delivery

import "context"

// Delivery is a long-running server started by the application.
type Delivery interface {
	// Serve blocks until the server stops. A graceful shutdown is not an error.
	Serve(ctx context.Context) error
}
