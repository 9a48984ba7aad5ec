package service

import "context"

// Locker provides mutual exclusion keyed by an arbitrary string, e.g. a profile ID.
type Locker interface {
	// Acquire blocks until the key is held or ctx is done. The returned release must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
