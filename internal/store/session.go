package store

import "context"

const SessionEmailKey = "userEmail"

// SessionCache holds the session email outside the store's lifecycle. Get
// returns "" with a nil error when nothing is cached.
type SessionCache interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, email string) error
	Delete(ctx context.Context) error
}
