package infra

import (
	"context"
	"time"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the dependencies for infrastructure HTTP handlers.
type Handlers struct {
	Store     Pinger
	StartTime time.Time
}

// New creates a new instance of infrastructure handlers.
func New(store Pinger, startTime time.Time) *Handlers {
	return &Handlers{
		Store:     store,
		StartTime: startTime,
	}
}
