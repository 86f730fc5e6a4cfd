// Package lock serialises read-modify-write cycles on the sitemap.
package lock

import (
	"context"
	"sync"
)

// Locker grants exclusive access to the sitemap. The returned release function
// must be called exactly once.
type Locker interface {
	Lock(ctx context.Context) (release func(), err error)
}

// Local is an in-process Locker.
type Local struct {
	sem chan struct{}
}

func NewLocal() *Local {
	return &Local{sem: make(chan struct{}, 1)}
}

func (l *Local) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-l.sem })
	}, nil
}
