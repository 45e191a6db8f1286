// Package locker hands out per-key locks, backed by redis (redsync) or held in process.
package locker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
)

var ErrLocked = errors.New("key is locked")

const (
	DEFAULT_EXPIRY      = 30 * time.Second
	DEFAULT_TRIES       = 64
	DEFAULT_RETRY_DELAY = 250 * time.Millisecond
)

type Redsync struct {
	rs *redsync.Redsync
}

func NewRedsync(rs *redsync.Redsync) *Redsync {
	return &Redsync{rs}
}

// Lock waits for the key for up to DEFAULT_TRIES * DEFAULT_RETRY_DELAY or until ctx is done.
func (l *Redsync) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(DEFAULT_EXPIRY),
		redsync.WithTries(DEFAULT_TRIES),
		redsync.WithRetryDelay(DEFAULT_RETRY_DELAY),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLocked, key, err)
	}

	return func() {
		// released even when ctx has already expired
		if _, err := mutex.UnlockContext(context.Background()); err != nil {
			log.Println("locker: unlock", key, err)
		}
	}, nil
}

type localKey struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process keyed mutex.
type Local struct {
	mu   sync.Mutex
	keys map[string]*localKey
}

func NewLocal() *Local {
	return &Local{keys: map[string]*localKey{}}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	k, ok := l.keys[key]
	if !ok {
		k = &localKey{ch: make(chan struct{}, 1)}
		l.keys[key] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, k)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-k.ch
			l.release(key, k)
		})
	}, nil
}

func (l *Local) release(key string, k *localKey) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k.refs--
	if k.refs == 0 {
		delete(l.keys, key)
	}
}
