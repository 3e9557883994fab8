// Package querycache keeps the results of catalog reads keyed by resource kind
// and parameters. Concurrent reads of one key share a single load.
package querycache

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"catalogadmin/pkg/metrics"
)

var (
	ErrClosed       = errors.New("query cache is closed")
	ErrTypeMismatch = errors.New("cached value has unexpected type")
)

// Loader produces the value for a key. It runs detached from the caller's
// cancellation because its result may be shared by several readers.
type Loader func(ctx context.Context) (any, error)

// Transform maps a cached value to its replacement. Returning false leaves the entry as is.
// Transforms run under the store lock and must not call back into the store.
type Transform func(value any) (any, bool)

type entry struct {
	value any
	stale bool
}

type flight struct {
	superseded bool
}

type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	flights map[Key]*flight
	group   singleflight.Group
	closed  bool
	log     logrus.FieldLogger
}

func New(logger logrus.FieldLogger) *Store {
	return &Store{
		entries: make(map[Key]*entry),
		flights: make(map[Key]*flight),
		log:     logger.WithField("component", "querycache"),
	}
}

// Read returns the cached value for key, loading it when absent or stale.
func (s *Store) Read(ctx context.Context, key Key, load Loader) (any, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if e, ok := s.entries[key]; ok && !e.stale {
		value := e.value
		s.mu.Unlock()
		metrics.RecordCacheLookup(key.Kind(), "hit")
		return value, nil
	}
	s.mu.Unlock()

	ch := s.group.DoChan(string(key), func() (any, error) {
		return s.load(ctx, key, load)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.RecordCacheLookup(key.Kind(), "shared")
		}
		return res.Val, res.Err
	}
}

func (s *Store) load(ctx context.Context, key Key, load Loader) (any, error) {
	f := &flight{}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	// A flight that finished between the caller's lookup and this one already filled the entry.
	if e, ok := s.entries[key]; ok && !e.stale {
		value := e.value
		s.mu.Unlock()
		return value, nil
	}
	s.flights[key] = f
	s.mu.Unlock()

	metrics.RecordCacheLookup(key.Kind(), "miss")
	value, err := load(context.WithoutCancel(ctx))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flights[key] == f {
		delete(s.flights, key)
	}
	if err != nil {
		s.log.WithError(err).WithField("key", key.String()).Debug("load failed")
		return nil, err
	}
	if f.superseded || s.closed {
		s.log.WithField("key", key.String()).Debug("load superseded, result not cached")
		return value, nil
	}
	s.entries[key] = &entry{value: value}
	return value, nil
}

// PatchAll applies transform to every cached value under prefix and returns how many
// entries changed. Keys without a value are not visited.
func (s *Store) PatchAll(prefix Key, transform Transform) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	patched := 0
	for key, e := range s.entries {
		if !key.HasPrefix(prefix) {
			continue
		}
		next, ok := transform(e.value)
		if !ok {
			continue
		}
		e.value = next
		patched++
	}
	s.supersedeFlights(prefix)

	s.log.WithFields(logrus.Fields{"prefix": prefix.String(), "patched": patched}).Debug("patched entries")
	return patched
}

// Invalidate marks every entry under prefix stale so the next Read reloads it.
func (s *Store) Invalidate(prefix Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	invalidated := 0
	for key, e := range s.entries {
		if !key.HasPrefix(prefix) || e.stale {
			continue
		}
		e.stale = true
		invalidated++
	}
	s.supersedeFlights(prefix)

	s.log.WithFields(logrus.Fields{"prefix": prefix.String(), "invalidated": invalidated}).Debug("invalidated entries")
	return invalidated
}

// supersedeFlights keeps in-flight loads that started before a write from landing
// in the cache. New reads of those keys start a fresh load.
func (s *Store) supersedeFlights(prefix Key) {
	for key, f := range s.flights {
		if !key.HasPrefix(prefix) {
			continue
		}
		f.superseded = true
		delete(s.flights, key)
		s.group.Forget(string(key))
	}
}

// Peek reports the cached value for key without loading it.
func (s *Store) Peek(key Key) (value any, stale bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, false
	}
	return e.value, e.stale, true
}

// Keys lists the keys under prefix that hold a value.
func (s *Store) Keys(prefix Key) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []Key
	for key := range s.entries {
		if key.HasPrefix(prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Close drops every entry. Reads after Close fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.entries = make(map[Key]*entry)
	s.supersedeFlights("")
	return nil
}

// ReadAs is Read for a loader of a known type.
func ReadAs[T any](ctx context.Context, s *Store, key Key, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	value, err := s.Read(ctx, key, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, errors.Wrapf(ErrTypeMismatch, "key %s holds %T", key.String(), value)
	}
	return typed, nil
}

// PatchAs patches the entries under prefix that hold a T and skips the rest.
func PatchAs[T any](s *Store, prefix Key, transform func(T) T) int {
	return s.PatchAll(prefix, func(value any) (any, bool) {
		typed, ok := value.(T)
		if !ok {
			return nil, false
		}
		return transform(typed), true
	})
}
