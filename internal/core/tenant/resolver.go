package tenant

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrUnknownTenant is returned when no institute owns a phone number id
var ErrUnknownTenant = errors.New("unknown tenant")

// LookupFunc loads a tenant by its WhatsApp phone_number_id
type LookupFunc[T any] func(phoneNumberID string) (T, error)

type entry[T any] struct {
	value   T
	expires time.Time
}

// Resolver maps a WhatsApp Business phone_number_id to the tenant that owns
// it. Lookups are cached for ttl; credentials or status changes must call
// Invalidate.
type Resolver[T any] struct {
	lookup LookupFunc[T]
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]entry[T]
}

func NewResolver[T any](lookup LookupFunc[T], ttl time.Duration) *Resolver[T] {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Resolver[T]{
		lookup: lookup,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]entry[T]),
	}
}

// ResolveByPhoneNumberID returns the cached tenant or loads it
func (r *Resolver[T]) ResolveByPhoneNumberID(phoneNumberID string) (T, error) {
	key := strings.TrimSpace(phoneNumberID)
	if key == "" {
		var zero T
		return zero, ErrUnknownTenant
	}

	r.mu.RLock()
	e, ok := r.cache[key]
	r.mu.RUnlock()
	if ok && r.now().Before(e.expires) {
		return e.value, nil
	}

	value, err := r.lookup(key)
	if err != nil {
		return value, err
	}

	r.mu.Lock()
	r.cache[key] = entry[T]{value: value, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return value, nil
}

// Invalidate drops a cached phone_number_id. An empty key clears all.
func (r *Resolver[T]) Invalidate(phoneNumberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if phoneNumberID == "" {
		r.cache = make(map[string]entry[T])
		return
	}
	delete(r.cache, phoneNumberID)
}
