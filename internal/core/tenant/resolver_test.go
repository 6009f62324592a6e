package tenant

import (
	"errors"
	"testing"
	"time"
)

func TestResolverCachesAndInvalidates(t *testing.T) {
	calls := 0
	r := NewResolver(func(id string) (string, error) {
		calls++
		if id == "missing" {
			return "", ErrUnknownTenant
		}
		return "institute-" + id, nil
	}, time.Minute)

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		got, err := r.ResolveByPhoneNumberID("123")
		if err != nil || got != "institute-123" {
			t.Fatalf("resolve = %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("lookup calls = %d, want 1", calls)
	}

	r.Invalidate("123")
	r.ResolveByPhoneNumberID("123")
	if calls != 2 {
		t.Errorf("after invalidate calls = %d, want 2", calls)
	}

	now = now.Add(2 * time.Minute)
	r.ResolveByPhoneNumberID("123")
	if calls != 3 {
		t.Errorf("after expiry calls = %d, want 3", calls)
	}

	if _, err := r.ResolveByPhoneNumberID("missing"); !errors.Is(err, ErrUnknownTenant) {
		t.Errorf("missing err = %v", err)
	}
	if _, err := r.ResolveByPhoneNumberID(" "); !errors.Is(err, ErrUnknownTenant) {
		t.Errorf("blank err = %v", err)
	}
}
