package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddReplaceRemove(t *testing.T) {
	s := New()

	noop := func(context.Context) error { return nil }
	if err := s.Add("fees", "0 0 9 * * *", noop); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("fees", "0 0 10 * * *", noop); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("follow-ups", "0 */15 * * * *", noop); err != nil {
		t.Fatal(err)
	}

	if got := s.Jobs(); len(got) != 2 || got[0] != "fees" || got[1] != "follow-ups" {
		t.Errorf("Jobs() = %v", got)
	}

	s.Remove("fees")
	if _, ok := s.NextRun("fees"); ok {
		t.Error("removed job still scheduled")
	}
}

func TestInvalidSpec(t *testing.T) {
	s := New()
	if err := s.Add("bad", "every tuesday", func(context.Context) error { return nil }); err == nil {
		t.Error("invalid spec accepted")
	}
}

func TestJobRuns(t *testing.T) {
	s := New()
	var runs int32
	if err := s.Add("tick", "* * * * * *", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	s.Start()
	time.Sleep(2200 * time.Millisecond)
	s.Stop()

	if atomic.LoadInt32(&runs) == 0 {
		t.Error("job never ran")
	}
}
