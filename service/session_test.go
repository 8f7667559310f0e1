package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSessions_CreateAndGet(t *testing.T) {
	t.Parallel()

	created := 0
	s := NewSessions(time.Hour, func() *Dashboard {
		created++
		return NewDashboard(&mockBackend{}, "MSCU1234567")
	})

	id, dash := s.Create()
	if id == "" || dash == nil {
		t.Fatalf("Create returned id=%q dash=%v", id, dash)
	}

	got, ok := s.Get(id)
	if !ok || got != dash {
		t.Fatalf("Get(%q)=%v,%v", id, got, ok)
	}
	if _, ok := s.Get("unknown"); ok {
		t.Error("unknown id found")
	}
	if _, ok := s.Get(""); ok {
		t.Error("empty id found")
	}

	id2, dash2 := s.Create()
	if id2 == id || dash2 == dash {
		t.Error("sessions share id or dashboard")
	}
	if created != 2 || s.Len() != 2 {
		t.Errorf("created=%d len=%d", created, s.Len())
	}
}

func TestSessions_Sweep(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions(30*time.Minute, func() *Dashboard {
		return NewDashboard(&mockBackend{}, "")
	})
	s.now = func() time.Time { return now }

	idle, _ := s.Create()
	active, _ := s.Create()

	now = now.Add(20 * time.Minute)
	s.Get(active)

	now = now.Add(20 * time.Minute)
	if n := s.Sweep(); n != 1 {
		t.Fatalf("swept %d sessions, want 1", n)
	}
	if _, ok := s.Get(idle); ok {
		t.Error("idle session survived the sweep")
	}
	if _, ok := s.Get(active); !ok {
		t.Error("active session was swept")
	}
}

func TestSessions_WaitDrainsNotifications(t *testing.T) {
	t.Parallel()

	var delivered atomic.Int32
	slow := CycleListenerFunc(func(context.Context, Cycle) {
		time.Sleep(50 * time.Millisecond)
		delivered.Add(1)
	})
	s := NewSessions(time.Hour, func() *Dashboard {
		return NewDashboard(&mockBackend{}, "MSCU1234567", slow)
	})

	for range 3 {
		_, d := s.Create()
		d.FetchTrackingCycle(context.Background())
	}
	s.Wait()

	if n := delivered.Load(); n != 3 {
		t.Errorf("delivered=%d after Wait, want 3", n)
	}
}
