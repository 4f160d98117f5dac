package monitor

import (
	"errors"
	"testing"
	"time"
)

func newTestMonitor() (*Monitor, *time.Time) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	m := New(Options{
		MaxSilence:    60 * time.Second,
		RestartLimit:  5,
		RestartWindow: time.Hour,
		Now:           func() time.Time { return now },
	})
	return m, &now
}

func TestActiveTracksSilenceThreshold(t *testing.T) {
	m, now := newTestMonitor()

	if !m.Active() {
		t.Error("fresh monitor should be active")
	}
	*now = now.Add(59 * time.Second)
	if !m.Active() {
		t.Error("59s of silence should still be active")
	}
	*now = now.Add(2 * time.Second)
	if m.Active() {
		t.Error("61s of silence should be inactive")
	}
	m.RegisterActivity()
	if !m.Active() {
		t.Error("activity ping should restore active state")
	}
}

func TestRestartWindowBoundsRestarts(t *testing.T) {
	m, now := newTestMonitor()

	for i := 0; i < 5; i++ {
		if !m.CanRestart() {
			t.Fatalf("restart %d should be allowed", i+1)
		}
		m.RegisterRestart()
		*now = now.Add(time.Minute)
	}
	if m.CanRestart() {
		t.Error("sixth restart within the window should be denied")
	}

	// Slide past the window; old restarts fall out.
	*now = now.Add(time.Hour)
	if !m.CanRestart() {
		t.Error("restart should be allowed after window slides")
	}
}

func TestRegisterRestartRefreshesActivity(t *testing.T) {
	m, now := newTestMonitor()

	*now = now.Add(5 * time.Minute)
	if m.Active() {
		t.Fatal("monitor should be stalled before restart")
	}
	m.RegisterRestart()
	if !m.Active() {
		t.Error("restart should count as activity")
	}
}

func TestReportErrorDropsWhenQueueFull(t *testing.T) {
	m := New(Options{ErrorBuffer: 2})

	m.ReportError(errors.New("one"))
	m.ReportError(errors.New("two"))
	m.ReportError(errors.New("three")) // must not block
	if got := len(m.errs); got != 2 {
		t.Errorf("queued errors = %d, want 2", got)
	}
}

func TestAdminRegistry(t *testing.T) {
	m, _ := newTestMonitor()

	m.RegisterAdmin(7)
	m.RegisterAdmin(7)
	m.RegisterAdmin(9)
	if !m.IsAdmin(7) || !m.IsAdmin(9) {
		t.Error("registered admins not recognized")
	}
	if m.IsAdmin(11) {
		t.Error("unregistered user recognized as admin")
	}
	if got := m.Admins(); len(got) != 2 {
		t.Errorf("admins = %v, want two entries", got)
	}
}
