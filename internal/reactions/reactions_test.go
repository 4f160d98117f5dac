package reactions

import (
	"strings"
	"testing"
	"time"
)

func TestRecordCountsPerMessage(t *testing.T) {
	tr := NewTracker(time.Hour, nil)
	tr.Track(1, "base")
	tr.Track(2, "other")

	emoji, n, ok := tr.Record(1, Fire)
	if !ok || emoji != "🔥" || n != 1 {
		t.Fatalf("Record = (%q, %d, %v), want (🔥, 1, true)", emoji, n, ok)
	}
	_, n, _ = tr.Record(1, Fire)
	if n != 2 {
		t.Errorf("second tap count = %d, want 2", n)
	}
	if _, n, _ := tr.Record(2, Fire); n != 1 {
		t.Errorf("message 2 count = %d, want independent 1", n)
	}
}

func TestRecordRejectsUnknown(t *testing.T) {
	tr := NewTracker(time.Hour, nil)
	tr.Track(1, "base")

	if _, _, ok := tr.Record(99, Like); ok {
		t.Error("untracked message accepted")
	}
	if _, _, ok := tr.Record(1, Kind("explode")); ok {
		t.Error("unknown kind accepted")
	}
}

func TestRenderIntoAppendsSection(t *testing.T) {
	tr := NewTracker(time.Hour, nil)
	tr.Track(1, "🎲 PALPITE")

	text, ok := tr.RenderInto(1)
	if !ok || text != "🎲 PALPITE" {
		t.Fatalf("untapped render = %q, want bare base text", text)
	}

	tr.Record(1, Love)
	tr.Record(1, Love)
	tr.Record(1, Fire)

	text, _ = tr.RenderInto(1)
	if !strings.HasPrefix(text, "🎲 PALPITE") {
		t.Errorf("render lost base text: %q", text)
	}
	if !strings.Contains(text, "Reações:") {
		t.Errorf("render missing section: %q", text)
	}
	if !strings.Contains(text, "❤️ 2") || !strings.Contains(text, "🔥 1") {
		t.Errorf("render missing counts: %q", text)
	}
	// Display order follows Kinds, not tap order.
	if strings.Index(text, "❤️") > strings.Index(text, "🔥") {
		t.Errorf("render order wrong: %q", text)
	}
}

func TestTrackerEvictsExpiredEntries(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(time.Hour, func() time.Time { return now })

	tr.Track(1, "old")
	now = now.Add(30 * time.Minute)
	tr.Track(2, "newer")
	now = now.Add(45 * time.Minute)

	if _, _, ok := tr.Record(1, Like); ok {
		t.Error("expired message still accepting taps")
	}
	if _, _, ok := tr.Record(2, Like); !ok {
		t.Error("live message rejected")
	}
	if got := tr.Tracked(); got != 1 {
		t.Errorf("tracked = %d, want 1", got)
	}
}
