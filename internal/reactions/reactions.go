package reactions

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Kind identifies one reaction button.
type Kind string

const (
	Like     Kind = "like"
	Love     Kind = "love"
	Fire     Kind = "fire"
	Thinking Kind = "thinking"
	Sad      Kind = "sad"
	Angry    Kind = "angry"
	Money    Kind = "money"
	Lucky    Kind = "lucky"
)

// Kinds lists the reactions in display order.
var Kinds = []Kind{Like, Love, Fire, Thinking, Sad, Angry, Money, Lucky}

var emojis = map[Kind]string{
	Like:     "👍",
	Love:     "❤️",
	Fire:     "🔥",
	Thinking: "🤔",
	Sad:      "😢",
	Angry:    "😡",
	Money:    "💰",
	Lucky:    "🍀",
}

// Emoji returns the reaction's emoji, or empty for an unknown kind.
func (k Kind) Emoji() string { return emojis[k] }

// Valid reports whether the kind is one of the known reactions.
func (k Kind) Valid() bool {
	_, ok := emojis[k]
	return ok
}

type entry struct {
	counts    map[Kind]int
	baseText  string
	trackedAt time.Time
}

// Tracker keeps per-message reaction counts for a bounded time, so the
// map cannot grow without limit as old posts stop receiving taps.
type Tracker struct {
	mu      sync.Mutex
	entries map[int]*entry
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewTracker creates a Tracker that forgets messages after ttl.
func NewTracker(ttl time.Duration, now func() time.Time) *Tracker {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		entries: make(map[int]*entry),
		ttl:     ttl,
		now:     now,
		logger:  log.With().Str("component", "reactions").Logger(),
	}
}

// Track starts counting reactions for a message. baseText is the
// message body without any reaction section, kept so the section can
// be re-rendered from scratch on every tap.
func (t *Tracker) Track(messageID int, baseText string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictLocked()
	t.entries[messageID] = &entry{
		counts:    make(map[Kind]int),
		baseText:  baseText,
		trackedAt: t.now(),
	}
}

// Record increments the counter for a reaction tap. It returns the
// emoji and the new count, or ok=false when the message is unknown or
// already expired.
func (t *Tracker) Record(messageID int, kind Kind) (string, int, bool) {
	if !kind.Valid() {
		return "", 0, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictLocked()
	e, ok := t.entries[messageID]
	if !ok {
		return "", 0, false
	}
	e.counts[kind]++
	return kind.Emoji(), e.counts[kind], true
}

// Totals returns the reaction counts of a tracked message.
func (t *Tracker) Totals(messageID int) (map[Kind]int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[messageID]
	if !ok {
		return nil, false
	}
	out := make(map[Kind]int, len(e.counts))
	for k, v := range e.counts {
		out[k] = v
	}
	return out, true
}

// GrandTotals sums the counts of every tracked message.
func (t *Tracker) GrandTotals() map[Kind]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictLocked()
	out := make(map[Kind]int)
	for _, e := range t.entries {
		for k, v := range e.counts {
			out[k] += v
		}
	}
	return out
}

// Tracked reports how many messages are currently counted.
func (t *Tracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictLocked()
	return len(t.entries)
}

// RenderInto rebuilds the message text with a reaction section
// appended. Messages with no taps yet come back unchanged.
func (t *Tracker) RenderInto(messageID int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[messageID]
	if !ok {
		return "", false
	}

	var b strings.Builder
	b.WriteString(e.baseText)

	any := false
	for _, k := range Kinds {
		if e.counts[k] > 0 {
			any = true
			break
		}
	}
	if any {
		b.WriteString("\n\nReações: ")
		first := true
		for _, k := range Kinds {
			n := e.counts[k]
			if n == 0 {
				continue
			}
			if !first {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%s %d", k.Emoji(), n)
			first = false
		}
	}
	return b.String(), true
}

func (t *Tracker) evictLocked() {
	cutoff := t.now().Add(-t.ttl)
	for id, e := range t.entries {
		if e.trackedAt.Before(cutoff) {
			delete(t.entries, id)
			t.logger.Debug().Int("message_id", id).Msg("Reaction entry expired")
		}
	}
}
