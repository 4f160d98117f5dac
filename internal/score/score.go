package score

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Display targets shown on the scoreboard. They are goals, not caps;
// the real counters run past them until the cycle resets.
const (
	GreenGoal = 100
	RedGoal   = 30
)

// Cycle thresholds: once both are crossed the counters fold back to a
// fresh cycle so the scoreboard never shows a stale thousand-hit run.
const (
	cycleHits   = 150
	cycleMisses = 50
)

// After this many misses in a row the record is rewritten to a
// baseline that still reads plausibly.
const missRewriteStreak = 5

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Hits     int
	Misses   int
	Total    int
	Greens   int
	Reds     int
	MaxGreen int
	MaxRed   int
	Rate     int
}

// Counters accumulates fabricated hit/miss statistics.
type Counters struct {
	mu                sync.Mutex
	hits              int
	misses            int
	total             int
	greenStreak       int
	redStreak         int
	maxGreen          int
	maxRed            int
	consecutiveMisses int
	logger            zerolog.Logger
}

// New creates zeroed Counters.
func New() *Counters {
	return &Counters{logger: log.With().Str("component", "score").Logger()}
}

// Record registers one outcome. It reports whether the loss record was
// rewritten because of a miss streak.
func (c *Counters) Record(hit bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	if hit {
		c.hits++
		c.greenStreak++
		c.redStreak = 0
		c.consecutiveMisses = 0
		if c.greenStreak > c.maxGreen {
			c.maxGreen = c.greenStreak
		}
		return false
	}

	c.misses++
	c.redStreak++
	c.greenStreak = 0
	c.consecutiveMisses++
	if c.redStreak > c.maxRed {
		c.maxRed = c.redStreak
	}

	if c.consecutiveMisses >= missRewriteStreak {
		// Too many reds in a row reads badly; rewrite to a baseline.
		c.hits = 0
		c.misses = 5
		c.total = 5
		c.greenStreak = 0
		c.redStreak = 5
		c.consecutiveMisses = 0
		c.logger.Warn().Msg("Miss streak hit limit, rewriting record")
		return true
	}
	return false
}

// Snapshot returns a copy of the counters with the advertised win
// rate. The rate starts at 50% and climbs with the running green
// streak, never reaching 100%; a red drops it back toward the base.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Counters) snapshotLocked() Snapshot {
	bonus := c.greenStreak * 2
	if bonus > 49 {
		bonus = 49
	}
	return Snapshot{
		Hits:     c.hits,
		Misses:   c.misses,
		Total:    c.total,
		Greens:   c.greenStreak,
		Reds:     c.redStreak,
		MaxGreen: c.maxGreen,
		MaxRed:   c.maxRed,
		Rate:     50 + bonus,
	}
}

// ShouldCycle reports whether both cycle thresholds are crossed.
func (c *Counters) ShouldCycle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits >= cycleHits && c.misses >= cycleMisses
}

// ResetCycle wipes every counter, streak maxima included, and returns
// the closing snapshot for the announcement.
func (c *Counters) ResetCycle() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	closing := c.snapshotLocked()
	c.hits = 0
	c.misses = 0
	c.total = 0
	c.greenStreak = 0
	c.redStreak = 0
	c.maxGreen = 0
	c.maxRed = 0
	c.consecutiveMisses = 0
	c.logger.Info().Int("hits", closing.Hits).Int("misses", closing.Misses).Msg("Score cycle reset")
	return closing
}
