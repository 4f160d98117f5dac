package picker

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kjlabs/bacbot/internal/outcome"
)

// Picker selects the next bet from the rolling outcome history and the
// wall clock. It is a branching rule table, not a model: sequence
// detection first, then absence detection, then an hour-of-day bucket,
// then the trend fallback. A gale (consecutive-miss) counter past its
// limit arms defensive mode, which favors single-color bets until the
// next hit.
type Picker struct {
	mu        sync.Mutex
	last      Label
	gales     int
	maxGales  int
	defensive bool
	rnd       *rand.Rand
	logger    zerolog.Logger
}

// New creates a Picker with the given gale limit. A nil rnd gets a
// time-seeded source; tests pass a fixed one.
func New(maxGales int, rnd *rand.Rand) *Picker {
	if maxGales <= 0 {
		maxGales = 1
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Picker{
		maxGales: maxGales,
		rnd:      rnd,
		logger:   log.With().Str("component", "picker").Logger(),
	}
}

// RegisterHit resets the gale counter and leaves defensive mode.
func (p *Picker) RegisterHit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gales = 0
	p.defensive = false
}

// RegisterMiss advances the gale counter and reports whether the limit
// was reached, which arms defensive mode and restarts the count.
func (p *Picker) RegisterMiss() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gales++
	if p.gales >= p.maxGales {
		p.defensive = true
		p.gales = 0
		p.logger.Info().Msg("Gale limit reached, defensive mode armed")
		return true
	}
	return false
}

// Last returns the most recently issued label.
func (p *Picker) Last() Label {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Defensive reports whether defensive mode is armed.
func (p *Picker) Defensive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.defensive
}

// Pick returns the next bet. The first matching rule wins; every rule
// runs its natural choice through anti-repeat substitution against the
// previously issued label. Pick never fails: an internal panic
// degrades to a random choice between the two main pair combinations.
func (p *Picker) Pick(h outcome.History, now time.Time) (label Label) {
	p.mu.Lock()
	defer p.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("Pick panicked, using emergency fallback")
			label = [2]Label{OrangeBlue, OrangeRed}[p.rnd.Intn(2)]
			p.last = label
		}
	}()

	label = p.choose(h, now)
	p.last = label
	return label
}

func (p *Picker) choose(h outcome.History, now time.Time) Label {
	hour, minute := now.Hour(), now.Minute()

	// 1. Sequence detection: three identical outcomes in a row.
	if streak, ok := h.Streak(); ok {
		if p.defensive {
			switch streak {
			case outcome.Blue:
				return p.finish(Red, Red, Blue)
			case outcome.Red:
				return p.finish(Blue, Red, Blue)
			default: // tie streak resolves by hour parity
				if hour >= 12 {
					return p.finish(Red, Red, Blue)
				}
				return p.finish(Blue, Red, Blue)
			}
		}
		switch streak {
		case outcome.Blue:
			return p.finish(OrangeRed, OrangeRed, OrangeBlue)
		case outcome.Red:
			return p.finish(OrangeBlue, OrangeRed, OrangeBlue)
		default:
			if minute%2 == 0 {
				return p.finish(OrangeRed, OrangeRed, OrangeBlue)
			}
			return p.finish(OrangeBlue, OrangeRed, OrangeBlue)
		}
	}

	// 2. Absence detection: a symbol missing from the trailing five.
	if absent, ok := h.Absent(); ok {
		if p.defensive {
			return p.finish(singleFor(absent), singleFor(absent))
		}
		switch absent {
		case outcome.Orange:
			// Orange is always bet alone.
			return p.finish(Orange, Orange)
		case outcome.Blue:
			return p.finish(OrangeBlue, OrangeBlue)
		default:
			return p.finish(OrangeRed, OrangeRed)
		}
	}

	// 3. Hour-of-day buckets.
	switch {
	case hour >= 6 && hour < 12:
		if p.defensive {
			return p.finish(Blue, Blue)
		}
		return p.finish(OrangeBlue, OrangeBlue)

	case hour >= 12 && hour < 18:
		if h.Len() >= 3 {
			if h.Alternated() {
				latest, _ := h.Latest()
				switch latest {
				case outcome.Blue:
					return p.finish(OrangeRed, OrangeRed, OrangeBlue, Orange)
				case outcome.Red:
					return p.finish(OrangeBlue, OrangeRed, OrangeBlue, Orange)
				default:
					if minute%2 == 0 {
						return p.finish(OrangeRed, OrangeRed, OrangeBlue, Orange)
					}
					return p.finish(OrangeBlue, OrangeRed, OrangeBlue, Orange)
				}
			}
			switch h.Trend {
			case outcome.Blue:
				return p.finish(OrangeBlue, OrangeRed, OrangeBlue, Orange)
			case outcome.Red:
				return p.finish(OrangeRed, OrangeRed, OrangeBlue, Orange)
			default:
				return p.finish(Orange, OrangeRed, OrangeBlue, Orange)
			}
		}
		return p.finish(OrangeBlue, OrangeRed, OrangeBlue)

	case hour >= 18:
		if p.defensive {
			return p.finish(Red, Red)
		}
		return p.finish(OrangeRed, OrangeRed, OrangeBlue)

	default: // 0-6h
		if p.defensive {
			return p.finish(Orange, Orange)
		}
		var natural Label
		switch {
		case minute < 20:
			natural = OrangeBlue
		case minute < 40:
			natural = OrangeRed
		default:
			natural = Orange
		}
		return p.finish(natural, OrangeBlue, OrangeRed, Orange)
	}
}

// finish applies the anti-repeat rule: if the natural choice equals the
// previously issued label and the bucket offers an alternative, the
// first alternative wins. Single-option buckets may legitimately
// repeat.
func (p *Picker) finish(choice Label, options ...Label) Label {
	if choice != p.last {
		return choice
	}
	for _, alt := range options {
		if alt != p.last {
			p.logger.Debug().
				Str("natural", string(choice)).
				Str("substitute", string(alt)).
				Msg("Avoiding repeated pick")
			return alt
		}
	}
	return choice
}

func singleFor(s outcome.Symbol) Label {
	switch s {
	case outcome.Blue:
		return Blue
	case outcome.Red:
		return Red
	default:
		return Orange
	}
}
