package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options holds options for creating a Monitor.
type Options struct {
	MaxSilence    time.Duration
	RestartLimit  int
	RestartWindow time.Duration
	ErrorBuffer   int
	SentryEnabled bool
	Now           func() time.Time
}

// Monitor watches bot liveness. Every outbound action pings it; when
// pings stop for longer than the silence threshold the bot is
// considered stalled and eligible for a restart, bounded by a sliding
// window so a crash loop cannot restart forever.
type Monitor struct {
	mu             sync.Mutex
	lastActivity   time.Time
	restartTimes   []time.Time
	admins         []int64
	startedAt      time.Time
	restartCount   int
	errorsReported int

	maxSilence    time.Duration
	restartLimit  int
	restartWindow time.Duration
	sentryEnabled bool
	now           func() time.Time

	errs   chan error
	logger zerolog.Logger
}

// New creates a Monitor with the given thresholds.
func New(opts Options) *Monitor {
	if opts.MaxSilence == 0 {
		opts.MaxSilence = 60 * time.Second
	}
	if opts.RestartLimit == 0 {
		opts.RestartLimit = 5
	}
	if opts.RestartWindow == 0 {
		opts.RestartWindow = time.Hour
	}
	if opts.ErrorBuffer == 0 {
		opts.ErrorBuffer = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Monitor{
		maxSilence:    opts.MaxSilence,
		restartLimit:  opts.RestartLimit,
		restartWindow: opts.RestartWindow,
		sentryEnabled: opts.SentryEnabled,
		now:           opts.Now,
		errs:          make(chan error, opts.ErrorBuffer),
		logger:        log.With().Str("component", "monitor").Logger(),
	}
	m.startedAt = m.now()
	m.lastActivity = m.startedAt
	return m
}

// RegisterActivity marks the bot as alive right now.
func (m *Monitor) RegisterActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = m.now()
}

// Active reports whether the bot pinged within the silence threshold.
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Sub(m.lastActivity) <= m.maxSilence
}

// Silence returns how long the bot has been quiet.
func (m *Monitor) Silence() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Sub(m.lastActivity)
}

// CanRestart reports whether another restart fits in the sliding
// window.
func (m *Monitor) CanRestart() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	return len(m.restartTimes) < m.restartLimit
}

// RegisterRestart records a restart and refreshes activity.
func (m *Monitor) RegisterRestart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.restartTimes = append(m.restartTimes, now)
	m.restartCount++
	m.lastActivity = now
	m.pruneLocked()
	m.logger.Warn().Int("window_restarts", len(m.restartTimes)).Msg("Bot restart registered")
}

func (m *Monitor) pruneLocked() {
	cutoff := m.now().Add(-m.restartWindow)
	kept := m.restartTimes[:0]
	for _, t := range m.restartTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.restartTimes = kept
}

// ReportError queues an error for the processing loop. A full queue
// drops the error rather than blocking the caller.
func (m *Monitor) ReportError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	m.errorsReported++
	m.mu.Unlock()
	select {
	case m.errs <- err:
	default:
		m.logger.Warn().Err(err).Msg("Error queue full, dropping error")
	}
}

// ProcessErrors drains the error queue until it is closed or the stop
// channel fires. Intended to run on its own goroutine.
func (m *Monitor) ProcessErrors(stop <-chan struct{}) {
	for {
		select {
		case err := <-m.errs:
			m.logger.Error().Err(err).Msg("Bot error")
			if m.sentryEnabled {
				sentry.CaptureException(err)
			}
		case <-stop:
			return
		}
	}
}

// RegisterAdmin records a user as an operator. Duplicate registrations
// are ignored.
func (m *Monitor) RegisterAdmin(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.admins {
		if id == userID {
			return
		}
	}
	m.admins = append(m.admins, userID)
	m.logger.Info().Int64("user_id", userID).Msg("Admin registered")
}

// IsAdmin reports whether the user was registered as an operator.
func (m *Monitor) IsAdmin(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.admins {
		if id == userID {
			return true
		}
	}
	return false
}

// Admins returns a copy of the registered operator ids.
func (m *Monitor) Admins() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.admins))
	copy(out, m.admins)
	return out
}

// StatusReport summarizes liveness for the operator commands.
func (m *Monitor) StatusReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	now := m.now()
	return fmt.Sprintf(
		"⏱ Ativo há: %s\n📡 Último sinal: %s atrás\n🔄 Reinícios (janela): %d/%d\n⚠️ Erros reportados: %d",
		now.Sub(m.startedAt).Round(time.Second),
		now.Sub(m.lastActivity).Round(time.Second),
		len(m.restartTimes), m.restartLimit,
		m.errorsReported,
	)
}
