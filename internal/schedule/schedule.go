package schedule

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Poster is the delivery slice the announcer needs.
type Poster interface {
	Announce(text string)
}

// Announcer posts fixed daily messages: a midnight recap teaser and
// two prime-time calls to action.
type Announcer struct {
	scheduler *gocron.Scheduler
	poster    Poster
	logger    zerolog.Logger
}

// NewAnnouncer creates an Announcer in the given location.
func NewAnnouncer(poster Poster, loc *time.Location) *Announcer {
	if loc == nil {
		loc = time.Local
	}
	return &Announcer{
		scheduler: gocron.NewScheduler(loc),
		poster:    poster,
		logger:    log.With().Str("component", "schedule").Logger(),
	}
}

// Start registers the daily jobs and launches the scheduler on its
// own goroutine.
func (a *Announcer) Start() error {
	jobs := []struct {
		at   string
		text string
	}{
		{"00:00", "🌙 Virada do dia! Placar zerando, amanhã tem mais lucro! 💰"},
		{"10:00", "☀️ Bom dia, família! Sessão da manhã começando, cola no canal! 🎲"},
		{"15:00", "🔥 Horário quente! As mesas estão pagando, não fica de fora! 🎯"},
	}
	for _, j := range jobs {
		text := j.text
		if _, err := a.scheduler.Every(1).Day().At(j.at).Do(func() {
			a.logger.Info().Msg("Posting scheduled announcement")
			a.poster.Announce(text)
		}); err != nil {
			return err
		}
	}
	a.scheduler.StartAsync()
	a.logger.Info().Int("jobs", len(jobs)).Msg("Daily announcements scheduled")
	return nil
}

// Stop halts the scheduler.
func (a *Announcer) Stop() {
	a.scheduler.Stop()
}
