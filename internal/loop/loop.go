// Package loop drives the posting cadence: pick, post, tease, settle,
// repeat, with a periodic scoreboard and cycle resets in between.
package loop

import (
	"context"
	"math/rand"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kjlabs/bacbot/internal/delivery"
	"github.com/kjlabs/bacbot/internal/outcome"
	"github.com/kjlabs/bacbot/internal/picker"
	"github.com/kjlabs/bacbot/internal/reactions"
	"github.com/kjlabs/bacbot/internal/render"
	"github.com/kjlabs/bacbot/internal/score"
)

// API is the bot client slice the loop needs beyond delivery.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ErrorReporter receives iteration failures.
type ErrorReporter interface {
	ReportError(err error)
}

// Options holds options for creating a Loop.
type Options struct {
	Targets         []delivery.Target
	PostInterval    time.Duration
	InterimVisible  time.Duration
	ScoreboardEvery time.Duration
	ScoreboardPause time.Duration
	ErrorPause      time.Duration
	PlayURL         string
	Rand            *rand.Rand
	Sleep           func(time.Duration)
	Now             func() time.Time
}

// Loop owns the posting cycle. All mutable state is behind one mutex;
// the cycle itself runs on a single goroutine.
type Loop struct {
	api      API
	feed     *outcome.Feed
	picker   *picker.Picker
	score    *score.Counters
	sender   *delivery.Sender
	tracker  *reactions.Tracker
	reporter ErrorReporter

	targets         []delivery.Target
	postInterval    time.Duration
	interimVisible  time.Duration
	scoreboardEvery time.Duration
	scoreboardPause time.Duration
	errorPause      time.Duration
	playURL         string
	rnd             *rand.Rand
	sleep           func(time.Duration)
	now             func() time.Time
	logger          zerolog.Logger

	mu             sync.Mutex
	pending        picker.Label
	hasPending     bool
	strategyIdx    int
	lastScoreboard time.Time
	fallbackChat   int64

	stop chan struct{}
	done chan struct{}
}

// New wires a Loop from its collaborators.
func New(api API, feed *outcome.Feed, pk *picker.Picker, sc *score.Counters, sender *delivery.Sender, tracker *reactions.Tracker, reporter ErrorReporter, opts Options) *Loop {
	if opts.PostInterval == 0 {
		opts.PostInterval = 25 * time.Second
	}
	if opts.InterimVisible == 0 {
		opts.InterimVisible = 20 * time.Second
	}
	if opts.ScoreboardEvery == 0 {
		opts.ScoreboardEvery = 10 * time.Minute
	}
	if opts.ScoreboardPause == 0 {
		opts.ScoreboardPause = 30 * time.Second
	}
	if opts.ErrorPause == 0 {
		opts.ErrorPause = 30 * time.Second
	}
	if opts.PlayURL == "" {
		opts.PlayURL = "https://elephant.bet"
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := &Loop{
		api:             api,
		feed:            feed,
		picker:          pk,
		score:           sc,
		sender:          sender,
		tracker:         tracker,
		reporter:        reporter,
		targets:         opts.Targets,
		postInterval:    opts.PostInterval,
		interimVisible:  opts.InterimVisible,
		scoreboardEvery: opts.ScoreboardEvery,
		scoreboardPause: opts.ScoreboardPause,
		errorPause:      opts.ErrorPause,
		playURL:         opts.PlayURL,
		rnd:             opts.Rand,
		sleep:           opts.Sleep,
		now:             opts.Now,
		logger:          log.With().Str("component", "loop").Logger(),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	l.lastScoreboard = l.now()
	return l
}

// SetFallbackUser registers the private chat used when every channel
// target rejects a post. Only the first registration sticks.
func (l *Loop) SetFallbackUser(chatID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fallbackChat == 0 {
		l.fallbackChat = chatID
		l.logger.Info().Int64("chat_id", chatID).Msg("Fallback user registered")
	}
}

// FallbackUser returns the registered private chat, zero when none.
func (l *Loop) FallbackUser() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fallbackChat
}

// Run drives the posting cycle until Stop is called.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	l.logger.Info().Dur("interval", l.postInterval).Msg("Posting loop started")

	for {
		select {
		case <-l.stop:
			l.logger.Info().Msg("Posting loop stopped")
			return
		case <-ctx.Done():
			l.logger.Info().Msg("Posting loop context cancelled")
			return
		default:
		}

		if err := l.iterate(ctx); err != nil {
			l.logger.Error().Err(err).Msg("Iteration failed")
			if l.reporter != nil {
				l.reporter.ReportError(err)
			}
			l.sleep(l.errorPause)
		}
	}
}

// Stop signals the loop to exit and waits for the current iteration.
func (l *Loop) Stop() {
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
	<-l.done
}

func (l *Loop) iterate(ctx context.Context) error {
	now := l.now()

	if l.scoreboardDue(now) {
		l.postScoreboard(now)
		l.sleep(l.scoreboardPause)
	}

	if l.score.ShouldCycle() {
		closing := l.score.ResetCycle()
		l.deliver(render.CycleReset(closing), nil)
	}

	latest, _, _ := l.feed.Current(ctx)
	history := l.feed.History()

	l.settlePrevious(latest)

	label := l.picker.Pick(history, l.now())
	l.postPrediction(label)

	l.interlude()
	return nil
}

// scoreboardDue reports whether the periodic scoreboard should post
// now, and claims the slot when it does.
func (l *Loop) scoreboardDue(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastScoreboard) < l.scoreboardEvery {
		return false
	}
	l.lastScoreboard = now
	return true
}

func (l *Loop) postScoreboard(now time.Time) {
	l.deliver(render.Scoreboard(l.score.Snapshot(), now), nil)
}

// settlePrevious grades the previous pick against the newest outcome
// and posts the green/red call.
func (l *Loop) settlePrevious(latest outcome.Symbol) {
	l.mu.Lock()
	pending, has := l.pending, l.hasPending
	l.hasPending = false
	l.mu.Unlock()
	if !has || latest == "" {
		return
	}

	hit := pending.Covers(latest)
	l.score.Record(hit)
	text := render.Outcome(hit, l.rnd)
	if hit {
		l.picker.RegisterHit()
		text += render.BonusBlock(l.bonusPick(pending))
	} else if l.picker.RegisterMiss() {
		// Gale budget exhausted; switch to the next strategy family.
		l.rotateStrategy()
	}
	l.deliver(text, nil)
}

func (l *Loop) rotateStrategy() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.strategyIdx = (l.strategyIdx + 1) % len(render.Strategies)
}

// bonusPick draws a companion suggestion that never equals the pick
// it accompanies.
func (l *Loop) bonusPick(main picker.Label) picker.Label {
	alts := make([]picker.Label, 0, len(picker.Labels)-1)
	for _, alt := range picker.Labels {
		if alt != main {
			alts = append(alts, alt)
		}
	}
	return alts[l.rnd.Intn(len(alts))]
}

func (l *Loop) postPrediction(label picker.Label) {
	l.mu.Lock()
	strategy := render.Strategies[l.strategyIdx]
	l.pending = label
	l.hasPending = true
	l.mu.Unlock()

	text := render.Prediction(label, strategy, l.picker.Defensive(), l.score.Snapshot(), l.now())
	keyboard := l.keyboard()
	msg, target, ok := l.deliver(text, &keyboard)
	if ok {
		l.tracker.Track(msg.MessageID, text)
		l.logger.Info().
			Int("message_id", msg.MessageID).
			Str("target", target.String()).
			Str("pick", string(label)).
			Msg("Prediction posted")
	}
}

// interlude posts the teaser, lets it sit, deletes it and pads the
// rest of the interval with a small jitter.
func (l *Loop) interlude() {
	msg, _, ok := l.deliver(render.Interim(), nil)
	l.sleep(l.interimVisible)
	if ok {
		if _, err := l.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
			l.logger.Warn().Err(err).Msg("Interim delete failed")
		}
	}
	rest := l.postInterval - l.interimVisible
	if rest < 0 {
		rest = 0
	}
	jitter := time.Duration(l.rnd.Intn(4)) * time.Second
	l.sleep(rest + jitter)
}

// deliver sends through the channel targets, falling back to the
// registered private user when all of them reject.
func (l *Loop) deliver(text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, *delivery.Target, bool) {
	msg, target, ok := l.sender.Send(l.targets, text, keyboard)
	if ok {
		return msg, target, true
	}

	fallback := l.FallbackUser()
	if fallback == 0 {
		return tgbotapi.Message{}, nil, false
	}
	l.logger.Warn().Int64("chat_id", fallback).Msg("Falling back to private delivery")
	t := delivery.Target{ChatID: fallback}
	return l.sender.Send([]delivery.Target{t}, render.PrivateFallback(text), keyboard)
}

// Announce posts a standalone text to the channel targets. It backs
// the scheduled daily messages.
func (l *Loop) Announce(text string) {
	l.deliver(text, nil)
}

func (l *Loop) keyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, 4)
	for _, k := range reactions.Kinds[:4] {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(k.Emoji(), "reaction_"+string(k)))
	}
	link := tgbotapi.NewInlineKeyboardButtonURL("🎮 JOGA AGORA! 🎯🔥💰", l.playURL)
	return tgbotapi.NewInlineKeyboardMarkup(row, []tgbotapi.InlineKeyboardButton{link})
}
