package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/kjlabs/bacbot/internal/bot"
	"github.com/kjlabs/bacbot/internal/config"
	"github.com/kjlabs/bacbot/internal/delivery"
	"github.com/kjlabs/bacbot/internal/logging"
	"github.com/kjlabs/bacbot/internal/loop"
	"github.com/kjlabs/bacbot/internal/monitor"
	"github.com/kjlabs/bacbot/internal/outcome"
	"github.com/kjlabs/bacbot/internal/picker"
	"github.com/kjlabs/bacbot/internal/reactions"
	"github.com/kjlabs/bacbot/internal/render"
	"github.com/kjlabs/bacbot/internal/schedule"
	"github.com/kjlabs/bacbot/internal/score"
)

const (
	pollErrorCap    = 30 * time.Second
	conflictPause   = 10 * time.Second
	rateLimitCap    = 60 * time.Second
	maxPollFailures = 50
	restartDelayCap = 5 * time.Minute
)

// errAuth means Telegram rejected the token; restarting cannot help.
var errAuth = errors.New("telegram rejected the bot token")

// pollErrorKind categorizes a getUpdates failure.
type pollErrorKind int

const (
	pollErrorNetwork pollErrorKind = iota
	pollErrorAuth
	pollErrorConflict
	pollErrorRateLimit
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logPath, err := logging.Setup(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	if cfg.BotToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
		}); err != nil {
			log.Warn().Err(err).Msg("Sentry init failed, continuing without it")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// One monitor for the whole process so the sliding restart window
	// accumulates across run() passes.
	mon := monitor.New(monitor.Options{
		MaxSilence:    cfg.MaxSilence,
		RestartLimit:  cfg.RestartLimit,
		SentryEnabled: cfg.SentryDSN != "",
	})
	stopErrors := make(chan struct{})
	defer close(stopErrors)
	go mon.ProcessErrors(stopErrors)

	restartDelay := 30 * time.Second
	for {
		err := run(cfg, logPath, mon)
		if err == nil {
			log.Info().Msg("Bot exited cleanly")
			return
		}
		sentry.CaptureException(err)
		if errors.Is(err, errAuth) {
			log.Error().Err(err).Msg("Fatal error, not restarting")
			sentry.Flush(2 * time.Second)
			os.Exit(1)
		}
		if !mon.CanRestart() {
			log.Error().Err(err).Msg("Restart budget exhausted, exiting")
			sentry.Flush(2 * time.Second)
			os.Exit(1)
		}
		mon.RegisterRestart()
		log.Error().Err(err).Dur("delay", restartDelay).Msg("Bot exited with error, restarting")
		time.Sleep(restartDelay)
		restartDelay = restartDelay * 3 / 2
		if restartDelay > restartDelayCap {
			restartDelay = restartDelayCap
		}
	}
}

func run(cfg *config.Config, logPath string, mon *monitor.Monitor) error {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		if classifyPollError(err) == pollErrorAuth {
			return errAuth
		}
		return err
	}
	log.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := outcome.NewFeed(outcome.FeedOptions{
		BaseURL:        cfg.FeedBaseURL,
		RequestTimeout: cfg.FeedTimeout,
		CacheTTL:       cfg.FeedTTL,
	})
	pk := picker.New(cfg.MaxGales, rand.New(rand.NewSource(time.Now().UnixNano())))
	sc := score.New()
	tracker := reactions.NewTracker(24*time.Hour, nil)
	sender := delivery.NewSender(api, mon, delivery.SenderOptions{})

	targets := []delivery.Target{
		{ChatID: cfg.ChannelID},
		{ChatID: cfg.ChannelIDAlt},
		{Username: cfg.ChannelHandle},
	}

	lp := loop.New(api, feed, pk, sc, sender, tracker, mon, loop.Options{
		Targets:         targets,
		PostInterval:    cfg.PostInterval,
		ScoreboardEvery: cfg.ScoreboardEvery,
		PlayURL:         cfg.FeedBaseURL,
	})

	sender.SendRetry(targets, render.Startup(cfg.ChannelTitle, time.Now()), nil, 5)

	restart := make(chan struct{}, 1)
	handler := bot.NewHandler(api, lp, feed, pk, sc, mon, tracker, cfg.ChannelHandle, logPath, restart)

	go lp.Run(ctx)
	defer lp.Stop()

	if cfg.ScheduleEnabled {
		announcer := schedule.NewAnnouncer(lp, time.Local)
		if err := announcer.Start(); err != nil {
			log.Warn().Err(err).Msg("Scheduled announcements unavailable")
		} else {
			defer announcer.Stop()
		}
	}

	go watch(ctx, api, mon, lp, restart)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	return poll(ctx, api, handler, mon, restart, sig)
}

// classifyPollError maps a Telegram API failure onto a handling
// strategy.
func classifyPollError(err error) pollErrorKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized"):
		return pollErrorAuth
	case strings.Contains(msg, "409") || strings.Contains(msg, "conflict"):
		return pollErrorConflict
	case strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return pollErrorRateLimit
	default:
		return pollErrorNetwork
	}
}

// poll drives getUpdates manually so transient failures can be told
// apart: auth failures kill the process, conflicts and rate limits
// wait it out, network errors back off.
func poll(ctx context.Context, api *tgbotapi.BotAPI, handler *bot.Handler, mon *monitor.Monitor, restart <-chan struct{}, sig <-chan os.Signal) error {
	offset := 0
	errorDelay := 5 * time.Second
	failures := 0

	for {
		select {
		case <-sig:
			log.Info().Msg("Signal received, shutting down")
			return nil
		case <-restart:
			log.Warn().Msg("Restart requested")
			return errors.New("restart requested")
		default:
		}

		updateConfig := tgbotapi.NewUpdate(offset)
		updateConfig.Timeout = 30
		updates, err := api.GetUpdates(updateConfig)
		if err != nil {
			failures++
			if failures >= maxPollFailures {
				return errors.New("too many consecutive poll failures")
			}
			switch classifyPollError(err) {
			case pollErrorAuth:
				return errAuth
			case pollErrorConflict:
				log.Warn().Msg("Another getUpdates consumer detected, waiting")
				time.Sleep(conflictPause)
			case pollErrorRateLimit:
				delay := errorDelay * 2
				if delay > rateLimitCap {
					delay = rateLimitCap
				}
				errorDelay = delay
				log.Warn().Dur("delay", delay).Msg("Rate limited on polling")
				time.Sleep(delay)
			default:
				log.Error().Err(err).Dur("delay", errorDelay).Msg("Polling failed")
				mon.ReportError(err)
				time.Sleep(errorDelay)
				errorDelay = errorDelay * 3 / 2
				if errorDelay > pollErrorCap {
					errorDelay = pollErrorCap
				}
			}
			continue
		}

		failures = 0
		errorDelay = 5 * time.Second
		mon.RegisterActivity()

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			handler.Handle(ctx, update)
		}
	}
}

// watch bounces the bot when it goes silent: a getMe ping first, then
// admin alerts, then a restart if the bounded budget allows one.
func watch(ctx context.Context, api *tgbotapi.BotAPI, mon *monitor.Monitor, lp *loop.Loop, restart chan<- struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if mon.Active() {
			continue
		}
		log.Warn().Dur("silence", mon.Silence()).Msg("Bot has gone quiet")

		if _, err := api.GetMe(); err == nil {
			mon.RegisterActivity()
			continue
		}

		for _, admin := range mon.Admins() {
			msg := tgbotapi.NewMessage(admin, render.MonitorReport(mon.StatusReport()))
			if _, err := api.Send(msg); err != nil {
				log.Warn().Err(err).Int64("admin", admin).Msg("Admin alert failed")
			}
		}

		if !mon.CanRestart() {
			log.Error().Msg("Silent and out of restart budget")
			continue
		}
		lp.Announce(render.Restarting())
		select {
		case restart <- struct{}{}:
		default:
		}
	}
}
