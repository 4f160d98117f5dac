package delivery

import (
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Target is one delivery destination: a numeric chat id or a public
// channel handle. Targets are tried in order until one accepts.
type Target struct {
	ChatID   int64
	Username string
}

func (t Target) String() string {
	if t.Username != "" {
		return t.Username
	}
	return strconv.FormatInt(t.ChatID, 10)
}

// API is the slice of the bot client the sender needs.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ActivityRecorder receives a ping on every send attempt, success or
// failure.
type ActivityRecorder interface {
	RegisterActivity()
}

// SenderOptions holds options for creating a Sender.
type SenderOptions struct {
	RetryCount     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Sleep          func(time.Duration)
}

// Sender delivers a message to the first target in an ordered list
// that accepts it. Per target it retries with capped multiplicative
// backoff, honors rate-limit retry hints, and abandons the target
// immediately on a chat-not-found error.
type Sender struct {
	api            API
	monitor        ActivityRecorder
	retryCount     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	sleep          func(time.Duration)
	logger         zerolog.Logger

	mu     sync.Mutex
	pinned *Target
}

// NewSender creates a Sender over the given bot API.
func NewSender(api API, monitor ActivityRecorder, opts SenderOptions) *Sender {
	if opts.RetryCount <= 0 {
		opts.RetryCount = 3
	}
	if opts.InitialBackoff == 0 {
		opts.InitialBackoff = 2 * time.Second
	}
	if opts.MaxBackoff == 0 {
		opts.MaxBackoff = 15 * time.Second
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Sender{
		api:            api,
		monitor:        monitor,
		retryCount:     opts.RetryCount,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
		sleep:          opts.Sleep,
		logger:         log.With().Str("component", "delivery").Logger(),
	}
}

// Send tries each target in order with the default retry budget.
func (s *Sender) Send(targets []Target, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, *Target, bool) {
	return s.SendRetry(targets, text, keyboard, s.retryCount)
}

// SendRetry is Send with an explicit per-target retry budget. It stops
// at the first success and reports which target accepted; callers fall
// back to the registered private user when every target is exhausted.
func (s *Sender) SendRetry(targets []Target, text string, keyboard *tgbotapi.InlineKeyboardMarkup, retries int) (tgbotapi.Message, *Target, bool) {
	defer s.monitor.RegisterActivity()

	for _, target := range targets {
		if msg, ok := s.sendOne(target, text, keyboard, retries); ok {
			s.setPinned(target)
			return msg, &target, true
		}
	}

	s.logger.Error().Int("targets", len(targets)).Msg("All delivery targets exhausted")
	return tgbotapi.Message{}, nil, false
}

func (s *Sender) sendOne(target Target, text string, keyboard *tgbotapi.InlineKeyboardMarkup, retries int) (tgbotapi.Message, bool) {
	backoff := s.initialBackoff
	rateLimitRetries := 0

	for attempt := 0; attempt < retries; {
		s.logger.Info().
			Str("target", target.String()).
			Int("attempt", attempt+1).
			Int("retries", retries).
			Msg("Sending message")

		sent, err := s.api.Send(buildMessage(target, text, keyboard))
		if err == nil {
			s.logger.Info().Str("target", target.String()).Msg("Message delivered")
			return sent, true
		}

		s.logger.Error().Err(err).Str("target", target.String()).Msg("Send failed")

		switch {
		case retryAfterHint(err) > 0:
			// The API told us exactly how long to wait; this does not
			// consume a regular attempt.
			wait := time.Duration(retryAfterHint(err))*time.Second + time.Second
			s.logger.Warn().Dur("wait", wait).Msg("Rate limited, honoring retry-after hint")
			s.sleep(wait)
			rateLimitRetries++
			if rateLimitRetries >= retries {
				return tgbotapi.Message{}, false
			}

		case isChatNotFound(err):
			// Permanent for this destination; move on immediately.
			s.logger.Error().Str("target", target.String()).Msg("Chat not found, skipping target")
			return tgbotapi.Message{}, false

		default:
			attempt++
			if attempt >= retries {
				return tgbotapi.Message{}, false
			}
			s.sleep(backoff)
			backoff = backoff * 3 / 2
			if backoff > s.maxBackoff {
				backoff = s.maxBackoff
			}
		}
	}
	return tgbotapi.Message{}, false
}

// Pinned returns the last target that accepted a message, when any.
// The posting loop sticks to it for subsequent sends.
func (s *Sender) Pinned() *Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pinned
}

func (s *Sender) setPinned(t Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned = &t
}

func buildMessage(target Target, text string, keyboard *tgbotapi.InlineKeyboardMarkup) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if target.Username != "" {
		msg = tgbotapi.NewMessageToChannel(target.Username, text)
	} else {
		msg = tgbotapi.NewMessage(target.ChatID, text)
	}
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	return msg
}

// retryAfterHint extracts the rate-limit wait in seconds, preferring
// the typed API error and falling back to the "retry after N" text.
func retryAfterHint(err error) int {
	if apiErr, ok := err.(*tgbotapi.Error); ok && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}

	msg := err.Error()
	idx := strings.Index(msg, "retry after ")
	if idx < 0 {
		return 0
	}
	rest := msg[idx+len("retry after "):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err2 := strconv.Atoi(rest[:end])
	if err2 != nil {
		return 0
	}
	return n
}

func isChatNotFound(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "chat not found")
}
