package bot

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kjlabs/bacbot/internal/delivery"
	"github.com/kjlabs/bacbot/internal/loop"
	"github.com/kjlabs/bacbot/internal/monitor"
	"github.com/kjlabs/bacbot/internal/outcome"
	"github.com/kjlabs/bacbot/internal/picker"
	"github.com/kjlabs/bacbot/internal/reactions"
	"github.com/kjlabs/bacbot/internal/score"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	answered []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answered)
}

func newTestHandler(api *fakeAPI) (*Handler, *monitor.Monitor, *loop.Loop) {
	mon := monitor.New(monitor.Options{})
	feed := outcome.NewFeed(outcome.FeedOptions{
		BaseURL:         "http://127.0.0.1:0",
		MaxRetryTimeout: 50 * time.Millisecond,
	})
	pk := picker.New(1, rand.New(rand.NewSource(1)))
	sc := score.New()
	tracker := reactions.NewTracker(time.Hour, nil)
	sender := delivery.NewSender(api, mon, delivery.SenderOptions{
		Sleep: func(time.Duration) {},
	})
	lp := loop.New(api, feed, pk, sc, sender, tracker, mon, loop.Options{
		Targets: []delivery.Target{{ChatID: -100}},
		Sleep:   func(time.Duration) {},
	})
	restart := make(chan struct{}, 1)
	h := NewHandler(api, lp, feed, pk, sc, mon, tracker, "@canal", "", restart)
	return h, mon, lp
}

func commandMessage(chatType, text string, userID int64) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
		Chat: &tgbotapi.Chat{ID: userID, Type: chatType},
		From: &tgbotapi.User{ID: userID, FirstName: "Ana"},
	}
}

func TestStatusCommandRegistersAdmin(t *testing.T) {
	h, mon, _ := newTestHandler(&fakeAPI{})

	h.Handle(context.Background(), tgbotapi.Update{
		Message: commandMessage("private", "/status", 7),
	})
	if !mon.IsAdmin(7) {
		t.Error("private /status did not register the user as admin")
	}
}

func TestStatusFromGroupDoesNotRegisterAdmin(t *testing.T) {
	h, mon, _ := newTestHandler(&fakeAPI{})

	h.Handle(context.Background(), tgbotapi.Update{
		Message: commandMessage("supergroup", "/status", 8),
	})
	if mon.IsAdmin(8) {
		t.Error("group /status must not grant the admin panel")
	}
}

func TestStartRegistersFallbackUserNotAdmin(t *testing.T) {
	h, mon, lp := newTestHandler(&fakeAPI{})

	h.Handle(context.Background(), tgbotapi.Update{
		Message: commandMessage("private", "/start", 9),
	})
	if got := lp.FallbackUser(); got != 9 {
		t.Errorf("fallback user = %d, want 9", got)
	}
	if mon.IsAdmin(9) {
		t.Error("/start must not grant the admin panel")
	}
}

func TestAdminLogsCallbackWithoutMessage(t *testing.T) {
	api := &fakeAPI{}
	h, mon, _ := newTestHandler(api)
	mon.RegisterAdmin(7)

	// Stale panel: no message attached to the callback.
	h.Handle(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb1",
			From: &tgbotapi.User{ID: 7},
			Data: "admin_logs",
		},
	})
	if api.requests() != 1 {
		t.Errorf("callback answers = %d, want 1", api.requests())
	}
}

func TestAdminCallbacksGated(t *testing.T) {
	api := &fakeAPI{}
	h, _, _ := newTestHandler(api)

	h.Handle(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb2",
			From: &tgbotapi.User{ID: 11},
			Data: "admin_restart",
		},
	})
	if api.requests() != 1 {
		t.Errorf("callback answers = %d, want the refusal answer", api.requests())
	}
}
