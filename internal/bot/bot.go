// Package bot is the Telegram chat layer: it turns commands, button presses
// and uploaded media into calls on the challenge and duel services.
package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/config"
	"github.com/fitbro/fitbro/internal/duel"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/prompts"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v4"
)

const leaderboardSize = 10

type Router interface {
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
}

type Bot struct {
	config    *config.Config
	storage   *storage.Storage
	challenge *challenge.Service
	duels     *duel.Controller
	prompts   *prompts.Store
	clock     *calendar.Clock
	api       Sender
	announcer *Announcer
	log       *logrus.Entry
}

func New(
	cfg *config.Config,
	store *storage.Storage,
	ch *challenge.Service,
	duels *duel.Controller,
	pr *prompts.Store,
	clock *calendar.Clock,
	api Sender,
) *Bot {
	return &Bot{
		config:    cfg,
		storage:   store,
		challenge: ch,
		duels:     duels,
		prompts:   pr,
		clock:     clock,
		api:       api,
		announcer: NewAnnouncer(api, cfg.ChatID, store),
		log:       logrus.WithField("component", "bot"),
	}
}

func (b *Bot) Announcer() *Announcer {
	return b.announcer
}

func (b *Bot) Register(r Router) {
	commands := map[string]func(*UpdateContext) error{
		"/start":        b.HandleStart,
		"/help":         b.HandleHelp,
		"/task":         b.HandleTask,
		"/weekly":       b.HandleWeekly,
		"/duel":         b.HandleDuel,
		"/rating":       b.HandleRating,
		"/stats":        b.HandleStats,
		"/leaderboard":  b.HandleLeaderboard,
		"/reset":        b.HandleReset,
		"/reset_scores": b.HandleResetScores,
		"/export":       b.HandleExport,
	}
	for cmd, h := range commands {
		r.Handle(cmd, b.wrap(h))
	}

	r.Handle(telebot.OnCallback, b.wrap(b.HandleCallback))
	for _, endpoint := range []string{
		telebot.OnVideo,
		telebot.OnVideoNote,
		telebot.OnPhoto,
		telebot.OnDocument,
	} {
		r.Handle(endpoint, b.wrap(b.HandleMedia))
	}
	// Plain chatter only moves the update cursor.
	r.Handle(telebot.OnText, b.wrap(func(*UpdateContext) error { return nil }))
}

// wrap gives every update its own deadline and logger, persists the update
// cursor and turns handler errors into replies.
func (b *Bot) wrap(h func(uc *UpdateContext) error) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), b.config.BotHandleTimeout)
		defer cancel()

		uc := NewUpdateContext(ctx, c)
		uc.L().Debugf("received update")

		if err := b.storage.UpdateLastUpdate(uc, c.Update().ID); err != nil {
			uc.L().Errorf("failed to update last update: %v", err)
		}

		err := h(uc)
		text, expected := replyFor(err)
		switch {
		case err == nil:
		case expected:
			uc.L().Infof("rejected: %v", err)
		default:
			uc.L().Errorf("failed to handle update: %v", err)
		}

		if c.Callback() != nil {
			resp := &telebot.CallbackResponse{}
			if text != "" {
				resp.Text = text
				resp.ShowAlert = true
			}
			if err := c.Respond(resp); err != nil {
				uc.L().Warnf("failed to answer callback: %v", err)
			}
			return nil
		}
		if text != "" {
			if err := c.Reply(text); err != nil {
				uc.L().Warnf("failed to reply: %v", err)
			}
		}
		return nil
	}
}

// reply answers in the chat of the update. Delivery failures are only logged.
func (b *Bot) reply(uc *UpdateContext, text string, opts ...interface{}) {
	opts = append(opts, telebot.ModeHTML)
	if err := uc.TC().Send(text, opts...); err != nil {
		uc.L().Warnf("failed to send reply: %v", err)
	}
}

func (b *Bot) announce(uc *UpdateContext, what string, err error) {
	if err != nil {
		uc.L().Warnf("failed to announce %s: %v", what, err)
	}
}

// ask sends a prompt message, remembers it for later cleanup and stores p as
// the user's pending prompt in ns.
func (b *Bot) ask(uc *UpdateContext, ns prompts.Namespace, p prompts.Prompt, mt models.MessageType, text string, opts ...interface{}) error {
	opts = append(opts, telebot.ModeHTML)
	msg, err := uc.Bot().Send(uc.Chat(), text, opts...)
	if err != nil {
		return fmt.Errorf("sending prompt: %w", err)
	}

	p.ChatID = uc.Chat().ID
	p.MessageID = msg.ID
	b.prompts.Put(uc.Sender().ID, ns, p)

	if err := b.storage.AddMessage(uc, &models.Message{
		ChatID:           uc.Chat().ID,
		MessageID:        strconv.Itoa(msg.ID),
		MessageType:      mt,
		AssociatedUserID: uc.Sender().ID,
		CreatedAt:        b.clock.Now().UTC(),
	}); err != nil {
		uc.L().Errorf("failed to save prompt message: %v", err)
	}
	return nil
}

// dismiss removes the user's prompt messages of type mt once the
// conversation they belong to is over.
func (b *Bot) dismiss(ctx context.Context, userID, chatID int64, mt models.MessageType) {
	msgs, err := b.storage.GetMessagesForUser(ctx, userID, chatID, mt)
	if err != nil {
		b.log.Errorf("failed to get prompt messages: %v", err)
		return
	}
	for _, msg := range msgs {
		if err := b.api.Delete(msg); err != nil {
			b.log.Warnf("failed to delete message %v: %v", msg, err)
		}
	}
	if err := b.storage.DeleteMessages(ctx, msgs); err != nil {
		b.log.Errorf("failed to delete messages: %v", err)
	}
}

// CleanStale deletes prompt messages nobody followed up on within the prompt
// lifetime.
func (b *Bot) CleanStale(ctx context.Context) {
	msgs, err := b.storage.GetMessagesOlderThan(ctx, b.clock.Now().Add(-b.config.PromptTTL))
	if err != nil {
		b.log.Errorf("failed to get messages: %v", err)
		return
	}
	if len(msgs) == 0 {
		b.log.Debug("no old messages to clean")
		return
	}

	b.log.Infof("fetched %d old messages, cleaning up", len(msgs))
	for _, msg := range msgs {
		if err := b.api.Delete(msg); err != nil {
			b.log.Warnf("failed to delete message %v: %v", msg, err)
		}
	}
	if err := b.storage.DeleteMessages(ctx, msgs); err != nil {
		b.log.Errorf("failed to delete messages: %v", err)
	}
}
