package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitbro/fitbro/internal/achievements"
	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v4"
)

// Sender is the part of telebot.API used outside of an update.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Copy(to telebot.Recipient, msg telebot.Editable, opts ...interface{}) (*telebot.Message, error)
	Delete(msg telebot.Editable) error
}

type Directory interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Announcer posts to the community chat.
type Announcer struct {
	api   Sender
	chat  *telebot.Chat
	users Directory
	log   *logrus.Entry
}

func NewAnnouncer(api Sender, chatID int64, users Directory) *Announcer {
	return &Announcer{
		api:   api,
		chat:  &telebot.Chat{ID: chatID},
		users: users,
		log:   logrus.WithField("component", "announcer"),
	}
}

func (a *Announcer) send(text string, opts ...interface{}) (*telebot.Message, error) {
	opts = append(opts, telebot.ModeHTML)
	msg, err := a.api.Send(a.chat, text, opts...)
	if err != nil {
		return nil, fmt.Errorf("sending to chat %d: %w", a.chat.ID, err)
	}
	return msg, nil
}

func (a *Announcer) name(ctx context.Context, id int64) string {
	u, err := a.users.GetUser(ctx, id)
	if err != nil {
		a.log.Warnf("looking up user %d: %v", id, err)
		return fmt.Sprintf("user %d", id)
	}
	return mention(u)
}

func (a *Announcer) MorningReminder(_ context.Context, fact string) error {
	_, err := a.send(fmt.Sprintf(
		"Good morning! New day, new reps 💪 Press /task once you are done.\n\n<i>Fact of the day:</i> %s",
		fact,
	))
	return err
}

func (a *Announcer) EveningReminder(_ context.Context, laggards []*models.User) error {
	_, err := a.send(fmt.Sprintf(
		"⏰ Two hours left. Still waiting for: %s\nDo the task or take a day off before midnight.",
		mentions(laggards),
	))
	return err
}

func (a *Announcer) MidnightReport(_ context.Context, results []challenge.SweepResult) error {
	var sb strings.Builder
	sb.WriteString("<b>Yesterday's roll call</b>\n")
	for _, r := range results {
		if r.Granted {
			fmt.Fprintf(&sb, "🛌 %s used a day off (%d left)\n", mention(r.User), r.Remaining)
		} else {
			fmt.Fprintf(&sb, "❌ %s ran out of day offs and is out\n", mention(r.User))
		}
	}
	_, err := a.send(strings.TrimSuffix(sb.String(), "\n"))
	return err
}

func (a *Announcer) WeeklyBonus(_ context.Context, users []*models.User) error {
	_, err := a.send(fmt.Sprintf(
		"🔥 Seven days out of seven! +%d to %s",
		challenge.PointsFullWeek,
		mentions(users),
	))
	return err
}

func (a *Announcer) DuelsExpired(ctx context.Context, duels []*models.Duel) error {
	var sb strings.Builder
	for _, d := range duels {
		fmt.Fprintf(
			&sb,
			"⌛ %s did not answer %s in time. Challenger +2, opponent -2\n",
			a.name(ctx, d.OpponentID),
			a.name(ctx, d.ChallengerID),
		)
	}
	_, err := a.send(strings.TrimSuffix(sb.String(), "\n"))
	return err
}

func (a *Announcer) Awards(_ context.Context, u *models.User, awards []achievements.Award) error {
	text := awardsText(u, awards)
	if text == "" {
		return nil
	}
	_, err := a.send(text)
	return err
}

// DuelChallenge announces a new duel. source is the challenge video when it
// was posted outside the community chat; it is copied there first.
func (a *Announcer) DuelChallenge(ctx context.Context, d *models.Duel, source telebot.Editable) (*telebot.Message, error) {
	if source != nil {
		if _, err := a.api.Copy(a.chat, source); err != nil {
			a.log.Warnf("copying challenge video of %v: %v", d, err)
		}
	}
	return a.send(fmt.Sprintf(
		"⚔️ %s challenges %s! Judge: %s\n%s has %d hours to answer with a video.",
		a.name(ctx, d.ChallengerID),
		a.name(ctx, d.OpponentID),
		a.name(ctx, d.ArbiterID),
		a.name(ctx, d.OpponentID),
		int(d.ExpiresAt.Sub(d.CreatedAt).Hours()),
	))
}

// DuelResponse asks the arbiter for a decision.
func (a *Announcer) DuelResponse(ctx context.Context, d *models.Duel, source telebot.Editable) (*telebot.Message, error) {
	if source != nil {
		if _, err := a.api.Copy(a.chat, source); err != nil {
			a.log.Warnf("copying response video of %v: %v", d, err)
		}
	}
	return a.send(
		fmt.Sprintf(
			"🥊 %s answered %s. %s, your call!",
			a.name(ctx, d.OpponentID),
			a.name(ctx, d.ChallengerID),
			a.name(ctx, d.ArbiterID),
		),
		resultKeyboard(d.ID),
	)
}

func (a *Announcer) DuelResolved(ctx context.Context, d *models.Duel) error {
	challenger := a.name(ctx, d.ChallengerID)
	opponent := a.name(ctx, d.OpponentID)

	var text string
	switch d.Result {
	case models.DuelOutcomeChallengerWon:
		text = fmt.Sprintf("🏆 %s beats %s. +2 / -2", challenger, opponent)
	case models.DuelOutcomeOpponentWon:
		text = fmt.Sprintf("🏆 %s beats %s. +2 / -2", opponent, challenger)
	case models.DuelOutcomeDraw:
		text = fmt.Sprintf("🤝 %s and %s draw. +1 each", challenger, opponent)
	default:
		text = fmt.Sprintf("The duel between %s and %s was cancelled.", challenger, opponent)
	}
	_, err := a.send(text)
	return err
}
