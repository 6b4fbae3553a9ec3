package bot

import (
	"fmt"

	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/prompts"
)

func (b *Bot) HandleStart(uc *UpdateContext) error {
	user, err := b.challenge.Register(uc, uc.Sender().ID, displayName(uc.Sender()))
	if err != nil {
		return fmt.Errorf("registering user: %w", err)
	}
	uc.L().Infof("user %v started the bot", user)

	b.reply(uc, startText(user), taskKeyboard())
	return nil
}

func (b *Bot) HandleHelp(uc *UpdateContext) error {
	b.reply(uc, helpText)
	return nil
}

func (b *Bot) HandleTask(uc *UpdateContext) error {
	user, err := b.challenge.ActiveUser(uc, uc.Sender().ID)
	if err != nil {
		return err
	}
	status, err := b.challenge.TodayStatus(uc, user.ID)
	if err != nil {
		return fmt.Errorf("getting today's status: %w", err)
	}

	b.reply(uc, taskText(user, status), taskKeyboard())
	return nil
}

func (b *Bot) HandleWeekly(uc *UpdateContext) error {
	if _, err := b.challenge.ActiveUser(uc, uc.Sender().ID); err != nil {
		return err
	}
	task, err := b.challenge.WeeklyStatus(uc, uc.Sender().ID)
	if err != nil {
		return fmt.Errorf("getting weekly status: %w", err)
	}

	if kb := weeklyKeyboard(task); kb != nil {
		b.reply(uc, weeklyText(task), kb)
	} else {
		b.reply(uc, weeklyText(task))
	}
	return nil
}

func (b *Bot) HandleDuel(uc *UpdateContext) error {
	draft, opponents, err := b.duels.Start(uc, uc.Sender().ID)
	if err != nil {
		return err
	}

	return b.ask(
		uc,
		prompts.NamespaceDuel,
		prompts.Prompt{Stage: prompts.StageChoosingOpponent, WeekKey: draft.WeekKey},
		models.MessageTypeDuelPrompt,
		"⚔️ Who do you want to challenge?",
		usersKeyboard(CallbackActionDuelOpponent, opponents),
	)
}

func (b *Bot) HandleRating(uc *UpdateContext) error {
	rating, err := b.challenge.Rating(uc, uc.Sender().ID)
	if err != nil {
		return err
	}
	b.reply(uc, ratingText(rating))
	return nil
}

func (b *Bot) HandleStats(uc *UpdateContext) error {
	stats, err := b.challenge.MonthStats(uc, uc.Sender().ID)
	if err != nil {
		return err
	}
	b.reply(uc, monthStatsText(stats))
	return nil
}

func (b *Bot) HandleLeaderboard(uc *UpdateContext) error {
	users, err := b.challenge.Leaderboard(uc, leaderboardSize)
	if err != nil {
		return err
	}
	b.reply(uc, leaderboardText(users, uc.Sender().ID))
	return nil
}
