package bot

import (
	"strconv"

	"github.com/fitbro/fitbro/internal/models"
	"gopkg.in/telebot.v4"
)

func taskKeyboard() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(
		m.Row(CallbackActionTaskDone.Button(m, "✅ Done")),
		m.Row(
			CallbackActionTaskBonus.Button(m, "➕ Extra task"),
			CallbackActionTaskDayOff.Button(m, "🛌 Day off"),
		),
	)
	return m
}

// weeklyKeyboard offers the sub-goals that are still open. It is nil once
// the week is complete.
func weeklyKeyboard(w *models.WeeklyTask) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	for _, g := range []models.SubGoal{models.SubGoalPullups, models.SubGoalSteps} {
		if w.Done(g) {
			continue
		}
		rows = append(rows, m.Row(CallbackActionWeeklyPick.Button(m, subGoalTitles[g], string(g))))
	}
	if len(rows) == 0 {
		return nil
	}
	m.Inline(rows...)
	return m
}

func usersKeyboard(action CallbackAction, users []*models.User) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	btns := make([]telebot.Btn, 0, len(users))
	for _, u := range users {
		btns = append(btns, action.Button(m, u.Name, strconv.FormatInt(u.ID, 10)))
	}
	m.Inline(m.Split(2, btns)...)
	return m
}

func resultKeyboard(duelID string) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	btn := func(o models.DuelOutcome) telebot.Btn {
		return CallbackActionDuelResult.Button(m, outcomeTitle(o), duelID, outcomeCode(o))
	}
	m.Inline(
		m.Row(btn(models.DuelOutcomeChallengerWon), btn(models.DuelOutcomeOpponentWon)),
		m.Row(btn(models.DuelOutcomeDraw), btn(models.DuelOutcomeCancelled)),
	)
	return m
}
