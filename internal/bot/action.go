package bot

import (
	"strings"

	"github.com/fitbro/fitbro/internal/models"
	"gopkg.in/telebot.v4"
)

type CallbackAction string

const (
	CallbackActionTaskDone     CallbackAction = "task_done"
	CallbackActionTaskBonus    CallbackAction = "task_bonus"
	CallbackActionTaskDayOff   CallbackAction = "task_dayoff"
	CallbackActionWeeklyPick   CallbackAction = "weekly_pick"
	CallbackActionDuelOpponent CallbackAction = "duel_opponent"
	CallbackActionDuelArbiter  CallbackAction = "duel_arbiter"
	CallbackActionDuelResult   CallbackAction = "duel_result"
)

func (a CallbackAction) String() string {
	return string(a)
}

func (a CallbackAction) Button(m *telebot.ReplyMarkup, text string, args ...string) telebot.Btn {
	return m.Data(text, a.String(), args...)
}

// ParseCallback splits raw callback data of a button built with Button into
// its action and arguments.
func ParseCallback(data string) (CallbackAction, []string, bool) {
	if !strings.HasPrefix(data, "\f") || len(data) == 1 {
		return "", nil, false
	}
	parts := strings.Split(data[1:], "|")
	return CallbackAction(parts[0]), parts[1:], true
}

// Telegram caps callback data at 64 bytes and a duel id alone takes 36, so
// outcomes travel as one letter.
var outcomeCodes = map[string]models.DuelOutcome{
	"c": models.DuelOutcomeChallengerWon,
	"o": models.DuelOutcomeOpponentWon,
	"d": models.DuelOutcomeDraw,
	"x": models.DuelOutcomeCancelled,
}

func outcomeCode(o models.DuelOutcome) string {
	for code, outcome := range outcomeCodes {
		if outcome == o {
			return code
		}
	}
	return ""
}

func parseOutcomeCode(code string) (models.DuelOutcome, bool) {
	o, ok := outcomeCodes[code]
	return o, ok
}
