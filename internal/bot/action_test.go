package bot

import (
	"testing"

	"github.com/fitbro/fitbro/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

func callbackData(btn telebot.Btn) string {
	if btn.Data == "" {
		return "\f" + btn.Unique
	}
	return "\f" + btn.Unique + "|" + btn.Data
}

func TestParseCallback(t *testing.T) {
	m := &telebot.ReplyMarkup{}

	for _, tc := range []struct {
		name   string
		btn    telebot.Btn
		action CallbackAction
		args   []string
	}{
		{"no args", CallbackActionTaskDone.Button(m, "Done"), CallbackActionTaskDone, []string{}},
		{"one arg", CallbackActionWeeklyPick.Button(m, "Steps", "steps"), CallbackActionWeeklyPick, []string{"steps"}},
		{"two args", CallbackActionDuelResult.Button(m, "Draw", "abc", "d"), CallbackActionDuelResult, []string{"abc", "d"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data := callbackData(tc.btn)
			action, args, ok := ParseCallback(data)
			require.True(t, ok)
			require.Equal(t, tc.action, action)
			require.Equal(t, tc.args, args)
		})
	}

	_, _, ok := ParseCallback("plain text")
	require.False(t, ok)
	_, _, ok = ParseCallback("\f")
	require.False(t, ok)
	action, _, ok := ParseCallback("\ftask_done_later")
	require.True(t, ok)
	require.NotEqual(t, CallbackActionTaskDone, action)
}

func TestResultButtonsFitTelegramLimit(t *testing.T) {
	kb := resultKeyboard(uuid.NewString())
	require.Len(t, kb.InlineKeyboard, 2)

	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			require.LessOrEqual(t, len("\f"+btn.Unique+"|"+btn.Data), 64)
		}
	}
}

func TestOutcomeCodes(t *testing.T) {
	for _, o := range []models.DuelOutcome{
		models.DuelOutcomeChallengerWon,
		models.DuelOutcomeOpponentWon,
		models.DuelOutcomeDraw,
		models.DuelOutcomeCancelled,
	} {
		code := outcomeCode(o)
		require.Len(t, code, 1)

		parsed, ok := parseOutcomeCode(code)
		require.True(t, ok)
		require.Equal(t, o, parsed)
	}

	_, ok := parseOutcomeCode("challenger_won")
	require.False(t, ok)
}
