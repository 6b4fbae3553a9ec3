package bot

import (
	"errors"

	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/duel"
)

var (
	errNotAdmin      = errors.New("admin only")
	errNeedConfirm   = errors.New("confirmation required")
	errNoPrompt      = errors.New("nothing pending for this button")
	errBadPayload    = errors.New("malformed callback payload")
	errNoArbiters    = errors.New("no one left to judge")
	errUnknownAction = errors.New("unknown callback action")
)

const genericFailure = "Something went wrong, please try again later."

var replies = []struct {
	err  error
	text string
}{
	{challenge.ErrNotRegistered, "Send /start to join the challenge first."},
	{challenge.ErrInactive, "You are out of the challenge. Wait for the next season."},
	{challenge.ErrAlreadyDone, "Today's task is already done 💪"},
	{challenge.ErrDayOffToday, "You are on a day off today."},
	{challenge.ErrMainNotDone, "Finish the main task first, the extra one unlocks after it."},
	{challenge.ErrBonusAwarded, "The extra task is already counted for today."},
	{challenge.ErrSubGoalDone, "This weekly challenge is already done."},
	{challenge.ErrWeekClosed, "That week is already over."},
	{challenge.ErrMainPromptActive, "Send the main task video first."},

	{duel.ErrNotFound, "This duel does not exist anymore."},
	{duel.ErrInactive, "Everyone in a duel has to be in the challenge."},
	{duel.ErrSelfDuel, "You cannot duel yourself."},
	{duel.ErrSameArbiter, "The judge cannot be one of the fighters."},
	{duel.ErrWeeklyLimit, "You have used both duels of this week."},
	{duel.ErrNoOpponents, "Nobody can take a duel right now."},
	{duel.ErrOpponentBusy, "Your opponent has no duels left this week."},
	{duel.ErrWeekClosed, "That week is already over, start a new duel."},
	{duel.ErrNotOpponent, "Only the challenged user can answer."},
	{duel.ErrNotArbiter, "Only the judge can decide this duel."},
	{duel.ErrWrongState, "This duel has already moved on."},
	{duel.ErrResponseExpired, "Too late, the answer window is over."},

	{errNotAdmin, "Only admins can do that."},
	{errNeedConfirm, "Add \"confirm\" to the command if you really mean it."},
	{errNoPrompt, "This button has expired, start over."},
	{errBadPayload, "This button has expired, start over."},
	{errNoArbiters, "There is nobody left to judge the duel."},
	{errUnknownAction, "This button has expired, start over."},
}

// replyFor maps a handler error to the text shown to the user. expected is
// false for failures the user cannot do anything about.
func replyFor(err error) (text string, expected bool) {
	if err == nil {
		return "", true
	}
	for _, r := range replies {
		if errors.Is(err, r.err) {
			return r.text, true
		}
	}
	return genericFailure, false
}

func isRejection(err error) bool {
	_, expected := replyFor(err)
	return expected
}
