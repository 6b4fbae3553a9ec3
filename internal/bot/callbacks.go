package bot

import (
	"fmt"
	"strconv"

	"github.com/fitbro/fitbro/internal/duel"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/prompts"
)

const (
	kindMain  = "main"
	kindBonus = "bonus"
)

func (b *Bot) HandleCallback(uc *UpdateContext) error {
	action, args, ok := ParseCallback(uc.Callback().Data)
	if !ok {
		uc.L().Debugf("ignoring foreign callback")
		return nil
	}

	switch action {
	case CallbackActionTaskDone:
		return b.onTaskDone(uc)
	case CallbackActionTaskBonus:
		return b.onTaskBonus(uc)
	case CallbackActionTaskDayOff:
		return b.onTaskDayOff(uc)
	case CallbackActionWeeklyPick:
		return b.onWeeklyPick(uc, args)
	case CallbackActionDuelOpponent:
		return b.onDuelOpponent(uc, args)
	case CallbackActionDuelArbiter:
		return b.onDuelArbiter(uc, args)
	case CallbackActionDuelResult:
		return b.onDuelResult(uc, args)
	}
	return errUnknownAction
}

func (b *Bot) onTaskDone(uc *UpdateContext) error {
	if _, err := b.challenge.RequestMain(uc, uc.Sender().ID); err != nil {
		return err
	}
	return b.ask(
		uc,
		prompts.NamespaceVideo,
		prompts.Prompt{Kind: kindMain, Stage: prompts.StageAwaitingMedia},
		models.MessageTypeVideoPrompt,
		"🎥 Send the video of today's task.",
	)
}

func (b *Bot) onTaskBonus(uc *UpdateContext) error {
	pending, ok := b.prompts.Get(uc.Sender().ID, prompts.NamespaceVideo)
	mainPending := ok && pending.Kind == kindMain

	if _, err := b.challenge.RequestBonus(uc, uc.Sender().ID, mainPending); err != nil {
		return err
	}
	return b.ask(
		uc,
		prompts.NamespaceVideo,
		prompts.Prompt{Kind: kindBonus, Stage: prompts.StageAwaitingMedia},
		models.MessageTypeVideoPrompt,
		"➕ Send the video of the extra task.",
	)
}

func (b *Bot) onTaskDayOff(uc *UpdateContext) error {
	res, err := b.challenge.UseDayOff(uc, uc.Sender().ID)
	if err != nil {
		return err
	}

	if res.Granted {
		b.reply(uc, fmt.Sprintf("🛌 Day off taken. %d left this month.", res.Remaining))
		return nil
	}

	uc.L().Infof("user %d ran out of day offs", uc.Sender().ID)
	b.reply(uc, "❌ No day offs left this month. You are out of the challenge.")
	return nil
}

func (b *Bot) onWeeklyPick(uc *UpdateContext, args []string) error {
	if len(args) != 1 {
		return errBadPayload
	}
	goal, err := models.ParseSubGoal(args[0])
	if err != nil {
		return errBadPayload
	}

	week, err := b.challenge.RequestWeekly(uc, uc.Sender().ID, goal)
	if err != nil {
		return err
	}
	return b.ask(
		uc,
		prompts.NamespaceWeekly,
		prompts.Prompt{Kind: string(goal), Stage: prompts.StageAwaitingMedia, WeekKey: week},
		models.MessageTypeWeeklyPrompt,
		fmt.Sprintf("🏋️ Send the proof for <b>%s</b>.", subGoalTitles[goal]),
	)
}

func parseUserArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errBadPayload
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, errBadPayload
	}
	return id, nil
}

func (b *Bot) duelDraft(uc *UpdateContext, stage prompts.Stage) (prompts.Prompt, error) {
	p, ok := b.prompts.Get(uc.Sender().ID, prompts.NamespaceDuel)
	if !ok || p.Stage != stage {
		return prompts.Prompt{}, errNoPrompt
	}
	return p, nil
}

func (b *Bot) onDuelOpponent(uc *UpdateContext, args []string) error {
	opponentID, err := parseUserArg(args)
	if err != nil {
		return err
	}
	p, err := b.duelDraft(uc, prompts.StageChoosingOpponent)
	if err != nil {
		return err
	}

	arbiters, err := b.duels.Arbiters(uc, uc.Sender().ID, opponentID)
	if err != nil {
		return err
	}
	if len(arbiters) == 0 {
		return errNoArbiters
	}

	p.OpponentID = opponentID
	p.Stage = prompts.StageChoosingArbiter
	return b.ask(
		uc,
		prompts.NamespaceDuel,
		p,
		models.MessageTypeDuelPrompt,
		"⚖️ Who will judge the duel?",
		usersKeyboard(CallbackActionDuelArbiter, arbiters),
	)
}

func (b *Bot) onDuelArbiter(uc *UpdateContext, args []string) error {
	arbiterID, err := parseUserArg(args)
	if err != nil {
		return err
	}
	p, err := b.duelDraft(uc, prompts.StageChoosingArbiter)
	if err != nil {
		return err
	}

	draft := duel.Draft{
		ChallengerID: uc.Sender().ID,
		OpponentID:   p.OpponentID,
		ArbiterID:    arbiterID,
		WeekKey:      p.WeekKey,
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	p.ArbiterID = arbiterID
	p.Stage = prompts.StageAwaitingMedia
	return b.ask(
		uc,
		prompts.NamespaceDuel,
		p,
		models.MessageTypeDuelPrompt,
		"🎥 Now send your challenge video.",
	)
}

func (b *Bot) onDuelResult(uc *UpdateContext, args []string) error {
	if len(args) != 2 {
		return errBadPayload
	}
	outcome, ok := parseOutcomeCode(args[1])
	if !ok {
		return errBadPayload
	}

	d, err := b.duels.Resolve(uc, args[0], uc.Sender().ID, outcome)
	if err != nil {
		return err
	}

	if msg := uc.Message(); msg != nil {
		if _, err := uc.Bot().EditReplyMarkup(msg, nil); err != nil {
			uc.L().Warnf("failed to remove result buttons: %v", err)
		}
	}
	b.announce(uc, "duel result", b.announcer.DuelResolved(uc, d))
	return nil
}
