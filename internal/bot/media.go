package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/duel"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/prompts"
	"gopkg.in/telebot.v4"
)

type mediaRoute int

const (
	routeNone mediaRoute = iota
	routeDuelChallenge
	routeDuelResponse
	routeWeekly
	routeVideo
)

// mediaRef returns the Telegram file id of an upload that can serve as proof.
func mediaRef(m *telebot.Message) string {
	switch {
	case m == nil:
		return ""
	case m.Video != nil:
		return m.Video.FileID
	case m.VideoNote != nil:
		return m.VideoNote.FileID
	case m.Photo != nil:
		return m.Photo.FileID
	case m.Document != nil && strings.HasPrefix(m.Document.MIME, "video/"):
		return m.Document.FileID
	}
	return ""
}

// route decides what an upload from userID is for. A duel draft waiting for
// its video wins, then a duel the user has to answer, then a weekly prompt
// and finally a daily one.
func (b *Bot) route(ctx context.Context, userID int64) (mediaRoute, *models.Duel, error) {
	if p, ok := b.prompts.Get(userID, prompts.NamespaceDuel); ok && p.Stage == prompts.StageAwaitingMedia {
		return routeDuelChallenge, nil, nil
	}

	pending, err := b.duels.PendingForOpponent(ctx, userID)
	switch {
	case err == nil:
		return routeDuelResponse, pending, nil
	case !errors.Is(err, duel.ErrNotFound):
		return routeNone, nil, fmt.Errorf("looking up pending duel: %w", err)
	}

	if _, ok := b.prompts.Get(userID, prompts.NamespaceWeekly); ok {
		return routeWeekly, nil, nil
	}
	if _, ok := b.prompts.Get(userID, prompts.NamespaceVideo); ok {
		return routeVideo, nil, nil
	}
	return routeNone, nil, nil
}

func (b *Bot) HandleMedia(uc *UpdateContext) error {
	media := mediaRef(uc.Message())
	if media == "" {
		uc.L().Debugf("ignoring message without usable media")
		return nil
	}

	route, pending, err := b.route(uc, uc.Sender().ID)
	if err != nil {
		return err
	}

	switch route {
	case routeDuelChallenge:
		return b.submitDuelChallenge(uc, media)
	case routeDuelResponse:
		return b.submitDuelResponse(uc, pending, media)
	case routeWeekly:
		return b.submitWeekly(uc, media)
	case routeVideo:
		return b.submitVideo(uc, media)
	}

	uc.L().Debugf("nothing pending for %d, ignoring media", uc.Sender().ID)
	return nil
}

// finish drops or releases a claimed prompt after a failed submission: a
// rejection ends the conversation, anything else lets the user retry.
func (b *Bot) finish(userID int64, ns prompts.Namespace, err error) {
	if isRejection(err) {
		b.prompts.Pop(userID, ns)
		return
	}
	b.prompts.Release(userID, ns)
}

// sourceOutsideCommunity returns the uploaded message when it has to be
// copied into the community chat.
func (b *Bot) sourceOutsideCommunity(uc *UpdateContext) telebot.Editable {
	if uc.Chat().ID == b.config.ChatID {
		return nil
	}
	return uc.Message()
}

func (b *Bot) submitDuelChallenge(uc *UpdateContext, media string) error {
	userID := uc.Sender().ID
	p, state := b.prompts.Claim(userID, prompts.NamespaceDuel)
	if state != prompts.ClaimOK {
		uc.L().Debugf("duel draft of %d is busy, ignoring upload", userID)
		return nil
	}

	d, err := b.duels.Create(uc, duel.Draft{
		ChallengerID: userID,
		OpponentID:   p.OpponentID,
		ArbiterID:    p.ArbiterID,
		WeekKey:      p.WeekKey,
	}, media)
	if err != nil {
		b.finish(userID, prompts.NamespaceDuel, err)
		return err
	}

	b.prompts.Pop(userID, prompts.NamespaceDuel)
	b.dismiss(uc, userID, p.ChatID, models.MessageTypeDuelPrompt)

	msg, err := b.announcer.DuelChallenge(uc, d, b.sourceOutsideCommunity(uc))
	b.announce(uc, "duel challenge", err)
	if msg != nil {
		if err := b.duels.AttachChallengeMessage(uc, d.ID, msg.ID); err != nil {
			uc.L().Errorf("failed to save challenge message: %v", err)
		}
	}

	b.reply(uc, "⚔️ Challenge sent!")
	return nil
}

func (b *Bot) submitDuelResponse(uc *UpdateContext, pending *models.Duel, media string) error {
	d, err := b.duels.Respond(uc, pending.ID, uc.Sender().ID, media)
	if err != nil {
		return err
	}

	msg, err := b.announcer.DuelResponse(uc, d, b.sourceOutsideCommunity(uc))
	b.announce(uc, "duel response", err)
	if msg != nil {
		if err := b.duels.AttachResponseMessage(uc, d.ID, msg.ID); err != nil {
			uc.L().Errorf("failed to save response message: %v", err)
		}
	}

	b.reply(uc, "🥊 Answer recorded, the judge decides now.")
	return nil
}

func (b *Bot) submitWeekly(uc *UpdateContext, media string) error {
	userID := uc.Sender().ID
	p, state := b.prompts.Claim(userID, prompts.NamespaceWeekly)
	switch state {
	case prompts.ClaimBusy, prompts.ClaimCompleted:
		uc.L().Debugf("duplicate weekly upload from %d, ignoring", userID)
		return nil
	case prompts.ClaimMissing:
		return nil
	}

	goal, err := models.ParseSubGoal(p.Kind)
	if err != nil {
		b.prompts.Pop(userID, prompts.NamespaceWeekly)
		return fmt.Errorf("weekly prompt of %d: %w", userID, err)
	}

	sub, err := b.challenge.SubmitWeekly(uc, userID, goal, p.WeekKey, media)
	switch {
	case errors.Is(err, challenge.ErrSubGoalDone):
		b.prompts.Complete(userID, prompts.NamespaceWeekly)
		return nil
	case err != nil:
		b.finish(userID, prompts.NamespaceWeekly, err)
		return err
	}

	b.prompts.Complete(userID, prompts.NamespaceWeekly)
	b.dismiss(uc, userID, p.ChatID, models.MessageTypeWeeklyPrompt)

	b.reply(uc, fmt.Sprintf(
		"✅ %s done! +%d, you have %d points.",
		subGoalTitles[goal],
		challenge.PointsWeeklyGoal,
		sub.User.Points,
	))
	b.announce(uc, "awards", b.announcer.Awards(uc, sub.User, sub.Awards))
	return nil
}

func (b *Bot) submitVideo(uc *UpdateContext, media string) error {
	userID := uc.Sender().ID
	p, state := b.prompts.Claim(userID, prompts.NamespaceVideo)
	if state != prompts.ClaimOK {
		uc.L().Debugf("video prompt of %d is busy, ignoring upload", userID)
		return nil
	}

	var (
		sub    *challenge.Submission
		points int
		err    error
	)
	switch p.Kind {
	case kindBonus:
		sub, err = b.challenge.SubmitBonus(uc, userID, media)
		points = challenge.PointsBonus
	default:
		sub, err = b.challenge.SubmitMain(uc, userID, media)
		points = challenge.PointsMain
	}
	if err != nil {
		b.finish(userID, prompts.NamespaceVideo, err)
		return err
	}

	b.prompts.Pop(userID, prompts.NamespaceVideo)
	b.dismiss(uc, userID, p.ChatID, models.MessageTypeVideoPrompt)

	b.reply(uc, fmt.Sprintf("💪 Counted! +%d, you have %d points.", points, sub.User.Points))
	b.announce(uc, "awards", b.announcer.Awards(uc, sub.User, sub.Awards))
	return nil
}
