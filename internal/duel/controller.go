// Package duel runs the duel state machine: a challenger calls out an
// opponent, the opponent answers with a video within the response window and
// a third user acting as arbiter decides the result.
package duel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitbro/fitbro/internal/calendar"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WeeklyLimit is how many duels a user may start per ISO week.
const WeeklyLimit = 2

var (
	ErrNotFound        = errors.New("duel not found")
	ErrInactive        = errors.New("participant is out of the challenge")
	ErrSelfDuel        = errors.New("cannot duel yourself")
	ErrSameArbiter     = errors.New("arbiter must not be a participant")
	ErrWeeklyLimit     = errors.New("weekly duel limit reached")
	ErrNoOpponents     = errors.New("no eligible opponents")
	ErrOpponentBusy    = errors.New("opponent cannot take more duels this week")
	ErrWeekClosed      = errors.New("week is over")
	ErrNotOpponent     = errors.New("only the challenged user can respond")
	ErrNotArbiter      = errors.New("only the arbiter can decide")
	ErrWrongState      = errors.New("duel is not in the expected state")
	ErrResponseExpired = errors.New("response window is over")
)

// Draft is a duel that is still being set up by the challenger. It only
// becomes a stored duel once the challenge video arrives.
type Draft struct {
	ChallengerID int64
	OpponentID   int64
	ArbiterID    int64
	WeekKey      string
}

func (d Draft) Validate() error {
	switch {
	case d.ChallengerID == d.OpponentID:
		return ErrSelfDuel
	case d.ArbiterID == d.ChallengerID || d.ArbiterID == d.OpponentID:
		return ErrSameArbiter
	}
	return nil
}

type Controller struct {
	storage *storage.Storage
	clock   *calendar.Clock
	window  time.Duration
	log     *logrus.Entry
}

func New(s *storage.Storage, clock *calendar.Clock, window time.Duration) *Controller {
	return &Controller{
		storage: s,
		clock:   clock,
		window:  window,
		log:     logrus.WithField("component", "duel"),
	}
}

// Start checks that the user may open a new duel and returns the draft along
// with the users that can be challenged.
func (c *Controller) Start(ctx context.Context, challengerID int64) (*Draft, []*models.User, error) {
	if err := c.requireActive(ctx, challengerID); err != nil {
		return nil, nil, err
	}

	week := calendar.WeekKey(c.clock.Now())
	count, err := c.storage.CountDuelsAsChallenger(ctx, challengerID, week)
	if err != nil {
		return nil, nil, err
	}
	if count >= WeeklyLimit {
		return nil, nil, ErrWeeklyLimit
	}

	opponents, err := c.storage.EligibleOpponents(ctx, challengerID, week, WeeklyLimit)
	if err != nil {
		return nil, nil, err
	}
	if len(opponents) == 0 {
		return nil, nil, ErrNoOpponents
	}
	return &Draft{ChallengerID: challengerID, WeekKey: week}, opponents, nil
}

// Arbiters lists the users who may judge a duel between the two participants.
func (c *Controller) Arbiters(ctx context.Context, challengerID, opponentID int64) ([]*models.User, error) {
	if challengerID == opponentID {
		return nil, ErrSelfDuel
	}
	return c.storage.ListActiveUsers(ctx, challengerID, opponentID)
}

// Create stores the duel once the challenge video is in. The response window
// starts now.
func (c *Controller) Create(ctx context.Context, d Draft, media string) (*models.Duel, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if !calendar.WeekOpen(d.WeekKey, now) {
		return nil, ErrWeekClosed
	}
	for _, id := range []int64{d.ChallengerID, d.OpponentID, d.ArbiterID} {
		if err := c.requireActive(ctx, id); err != nil {
			return nil, err
		}
	}

	busy, err := c.storage.CountDuelsAsChallenger(ctx, d.OpponentID, d.WeekKey)
	if err != nil {
		return nil, err
	}
	if busy >= WeeklyLimit {
		return nil, ErrOpponentBusy
	}

	duel := &models.Duel{
		ID:             uuid.NewString(),
		ChallengerID:   d.ChallengerID,
		OpponentID:     d.OpponentID,
		ArbiterID:      d.ArbiterID,
		WeekKey:        d.WeekKey,
		ChallengeMedia: media,
		Status:         models.DuelStatusAwaitingResponse,
		CreatedAt:      now.UTC(),
		ExpiresAt:      now.Add(c.window).UTC(),
	}
	if err := c.storage.CreateDuel(ctx, duel, WeeklyLimit); err != nil {
		if errors.Is(err, storage.ErrLimitReached) {
			return nil, ErrWeeklyLimit
		}
		return nil, err
	}

	c.log.Infof("created %v", duel)
	return duel, nil
}

func (c *Controller) AttachChallengeMessage(ctx context.Context, duelID string, messageID int) error {
	return c.storage.SetChallengeMessage(ctx, duelID, messageID)
}

func (c *Controller) AttachResponseMessage(ctx context.Context, duelID string, messageID int) error {
	return c.storage.SetResponseMessage(ctx, duelID, messageID)
}

func (c *Controller) Get(ctx context.Context, duelID string) (*models.Duel, error) {
	d, err := c.storage.GetDuel(ctx, duelID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return d, err
}

// PendingForOpponent returns the oldest duel the user still has to answer.
func (c *Controller) PendingForOpponent(ctx context.Context, userID int64) (*models.Duel, error) {
	d, err := c.storage.PendingDuelForOpponent(ctx, userID, c.clock.Now())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return d, err
}

// Respond records the opponent's answer video.
func (c *Controller) Respond(ctx context.Context, duelID string, userID int64, media string) (*models.Duel, error) {
	d, err := c.Get(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if d.OpponentID != userID {
		return nil, ErrNotOpponent
	}
	if d.Status != models.DuelStatusAwaitingResponse {
		return nil, ErrWrongState
	}

	now := c.clock.Now()
	if !now.Before(d.ExpiresAt) {
		return nil, ErrResponseExpired
	}
	if err := c.storage.RecordDuelResponse(ctx, duelID, userID, media, now); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrWrongState
		}
		return nil, err
	}
	return c.Get(ctx, duelID)
}

// Resolve applies the arbiter's decision.
func (c *Controller) Resolve(ctx context.Context, duelID string, userID int64, outcome models.DuelOutcome) (*models.Duel, error) {
	d, err := c.Get(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if d.ArbiterID != userID {
		return nil, ErrNotArbiter
	}
	if d.Status != models.DuelStatusAwaitingResult {
		return nil, ErrWrongState
	}

	resolved, err := c.storage.ResolveDuel(ctx, duelID, userID, outcome, c.clock.Now())
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrWrongState
		}
		return nil, err
	}

	c.log.Infof("resolved %v as %s", resolved, outcome)
	return resolved, nil
}

// ExpireOverdue closes every unanswered duel whose window has passed and
// returns the ones closed by this call.
func (c *Controller) ExpireOverdue(ctx context.Context) ([]*models.Duel, error) {
	now := c.clock.Now()
	overdue, err := c.storage.OverdueDuels(ctx, now)
	if err != nil {
		return nil, err
	}

	var expired []*models.Duel
	for _, d := range overdue {
		ok, err := c.storage.ExpireDuel(ctx, d.ID, now)
		if err != nil {
			return expired, fmt.Errorf("expiring duel %s: %w", d.ID, err)
		}
		if !ok {
			continue
		}

		d.Status = models.DuelStatusExpired
		d.Result = models.DuelOutcomeChallengerWon
		d.WinnerID = &d.ChallengerID
		expired = append(expired, d)
		c.log.Infof("expired %v", d)
	}
	return expired, nil
}

func (c *Controller) requireActive(ctx context.Context, userID int64) error {
	user, err := c.storage.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrInactive
	}
	if err != nil {
		return err
	}
	if !user.Active {
		return ErrInactive
	}
	return nil
}
