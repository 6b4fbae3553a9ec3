package bot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fitbro/fitbro/internal/achievements"
	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/duel"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Ann Lee", displayName(&telebot.User{ID: 1, FirstName: "Ann", LastName: "Lee", Username: "ann"}))
	require.Equal(t, "Ann", displayName(&telebot.User{ID: 1, FirstName: "Ann"}))
	require.Equal(t, "ann", displayName(&telebot.User{ID: 1, Username: "ann"}))
	require.Equal(t, "user 42", displayName(&telebot.User{ID: 42}))
}

func TestLeaderboardText(t *testing.T) {
	users := []*models.User{
		{ID: 1, Name: "<alice>", Points: 20, Active: true},
		{ID: 2, Name: "bob", Points: 12, Active: false},
	}

	text := leaderboardText(users, 2)
	require.Contains(t, text, "1. &lt;alice&gt;: 20")
	require.Contains(t, text, "<b>2. bob: 12 ❌</b>")
	require.Equal(t, "Nobody has joined yet.", leaderboardText(nil, 1))
}

func TestRatingText(t *testing.T) {
	r := &challenge.Rating{
		User:        &models.User{ID: 1, Name: "alice", Points: 25, Level: 3, Active: true},
		LevelName:   achievements.LevelName(3),
		Rank:        2,
		Done:        10,
		Bonus:       4,
		WeeklyGoals: 1,
		BonusStreak: 3,
		Duels:       &storage.DuelStats{Won: 1, Drawn: 2},
		Badges: []*models.Achievement{
			{Code: achievements.CodeFirstSweat, Name: "First Sweat"},
			{Code: achievements.CodeEarlyBird, Name: "Early Bird"},
		},
		TotalBadges: 8,
	}

	text := ratingText(r)
	require.Contains(t, text, "Level 3, Warmed-Up Guy")
	require.Contains(t, text, "Points: 25 (#2)")
	require.Contains(t, text, "Duels: 1 won, 0 lost, 2 drawn")
	require.Contains(t, text, "Badges 2/8: First Sweat, Early Bird")
	require.NotContains(t, text, "Out of the challenge")
}

func TestWeeklyKeyboardHidesDoneGoals(t *testing.T) {
	kb := weeklyKeyboard(&models.WeeklyTask{PullupsDone: true})
	require.Len(t, kb.InlineKeyboard, 1)
	require.Equal(t, string(models.SubGoalSteps), kb.InlineKeyboard[0][0].Data)

	require.Nil(t, weeklyKeyboard(&models.WeeklyTask{PullupsDone: true, StepsDone: true}))
	require.Contains(t, weeklyText(&models.WeeklyTask{PullupsDone: true, StepsDone: true}), "All done")
}

func TestAwardsText(t *testing.T) {
	u := &models.User{ID: 7, Name: "dan"}
	require.Empty(t, awardsText(u, nil))

	text := awardsText(u, []achievements.Award{
		{Code: achievements.CodeFirstSweat, Name: "First Sweat", Level: 2},
		{Code: achievements.CodeLastHero, Name: "Last Hero", Level: 3},
	})
	require.Contains(t, text, `<a href="tg://user?id=7">dan</a> earned <b>First Sweat</b>`)
	require.Contains(t, text, "Level 3: Warmed-Up Guy")
}

func TestReplyFor(t *testing.T) {
	text, expected := replyFor(nil)
	require.Empty(t, text)
	require.True(t, expected)

	text, expected = replyFor(fmt.Errorf("submitting: %w", challenge.ErrAlreadyDone))
	require.True(t, expected)
	require.Contains(t, text, "already done")

	_, expected = replyFor(duel.ErrNotArbiter)
	require.True(t, expected)
	require.True(t, isRejection(errNotAdmin))

	text, expected = replyFor(errors.New("connection reset"))
	require.False(t, expected)
	require.Equal(t, genericFailure, text)
}

func TestMediaRef(t *testing.T) {
	video := &telebot.Video{}
	video.FileID = "video"
	photo := &telebot.Photo{}
	photo.FileID = "photo"
	clip := &telebot.Document{MIME: "video/mp4"}
	clip.FileID = "clip"
	pdf := &telebot.Document{MIME: "application/pdf"}
	pdf.FileID = "pdf"

	require.Equal(t, "video", mediaRef(&telebot.Message{Video: video}))
	require.Equal(t, "photo", mediaRef(&telebot.Message{Photo: photo}))
	require.Equal(t, "clip", mediaRef(&telebot.Message{Document: clip}))
	require.Empty(t, mediaRef(&telebot.Message{Document: pdf}))
	require.Empty(t, mediaRef(&telebot.Message{Text: "hi"}))
	require.Empty(t, mediaRef(nil))
}
