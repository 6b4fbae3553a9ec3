package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/fitbro/fitbro/internal/achievements"
	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/models"
	"gopkg.in/telebot.v4"
)

const helpText = `<b>FitBro</b> keeps the community moving every day.

/task - today's task: send a video, unlock the extra task or take a day off
/weekly - weekly challenges (+5 each)
/duel - challenge someone, a third member judges
/rating - your level, points and badges
/stats - this month's numbers
/leaderboard - who is on top

Main task +2, extra task +1, a full week +5.
You get 3 day offs a month. Miss a day without one and you are out.`

func displayName(u *telebot.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case name != "":
		return name
	case u.Username != "":
		return u.Username
	}
	return "user " + strconv.FormatInt(u.ID, 10)
}

func mention(u *models.User) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.ID, html.EscapeString(u.Name))
}

func mentions(users []*models.User) string {
	parts := make([]string, 0, len(users))
	for _, u := range users {
		parts = append(parts, mention(u))
	}
	return strings.Join(parts, ", ")
}

func startText(u *models.User) string {
	return fmt.Sprintf(
		"Welcome, %s! You start with %d points and %d day offs.\n\n%s",
		mention(u),
		u.Points,
		u.DayOffRemaining(),
		helpText,
	)
}

func taskText(u *models.User, status models.TaskStatus) string {
	var state string
	switch status {
	case models.TaskStatusDone:
		state = "done ✅"
	case models.TaskStatusDayOff:
		state = "day off 🛌"
	default:
		state = "not done yet"
	}
	return fmt.Sprintf(
		"Today's task: %s\nPoints: %d, day offs left: %d",
		state,
		u.Points,
		u.DayOffRemaining(),
	)
}

var subGoalTitles = map[models.SubGoal]string{
	models.SubGoalPullups: "Pull-ups",
	models.SubGoalSteps:   "Steps",
}

func weeklyText(w *models.WeeklyTask) string {
	var sb strings.Builder
	sb.WriteString("<b>Weekly challenges</b>\n")
	for _, g := range []models.SubGoal{models.SubGoalPullups, models.SubGoalSteps} {
		mark := "⬜"
		if w.Done(g) {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, subGoalTitles[g])
	}
	if w.Complete() {
		sb.WriteString("\nAll done this week, see you on Monday.")
	}
	return sb.String()
}

func ratingText(r *challenge.Rating) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", html.EscapeString(r.User.Name))
	fmt.Fprintf(&sb, "Level %d, %s\n", r.User.Level, r.LevelName)
	fmt.Fprintf(&sb, "Points: %d (#%d)\n", r.User.Points, r.Rank)
	fmt.Fprintf(&sb, "Tasks done: %d, extra: %d, weekly challenges: %d\n", r.Done, r.Bonus, r.WeeklyGoals)
	fmt.Fprintf(&sb, "Longest extra streak: %d days\n", r.BonusStreak)
	if r.Duels != nil {
		fmt.Fprintf(&sb, "Duels: %d won, %d lost, %d drawn\n", r.Duels.Won, r.Duels.Lost, r.Duels.Drawn)
	}

	names := make([]string, 0, len(r.Badges))
	for _, b := range r.Badges {
		names = append(names, b.Name)
	}
	fmt.Fprintf(&sb, "Badges %d/%d", len(r.Badges), r.TotalBadges)
	if len(names) > 0 {
		fmt.Fprintf(&sb, ": %s", strings.Join(names, ", "))
	}
	if !r.User.Active {
		sb.WriteString("\n\nOut of the challenge ❌")
	}
	return sb.String()
}

func monthStatsText(s *challenge.MonthStats) string {
	return fmt.Sprintf(
		"<b>%s</b>, %s\nDone: %d\nExtra: %d\nDay offs: %d\nTotal days: %d",
		html.EscapeString(s.User.Name),
		s.Month,
		s.Done,
		s.Bonus,
		s.DayOff,
		s.Total(),
	)
}

func leaderboardText(users []*models.User, viewerID int64) string {
	if len(users) == 0 {
		return "Nobody has joined yet."
	}
	var sb strings.Builder
	sb.WriteString("<b>Leaderboard</b>\n")
	for i, u := range users {
		line := fmt.Sprintf("%d. %s: %d", i+1, html.EscapeString(u.Name), u.Points)
		if !u.Active {
			line += " ❌"
		}
		if u.ID == viewerID {
			line = "<b>" + line + "</b>"
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func awardsText(u *models.User, awards []achievements.Award) string {
	if len(awards) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, a := range awards {
		fmt.Fprintf(&sb, "🏅 %s earned <b>%s</b>\n", mention(u), html.EscapeString(a.Name))
	}
	last := awards[len(awards)-1]
	fmt.Fprintf(&sb, "Level %d: %s", last.Level, achievements.LevelName(last.Level))
	return sb.String()
}

func outcomeTitle(o models.DuelOutcome) string {
	switch o {
	case models.DuelOutcomeChallengerWon:
		return "Challenger wins"
	case models.DuelOutcomeOpponentWon:
		return "Opponent wins"
	case models.DuelOutcomeDraw:
		return "Draw"
	case models.DuelOutcomeCancelled:
		return "Cancel"
	}
	return string(o)
}
