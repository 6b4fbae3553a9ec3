package achievements

import "github.com/fitbro/fitbro/internal/models"

const (
	CodeFirstSweat        = "first_sweat"
	CodeEarlyBird         = "early_bird"
	CodeDoubleStrike      = "double_strike"
	CodeExtraHuman        = "extra_human"
	CodeFullSet           = "full_set"
	CodeFinalBoss         = "final_boss"
	CodeLastHero          = "last_hero"
	CodeSpecialInvitation = "special_invitation"
)

var catalog = []*models.Achievement{
	{Code: CodeFirstSweat, Name: "First Sweat", Description: "Completed the main task for the first time"},
	{Code: CodeEarlyBird, Name: "Early Bird", Description: "Finished the main task before 9:00 three days in a row"},
	{Code: CodeDoubleStrike, Name: "Double Strike", Description: "Did both the main and the extra task three days in a row"},
	{Code: CodeExtraHuman, Name: "Extra Human", Description: "Did the extra task seven days in a row"},
	{Code: CodeFullSet, Name: "Full Set", Description: "Seven double days in a row plus both weekly challenges"},
	{Code: CodeFinalBoss, Name: "Final Boss", Description: "Did the main and the extra task 25 days in a row"},
	{Code: CodeLastHero, Name: "Last Hero", Description: "Finished the main task at 23:59"},
	{Code: CodeSpecialInvitation, Name: "Special Invitation", Description: "Finished a task after the evening reminder (22:00)"},
}

var levelNames = [models.MaxLevel]string{
	"Floor Intern",
	"Half-Pusher",
	"Warmed-Up Guy",
	"Elbow Technician",
	"Confident Pusher",
	"Workhorse",
	"Master of Surface Contact",
	"Grandmaster",
	"Legend of the Local Floor",
}

// Catalog returns a copy of every badge definition.
func Catalog() []*models.Achievement {
	result := make([]*models.Achievement, 0, len(catalog))
	for _, a := range catalog {
		c := *a
		result = append(result, &c)
	}
	return result
}

func Lookup(code string) (*models.Achievement, bool) {
	for _, a := range catalog {
		if a.Code == code {
			c := *a
			return &c, true
		}
	}
	return nil, false
}

// LevelName clamps level into 1..9.
func LevelName(level int) string {
	level = min(max(level, 1), models.MaxLevel)
	return levelNames[level-1]
}
