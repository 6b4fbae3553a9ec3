// Package api serves a read-only view of the challenge over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fitbro/fitbro/internal/achievements"
	"github.com/fitbro/fitbro/internal/challenge"
	"github.com/fitbro/fitbro/internal/duel"
	"github.com/fitbro/fitbro/internal/models"
	"github.com/fitbro/fitbro/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type Service struct {
	storage   *storage.Storage
	challenge *challenge.Service
	duels     *duel.Controller
	log       *logrus.Entry
}

func NewService(store *storage.Storage, ch *challenge.Service, duels *duel.Controller) *Service {
	return &Service{
		storage:   store,
		challenge: ch,
		duels:     duels,
		log:       logrus.WithField("component", "api"),
	}
}

// NewServer builds an echo instance with every route registered.
func (s *Service) NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/healthz", s.HandleHealth())
	e.GET("/api/leaderboard", s.HandleLeaderboard())
	e.GET("/api/users/:id", s.HandleUser())
	e.GET("/api/duels/:id", s.HandleDuel())
	return e
}

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Level     int    `json:"level"`
	LevelName string `json:"level_name"`
	Active    bool   `json:"active"`
}

type UserView struct {
	LeaderboardEntry
	DayOffsLeft int      `json:"day_offs_left"`
	Done        int64    `json:"done"`
	Bonus       int64    `json:"bonus"`
	WeeklyGoals int      `json:"weekly_goals"`
	BonusStreak int      `json:"bonus_streak"`
	DuelsWon    int64    `json:"duels_won"`
	DuelsLost   int64    `json:"duels_lost"`
	DuelsDrawn  int64    `json:"duels_drawn"`
	Badges      []string `json:"badges"`
}

type DuelView struct {
	ID           string     `json:"id"`
	ChallengerID int64      `json:"challenger_id"`
	OpponentID   int64      `json:"opponent_id"`
	ArbiterID    int64      `json:"arbiter_id"`
	Week         string     `json:"week"`
	Status       string     `json:"status"`
	Result       string     `json:"result,omitempty"`
	WinnerID     *int64     `json:"winner_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

func entryFor(rank int, u *models.User) LeaderboardEntry {
	return LeaderboardEntry{
		Rank:      rank,
		ID:        u.ID,
		Name:      u.Name,
		Points:    u.Points,
		Level:     u.Level,
		LevelName: achievements.LevelName(u.Level),
		Active:    u.Active,
	}
}

func (s *Service) HandleHealth() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := s.storage.Ping(c.Request().Context()); err != nil {
			s.log.Errorf("health check failed: %v", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}

func (s *Service) HandleLeaderboard() echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := defaultLimit
		if raw := c.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive number"})
			}
			limit = min(n, maxLimit)
		}

		users, err := s.challenge.Leaderboard(c.Request().Context(), limit)
		if err != nil {
			s.log.Errorf("failed to load leaderboard: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load leaderboard"})
		}

		result := make([]LeaderboardEntry, 0, len(users))
		for i, u := range users {
			result = append(result, entryFor(i+1, u))
		}
		return c.JSON(http.StatusOK, result)
	}
}

func (s *Service) HandleUser() echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
		}

		r, err := s.challenge.Rating(c.Request().Context(), id)
		if errors.Is(err, challenge.ErrNotRegistered) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		if err != nil {
			s.log.Errorf("failed to load rating of %d: %v", id, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
		}

		badges := make([]string, 0, len(r.Badges))
		for _, b := range r.Badges {
			badges = append(badges, b.Code)
		}
		return c.JSON(http.StatusOK, UserView{
			LeaderboardEntry: entryFor(r.Rank, r.User),
			DayOffsLeft:      r.User.DayOffRemaining(),
			Done:             r.Done,
			Bonus:            r.Bonus,
			WeeklyGoals:      r.WeeklyGoals,
			BonusStreak:      r.BonusStreak,
			DuelsWon:         r.Duels.Won,
			DuelsLost:        r.Duels.Lost,
			DuelsDrawn:       r.Duels.Drawn,
			Badges:           badges,
		})
	}
}

func (s *Service) HandleDuel() echo.HandlerFunc {
	return func(c echo.Context) error {
		d, err := s.duels.Get(c.Request().Context(), c.Param("id"))
		if errors.Is(err, duel.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "duel not found"})
		}
		if err != nil {
			s.log.Errorf("failed to load duel: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load duel"})
		}

		return c.JSON(http.StatusOK, DuelView{
			ID:           d.ID,
			ChallengerID: d.ChallengerID,
			OpponentID:   d.OpponentID,
			ArbiterID:    d.ArbiterID,
			Week:         d.WeekKey,
			Status:       string(d.Status),
			Result:       string(d.Result),
			WinnerID:     d.WinnerID,
			CreatedAt:    d.CreatedAt,
			ExpiresAt:    d.ExpiresAt,
			ResolvedAt:   d.ResolvedAt,
		})
	}
}
