package streak

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DayProvider supplies per-day qualifying facts for a date range. The daily
// activity domain implements it; an adapter is wired in main.
type DayProvider interface {
	DayFacts(ctx context.Context, childID uuid.UUID, from, to time.Time) ([]DayFact, error)
}

type Service struct {
	repo *Repository
	days DayProvider
}

func NewService(repo *Repository, days DayProvider) *Service {
	return &Service{repo: repo, days: days}
}

func (s *Service) ListByChild(ctx context.Context, childID uuid.UUID) ([]Streak, error) {
	return s.repo.ListByChild(ctx, childID)
}

func (s *Service) Get(ctx context.Context, childID uuid.UUID, streakType Type) (Streak, error) {
	return s.repo.Get(ctx, childID, streakType)
}

// Recompute rebuilds the room/study/sport streaks from the trailing window
// ending at asOf. asOf is treated as "today"; the walk is idempotent and can
// be retried freely.
func (s *Service) Recompute(ctx context.Context, childID uuid.UUID, asOf time.Time) error {
	asOf = truncateDay(asOf)
	from := asOf.AddDate(0, 0, -(windowDays - 1))

	facts, err := s.days.DayFacts(ctx, childID, from, asOf)
	if err != nil {
		return err
	}

	byDate := make(map[time.Time]DayFact, len(facts))
	for _, f := range facts {
		byDate[truncateDay(f.Date)] = f
	}

	room := make([]bool, 0, windowDays)
	study := make([]bool, 0, windowDays)
	sport := make([]bool, 0, windowDays)
	for d := from; !d.After(asOf); d = d.AddDate(0, 0, 1) {
		f := byDate[d]
		room = append(room, f.RoomOK)
		study = append(study, f.StudyOK)
		sport = append(sport, f.SportOK)
	}

	for streakType, days := range map[Type][]bool{
		TypeRoom:  room,
		TypeStudy: study,
		TypeSport: sport,
	} {
		current, best := Runs(days)
		if err := s.repo.Upsert(ctx, Streak{
			ChildID:      childID,
			StreakType:   streakType,
			CurrentCount: current,
			BestCount:    best,
			Active:       current > 0,
		}); err != nil {
			return err
		}
	}

	log.Debug().
		Str("child_id", childID.String()).
		Time("as_of", asOf).
		Msg("streaks recomputed")
	return nil
}

// UpdateStrongWeek recomputes the strong-week streak from an ordered series
// of finalized week outcomes (oldest first, most recent last).
func (s *Service) UpdateStrongWeek(ctx context.Context, childID uuid.UUID, strongWeeks []bool) error {
	current, best := Runs(strongWeeks)
	return s.repo.Upsert(ctx, Streak{
		ChildID:      childID,
		StreakType:   TypeStrongWeek,
		CurrentCount: current,
		BestCount:    best,
		Active:       current > 0,
	})
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
