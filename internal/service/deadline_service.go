package service

import (
	"context"
	"fmt"
	"time"

	"github.com/RubachokBoss/grading-assistant/internal/models"
	"github.com/RubachokBoss/grading-assistant/internal/service/integration"
	"github.com/rs/zerolog"
)

// NextDeadline picks the earliest deadline strictly after now. Equal
// timestamps are ordered by name. ok is false when nothing is upcoming.
func NextDeadline(schedule models.Schedule, now time.Time) (next models.Deadline, ok bool) {
	for name, due := range schedule {
		if !due.After(now) {
			continue
		}
		if !ok || due.Before(next.Due) || (due.Equal(next.Due) && name < next.Name) {
			next = models.Deadline{Name: name, Due: due}
			ok = true
		}
	}
	return next, ok
}

// TimeTo returns the time left until deadline. It fails with ErrPastDeadline
// unless the deadline is strictly after now.
func TimeTo(deadline models.Deadline, now time.Time) (models.TimeToDeadline, error) {
	if !deadline.Due.After(now) {
		return models.TimeToDeadline{}, fmt.Errorf("%w: %s was due %s",
			models.ErrPastDeadline, deadline.Name, deadline.Due.Format(time.RFC3339))
	}
	return models.NewTimeToDeadline(deadline.Due.Sub(now)), nil
}

type DeadlineService interface {
	// Next returns nil when no deadline in the schedule is still ahead.
	Next(ctx context.Context) (*models.UpcomingDeadline, error)
}

type deadlineService struct {
	source integration.DeadlineSource
	now    func() time.Time
	logger zerolog.Logger
}

func NewDeadlineService(source integration.DeadlineSource, logger zerolog.Logger) DeadlineService {
	return &deadlineService{
		source: source,
		now:    time.Now,
		logger: logger,
	}
}

func (s *deadlineService) Next(ctx context.Context) (*models.UpcomingDeadline, error) {
	schedule, err := s.source.LoadSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load deadline schedule: %w", err)
	}

	now := s.now()
	next, ok := NextDeadline(schedule, now)
	if !ok {
		s.logger.Debug().Int("deadlines", len(schedule)).Msg("No upcoming deadline")
		return nil, nil
	}

	remaining, err := TimeTo(next, now)
	if err != nil {
		return nil, err
	}

	return &models.UpcomingDeadline{Deadline: next, Remaining: remaining}, nil
}
