package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RubachokBoss/grading-assistant/internal/models"
	"github.com/RubachokBoss/grading-assistant/internal/repository"
	"github.com/RubachokBoss/grading-assistant/internal/service/integration"
	"github.com/RubachokBoss/grading-assistant/internal/service/partition"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxGraders caps a roll when no limit is configured.
const DefaultMaxGraders = 20

type GradingService interface {
	// RollAssignment returns the stored grading list for assignmentID, or rolls,
	// stores and returns a new one when none exists. graderCount is only used
	// for a fresh roll and must be between 1 and the configured maximum.
	RollAssignment(ctx context.Context, assignmentID string, graderCount int) (*models.RollResult, error)
	GetRoll(ctx context.Context, assignmentID string) (*models.LedgerEntry, bool)
	UndoOne(ctx context.Context, assignmentID string) error
	UndoAll(ctx context.Context) error
	ListRolled(ctx context.Context) []string
	ListGraders(ctx context.Context) ([]models.Grader, error)
}

// gradingService is the only writer of the ledger in this process. mu keeps
// the check-then-write of a roll and the undo operations from interleaving.
type gradingService struct {
	mu         sync.Mutex
	ledger     repository.LedgerRepository
	source     integration.RepositorySource
	publisher  integration.EventPublisher
	maxGraders int
	now        func() time.Time
	logger     zerolog.Logger
}

func NewGradingService(
	ledger repository.LedgerRepository,
	source integration.RepositorySource,
	publisher integration.EventPublisher,
	maxGraders int,
	logger zerolog.Logger,
) GradingService {
	if publisher == nil {
		publisher = integration.NewNopPublisher()
	}
	if maxGraders < 1 {
		maxGraders = DefaultMaxGraders
	}

	return &gradingService{
		ledger:     ledger,
		source:     source,
		publisher:  publisher,
		maxGraders: maxGraders,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *gradingService) RollAssignment(ctx context.Context, assignmentID string, graderCount int) (*models.RollResult, error) {
	assignmentID = strings.TrimSpace(assignmentID)
	if assignmentID == "" {
		return nil, models.ErrAssignmentRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.ledger.Get(ctx, assignmentID); ok {
		s.logger.Debug().Str("assignment", assignmentID).Msg("Returning stored grading list")
		return &models.RollResult{Entry: entry, Cached: true}, nil
	}

	if graderCount < 1 || graderCount > s.maxGraders {
		return nil, fmt.Errorf("%w: got %d, allowed 1..%d", models.ErrInvalidGraderCount, graderCount, s.maxGraders)
	}

	candidates, err := s.fetchCandidates(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	parts, err := partition.Distribute(candidates, graderCount)
	if err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		AssignmentID: assignmentID,
		RollID:       uuid.New().String(),
		GraderCount:  graderCount,
		Partition:    parts,
		RolledAt:     s.now().UTC().Truncate(time.Second),
	}

	if err := s.ledger.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to store grading list: %w", err)
	}

	s.logger.Info().
		Str("assignment", assignmentID).
		Str("roll_id", entry.RollID).
		Int("graders", graderCount).
		Int("repositories", len(candidates)).
		Ints("sizes", parts.Sizes()).
		Msg("Grading list rolled")

	s.publish(ctx, &models.GradingEvent{
		Type:         models.GradingEventRolled,
		AssignmentID: assignmentID,
		RollID:       entry.RollID,
		GraderCount:  graderCount,
		Repositories: len(candidates),
	})

	return &models.RollResult{Entry: entry, NoCandidates: len(candidates) == 0}, nil
}

// fetchCandidates loads the assignment's repositories and the reserved set in
// parallel and drops reserved names.
func (s *gradingService) fetchCandidates(ctx context.Context, assignmentID string) ([]models.GradeeItem, error) {
	var (
		repos    []models.GradeeItem
		reserved mapset.Set[string]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		repos, err = s.source.ListCandidateRepos(gctx, assignmentID)
		return err
	})
	g.Go(func() error {
		var err error
		reserved, err = s.source.ReservedRepos(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch repositories for %s: %w", assignmentID, err)
	}

	candidates := make([]models.GradeeItem, 0, len(repos))
	for _, repo := range repos {
		if reserved != nil && reserved.Contains(repo.Name) {
			continue
		}
		candidates = append(candidates, repo)
	}

	if len(candidates) == 0 {
		s.logger.Warn().Str("assignment", assignmentID).Msg("No candidate repositories found")
	}

	return candidates, nil
}

func (s *gradingService) GetRoll(ctx context.Context, assignmentID string) (*models.LedgerEntry, bool) {
	return s.ledger.Get(ctx, strings.TrimSpace(assignmentID))
}

func (s *gradingService) UndoOne(ctx context.Context, assignmentID string) error {
	assignmentID = strings.TrimSpace(assignmentID)
	if assignmentID == "" {
		return models.ErrAssignmentRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.ledger.Get(ctx, assignmentID)
	if err := s.ledger.Remove(ctx, assignmentID); err != nil {
		return fmt.Errorf("failed to remove grading list: %w", err)
	}
	if !existed {
		return nil
	}

	s.logger.Info().Str("assignment", assignmentID).Msg("Grading list removed")
	s.publish(ctx, &models.GradingEvent{
		Type:         models.GradingEventUndone,
		AssignmentID: assignmentID,
	})

	return nil
}

func (s *gradingService) UndoAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.ledger.Keys(ctx))
	if err := s.ledger.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear grading lists: %w", err)
	}

	s.logger.Info().Int("removed", removed).Msg("All grading lists removed")
	s.publish(ctx, &models.GradingEvent{Type: models.GradingEventCleared})

	return nil
}

func (s *gradingService) ListRolled(ctx context.Context) []string {
	return s.ledger.Keys(ctx)
}

func (s *gradingService) ListGraders(ctx context.Context) ([]models.Grader, error) {
	graders, err := s.source.ListGraders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list graders: %w", err)
	}
	return graders, nil
}

// publish never fails the caller: the ledger is already written.
func (s *gradingService) publish(ctx context.Context, event *models.GradingEvent) {
	event.EventID = uuid.New().String()
	event.Timestamp = s.now().Unix()

	if err := s.publisher.PublishGradingEvent(ctx, event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("type", event.Type.String()).
			Str("assignment", event.AssignmentID).
			Msg("Failed to publish grading event")
	}
}
