package integration

import (
	"context"

	"github.com/RubachokBoss/grading-assistant/internal/models"
	mapset "github.com/deckarep/golang-set/v2"
)

// RepositorySource lists what can be graded and who grades it.
type RepositorySource interface {
	// ListCandidateRepos returns the repositories submitted for an assignment,
	// staff repositories included.
	ListCandidateRepos(ctx context.Context, assignmentID string) ([]models.GradeeItem, error)
	// ReservedRepos returns the names of staff-owned repositories that are never graded.
	ReservedRepos(ctx context.Context) (mapset.Set[string], error)
	ListGraders(ctx context.Context) ([]models.Grader, error)
}

type DeadlineSource interface {
	LoadSchedule(ctx context.Context) (models.Schedule, error)
}
