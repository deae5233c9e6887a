package report

import (
	"testing"
	"time"

	"github.com/RubachokBoss/grading-assistant/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCodeHelpers(t *testing.T) {
	require.Equal(t, "```ml\nTA 1:\n```", ToCodeBlock("TA 1:", "ml"))
	require.Equal(t, "```\na\n```", ToCodeBlock("a\n", ""))
	require.Equal(t, "`lab1`", ToInlineCode("lab1"))
}

func TestRenderRoll(t *testing.T) {
	entry := &models.LedgerEntry{
		AssignmentID: "lab1",
		GraderCount:  2,
		Partition: models.Partition{
			{{Name: "lab1-alice", URL: "https://github.com/course/lab1-alice"}},
			{},
		},
		RolledAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("fresh roll", func(t *testing.T) {
		out := RenderRoll(&models.RollResult{Entry: entry})

		require.Equal(t, "Grading list for `lab1`:\n"+
			"TA 1 (1):\n"+
			"lab1-alice : <https://github.com/course/lab1-alice>\n"+
			"TA 2 (0):\n", out)
	})

	t.Run("cached roll mentions when it was rolled", func(t *testing.T) {
		out := RenderRoll(&models.RollResult{Entry: entry, Cached: true})

		require.Contains(t, out, "rolled 2026-10-01T12:00:00Z")
	})

	t.Run("empty roll is called out", func(t *testing.T) {
		empty := &models.LedgerEntry{AssignmentID: "lab9", GraderCount: 3, Partition: models.Partition{{}, {}, {}}}

		out := RenderRoll(&models.RollResult{Entry: empty, NoCandidates: true})

		require.Contains(t, out, "No repositories found")
		require.Contains(t, out, "TA 3 (0):")
	})
}

func TestRenderNextDeadline(t *testing.T) {
	require.Equal(t, "No upcoming deadlines\n", RenderNextDeadline(nil))

	out := RenderNextDeadline(&models.UpcomingDeadline{
		Deadline:  models.Deadline{Name: "lab2", Due: time.Date(2026, 10, 20, 23, 59, 59, 0, time.UTC)},
		Remaining: models.TimeToDeadline{Days: 3, Hours: 2, Minutes: 1, Seconds: 0},
	})

	require.Equal(t, "Next deadline:\n```ml\nlab2 is due [2026-10-20 23:59:59+00:00], in 3d 2h 1m 0s\n```", out)
}

func TestRenderRolled(t *testing.T) {
	require.Equal(t, "No previous assignments\n", RenderRolled(nil))
	require.Equal(t, "lab1\nlab2\n", RenderRolled([]string{"lab1", "lab2"}))
}
