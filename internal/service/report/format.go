package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/RubachokBoss/grading-assistant/internal/models"
)

func ToCodeBlock(text, language string) string {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return fmt.Sprintf("```%s\n%s```", language, text)
}

func ToInlineCode(text string) string {
	return "`" + text + "`"
}

// RenderRoll renders a grading list. Grader labels are 1-based.
func RenderRoll(result *models.RollResult) string {
	entry := result.Entry

	var b strings.Builder
	fmt.Fprintf(&b, "Grading list for %s:\n", ToInlineCode(entry.AssignmentID))
	if result.Cached {
		fmt.Fprintf(&b, "(rolled %s, use undo to roll again)\n", entry.RolledAt.UTC().Format(time.RFC3339))
	}
	if entry.Partition.TotalItems() == 0 {
		b.WriteString("No repositories found for this assignment.\n")
	}

	for i, repos := range entry.Partition {
		fmt.Fprintf(&b, "TA %d (%d):\n", i+1, len(repos))
		for _, repo := range repos {
			fmt.Fprintf(&b, "%s : <%s>\n", repo.Name, repo.URL)
		}
	}

	return b.String()
}

func RenderRolled(assignments []string) string {
	if len(assignments) == 0 {
		return "No previous assignments\n"
	}
	return strings.Join(assignments, "\n") + "\n"
}

func RenderGraders(graders []models.Grader) string {
	if len(graders) == 0 {
		return "No TAs found\n"
	}

	var b strings.Builder
	b.WriteString("TAs:\n")
	for _, g := range graders {
		fmt.Fprintf(&b, "%s : <%s>\n", g.Login, g.URL)
	}
	return b.String()
}

// RenderNextDeadline renders the upcoming deadline, or a notice when nil.
func RenderNextDeadline(upcoming *models.UpcomingDeadline) string {
	if upcoming == nil {
		return "No upcoming deadlines\n"
	}

	line := fmt.Sprintf("%s is due [%s], in %s",
		upcoming.Deadline.Name,
		upcoming.Deadline.Due.Format("2006-01-02 15:04:05-07:00"),
		upcoming.Remaining)

	return "Next deadline:\n" + ToCodeBlock(line, "ml")
}
