package partition

import (
	"fmt"
	"math/rand/v2"

	"github.com/RubachokBoss/grading-assistant/internal/models"
)

// Distribute shuffles items and splits them across graderCount graders so that
// partition sizes differ by at most one.
//
// Every grader first receives a contiguous slice of len(items)/graderCount
// items. The leftover items are then taken from the end of the shuffled list
// and handed out one each to graders 0, 1, ... in order.
//
// The input slice is not modified. An empty input yields graderCount empty lists.
func Distribute(items []models.GradeeItem, graderCount int) (models.Partition, error) {
	if graderCount <= 0 {
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidGraderCount, graderCount)
	}

	shuffled := make([]models.GradeeItem, len(items))
	copy(shuffled, items)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	base := len(shuffled) / graderCount
	leftover := len(shuffled) % graderCount

	result := make(models.Partition, graderCount)
	for grader := 0; grader < graderCount; grader++ {
		size := base
		if grader < leftover {
			size++
		}
		result[grader] = make([]models.GradeeItem, 0, size)
		result[grader] = append(result[grader], shuffled[grader*base:grader*base+base]...)
	}

	remaining := shuffled[graderCount*base:]
	for i := 0; i < leftover; i++ {
		last := len(remaining) - 1
		result[i%graderCount] = append(result[i%graderCount], remaining[last])
		remaining = remaining[:last]
	}

	return result, nil
}
