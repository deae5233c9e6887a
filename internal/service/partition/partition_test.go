package partition

import (
	"fmt"
	"sort"
	"testing"

	"github.com/RubachokBoss/grading-assistant/internal/models"
	"github.com/stretchr/testify/require"
)

func makeRepos(n int) []models.GradeeItem {
	repos := make([]models.GradeeItem, n)
	for i := range repos {
		name := fmt.Sprintf("lab1-student%02d", i)
		repos[i] = models.GradeeItem{Name: name, URL: "https://github.com/course/" + name}
	}
	return repos
}

func sortedNames(items []models.GradeeItem) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	sort.Strings(names)
	return names
}

func TestDistribute(t *testing.T) {
	t.Run("13 repositories across 4 graders", func(t *testing.T) {
		result, err := Distribute(makeRepos(13), 4)

		require.NoError(t, err)
		require.Equal(t, []int{4, 3, 3, 3}, result.Sizes())
		require.Equal(t, 13, result.TotalItems())
	})

	t.Run("empty input gives empty lists", func(t *testing.T) {
		result, err := Distribute(nil, 3)

		require.NoError(t, err)
		require.Len(t, result, 3)
		for _, items := range result {
			require.NotNil(t, items)
			require.Empty(t, items)
		}
	})

	t.Run("fewer repositories than graders", func(t *testing.T) {
		result, err := Distribute(makeRepos(2), 5)

		require.NoError(t, err)
		require.Equal(t, []int{1, 1, 0, 0, 0}, result.Sizes())
	})

	t.Run("rejects non-positive grader count", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			_, err := Distribute(makeRepos(3), n)
			require.ErrorIs(t, err, models.ErrInvalidGraderCount)
		}
	})

	t.Run("does not modify input", func(t *testing.T) {
		repos := makeRepos(10)
		original := make([]models.GradeeItem, len(repos))
		copy(original, repos)

		_, err := Distribute(repos, 3)

		require.NoError(t, err)
		require.Equal(t, original, repos)
	})
}

func TestDistribute_Fairness(t *testing.T) {
	for m := 0; m <= 40; m++ {
		for n := 1; n <= 7; n++ {
			repos := makeRepos(m)
			result, err := Distribute(repos, n)
			require.NoError(t, err)
			require.Len(t, result, n)

			minSize, maxSize := m, 0
			larger := 0
			var all []models.GradeeItem
			for _, items := range result {
				minSize = min(minSize, len(items))
				maxSize = max(maxSize, len(items))
				if len(items) == m/n+1 {
					larger++
				}
				all = append(all, items...)
			}

			require.LessOrEqual(t, maxSize-minSize, 1, "m=%d n=%d", m, n)
			require.Equal(t, m%n, larger, "m=%d n=%d", m, n)
			require.Equal(t, sortedNames(repos), sortedNames(all), "m=%d n=%d", m, n)
		}
	}
}
