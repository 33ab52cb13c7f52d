package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

func TestStudentSummary(t *testing.T) {
	t.Parallel()

	t.Run("no misconceptions", func(t *testing.T) {
		t.Parallel()

		summary := StudentSummary(nil)
		assert.Contains(t, summary, "Great work")
	})

	t.Run("lists concepts and leads with the first correction", func(t *testing.T) {
		t.Parallel()

		summary := StudentSummary([]domain.Misconception{
			{
				Concept:     "recursion",
				Description: "Confuses base case with recursive case",
				Severity:    domain.SeverityHigh,
				Correction:  "The base case is the input the function answers without calling itself.",
			},
			{
				Concept:     "stack frames",
				Description: "Thinks all calls share one set of locals",
				Severity:    domain.SeverityMedium,
			},
		})

		assert.Contains(t, summary, "2 area(s)")
		assert.Contains(t, summary, "recursion, stack frames")
		assert.Contains(t, summary, "Start with recursion:")
		assert.Contains(t, summary, "without calling itself")
	})

	t.Run("deduplicates repeated concepts", func(t *testing.T) {
		t.Parallel()

		summary := StudentSummary([]domain.Misconception{
			{Concept: "recursion", Description: "one"},
			{Concept: "recursion", Description: "two"},
		})

		assert.Contains(t, summary, "2 area(s)")
		assert.Contains(t, summary, "reviewing: recursion.")
	})

	t.Run("blank concepts fall back to generic wording", func(t *testing.T) {
		t.Parallel()

		summary := StudentSummary([]domain.Misconception{
			{Concept: "  ", Description: "unclear", Correction: "Review the chapter."},
		})

		assert.Contains(t, summary, "the covered material")
		assert.Contains(t, summary, "Start with the first one:")
	})
}

func TestTeacherSummary(t *testing.T) {
	t.Parallel()

	t.Run("nil analysis", func(t *testing.T) {
		t.Parallel()

		assert.Contains(t, TeacherSummary(nil), "No misconceptions detected")
	})

	t.Run("empty analysis", func(t *testing.T) {
		t.Parallel()

		m, err := domain.NewStudentMisconception(
			uuid.New(), uuid.New(), "node-1", nil, "",
		)
		require.NoError(t, err)

		assert.Contains(t, TeacherSummary(m), "No misconceptions detected")
	})

	t.Run("flags high severity count", func(t *testing.T) {
		t.Parallel()

		m, err := domain.NewStudentMisconception(
			uuid.New(), uuid.New(), "node-1",
			[]domain.Misconception{
				{Concept: "pointers", Description: "a", Severity: domain.SeverityHigh},
				{Concept: "slices", Description: "b", Severity: domain.SeverityHigh},
				{Concept: "maps", Description: "c", Severity: domain.SeverityLow},
			},
			"",
		)
		require.NoError(t, err)

		summary := TeacherSummary(m)
		assert.Contains(t, summary, "3 misconception(s)")
		assert.Contains(t, summary, "pointers, slices, maps")
		assert.Contains(t, summary, "2 of them are high severity")
	})

	t.Run("no severity note when nothing is high", func(t *testing.T) {
		t.Parallel()

		m, err := domain.NewStudentMisconception(
			uuid.New(), uuid.New(), "node-1",
			[]domain.Misconception{
				{Concept: "pointers", Description: "a", Severity: domain.SeverityMedium},
			},
			"",
		)
		require.NoError(t, err)

		assert.NotContains(t, TeacherSummary(m), "high severity")
	})
}
