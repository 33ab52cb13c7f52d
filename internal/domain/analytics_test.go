package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

func TestNormalizeSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want domain.Severity
	}{
		{"low", domain.SeverityLow},
		{"LOW", domain.SeverityLow},
		{" high ", domain.SeverityHigh},
		{"medium", domain.SeverityMedium},
		{"critical", domain.SeverityMedium},
		{"", domain.SeverityMedium},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, domain.NormalizeSeverity(tc.raw), "raw %q", tc.raw)
	}
}

func TestAnalyticsRecordValidate(t *testing.T) {
	t.Parallel()

	record := &domain.AnalyticsRecord{
		DocumentID: uuid.New(),
		SectionID:  "3f2a1b4c-sec-1",
	}
	assert.NoError(t, record.Validate())

	record.SectionID = ""
	assert.ErrorIs(t, record.Validate(), domain.ErrAnalyticsSectionIDEmpty)

	record.SectionID = "3f2a1b4c-sec-1"
	record.DocumentID = uuid.Nil
	assert.ErrorIs(t, record.Validate(), domain.ErrAnalyticsDocumentIDEmpty)
}

func TestNewStudentMisconception(t *testing.T) {
	t.Parallel()

	studentID := uuid.New()
	activityID := uuid.New()

	t.Run("creates a valid analysis row", func(t *testing.T) {
		t.Parallel()

		m, err := domain.NewStudentMisconception(studentID, activityID, "node-7",
			[]domain.Misconception{
				{Concept: "recursion", Description: "confuses base case with loop exit", Severity: domain.SeverityHigh},
			},
			"struggles with recursion fundamentals")
		assert.NoError(t, err)
		assert.Equal(t, "node-7", m.NodeID)
		assert.Len(t, m.Misconceptions, 1)
	})

	t.Run("rejects empty node ID", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewStudentMisconception(studentID, activityID, "", nil, "")
		assert.ErrorIs(t, err, domain.ErrStudentMisconceptionKeyEmpty)
	})

	t.Run("rejects nil student", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewStudentMisconception(uuid.Nil, activityID, "node-7", nil, "")
		assert.ErrorIs(t, err, domain.ErrStudentMisconceptionKeyEmpty)
	})
}

func TestNewNotification(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	documentID := uuid.New()

	t.Run("creates a valid notification", func(t *testing.T) {
		t.Parallel()

		n, err := domain.NewNotification(userID, documentID,
			domain.NotificationKindProcessingCompleted, "Your document finished processing")
		assert.NoError(t, err)
		assert.Equal(t, userID, n.UserID)
		assert.Equal(t, documentID, n.DocumentID)
		assert.Equal(t, domain.NotificationKindProcessingCompleted, n.Kind)
	})

	t.Run("rejects empty message", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewNotification(userID, documentID,
			domain.NotificationKindProcessingFailed, "")
		assert.ErrorIs(t, err, domain.ErrNotificationMessageEmpty)
	})

	t.Run("rejects nil addressee", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewNotification(uuid.Nil, documentID,
			domain.NotificationKindProcessingFailed, "failed")
		assert.ErrorIs(t, err, domain.ErrNotificationUserIDEmpty)
	})
}
