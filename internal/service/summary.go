package service

import (
	"fmt"
	"strings"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

// StudentSummary composes a student-facing sentence over normalized
// misconceptions. Summaries are assembled from the data, not generated, so
// they stay deterministic and cost nothing.
func StudentSummary(misconceptions []domain.Misconception) string {
	if len(misconceptions) == 0 {
		return "Great work! Your answers did not show any common misconceptions."
	}

	concepts := conceptList(misconceptions)
	lead := fmt.Sprintf(
		"Your answers suggest %d area(s) worth reviewing: %s.",
		len(misconceptions), concepts,
	)

	first := misconceptions[0]
	advice := ""
	if first.Correction != "" {
		advice = fmt.Sprintf(" Start with %s: %s", orConcept(first), first.Correction)
	}

	return lead + advice
}

// TeacherSummary composes a teacher-facing overview of one student's
// misconception analysis.
func TeacherSummary(m *domain.StudentMisconception) string {
	if m == nil || len(m.Misconceptions) == 0 {
		return "No misconceptions detected in this student's responses."
	}

	high := 0
	for _, mc := range m.Misconceptions {
		if mc.Severity == domain.SeverityHigh {
			high++
		}
	}

	summary := fmt.Sprintf(
		"%d misconception(s) detected across %s.",
		len(m.Misconceptions), conceptList(m.Misconceptions),
	)
	if high > 0 {
		summary += fmt.Sprintf(" %d of them are high severity and may need direct intervention.", high)
	}
	return summary
}

func conceptList(misconceptions []domain.Misconception) string {
	seen := make(map[string]bool)
	concepts := make([]string, 0, len(misconceptions))
	for _, m := range misconceptions {
		c := strings.TrimSpace(m.Concept)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		concepts = append(concepts, c)
	}
	if len(concepts) == 0 {
		return "the covered material"
	}
	return strings.Join(concepts, ", ")
}

func orConcept(m domain.Misconception) string {
	if strings.TrimSpace(m.Concept) != "" {
		return m.Concept
	}
	return "the first one"
}
