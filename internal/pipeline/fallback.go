package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

// headingPattern matches markdown-style heading lines.
var headingPattern = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(\S.*)$`)

// headingSections synthesizes one section per heading line in the raw text.
// This is the degraded path when the generative service cannot produce a
// parseable section list; titles come straight from the headings, so the
// result is structurally usable even without concepts or descriptions.
func headingSections(documentID uuid.UUID, text string) []domain.Section {
	matches := headingPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	sections := make([]domain.Section, 0, len(matches))
	for i, m := range matches {
		sections = append(sections, domain.Section{
			ID:         sectionID(documentID, i),
			DocumentID: documentID,
			Position:   i,
			Title:      strings.TrimSpace(m[1]),
			Location:   fmt.Sprintf("heading %d", i+1),
		})
	}
	return sections
}
