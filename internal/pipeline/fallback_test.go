package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadingSections(t *testing.T) {
	t.Parallel()

	documentID := uuid.New()

	t.Run("one section per heading", func(t *testing.T) {
		t.Parallel()

		text := "# Chapter One\nIntro text.\n\n## First Topic\nDetails.\n\n### Subtopic\nMore.\n"
		sections := headingSections(documentID, text)

		require.Len(t, sections, 3)
		assert.Equal(t, "Chapter One", sections[0].Title)
		assert.Equal(t, "First Topic", sections[1].Title)
		assert.Equal(t, "Subtopic", sections[2].Title)

		for i, section := range sections {
			assert.Equal(t, i, section.Position)
			assert.Equal(t, documentID, section.DocumentID)
			assert.Equal(t, sectionID(documentID, i), section.ID)
		}
		assert.Equal(t, "heading 1", sections[0].Location)
		assert.Equal(t, "heading 3", sections[2].Location)
	})

	t.Run("no headings yields nil", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, headingSections(documentID, "plain prose with no structure"))
		assert.Nil(t, headingSections(documentID, ""))
	})

	t.Run("requires whitespace after the hash", func(t *testing.T) {
		t.Parallel()

		// A hashtag with no separating space is not a heading line.
		sections := headingSections(documentID, "#hashtag\n# Real Heading\n")
		require.Len(t, sections, 1)
		assert.Equal(t, "Real Heading", sections[0].Title)
	})

	t.Run("heading depth is capped at six", func(t *testing.T) {
		t.Parallel()

		sections := headingSections(documentID, "###### Deep\n####### Too Deep\n")
		require.Len(t, sections, 1)
		assert.Equal(t, "Deep", sections[0].Title)
	})

	t.Run("mid-line hashes are ignored", func(t *testing.T) {
		t.Parallel()

		sections := headingSections(documentID, "see issue #42 for details\n## Actual\n")
		require.Len(t, sections, 1)
		assert.Equal(t, "Actual", sections[0].Title)
	})
}
