package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRemovesInjectedArtifacts(t *testing.T) {
	paragraphs := []string{
		"The cards favour patience this week.",
		"A conversation you have been avoiding will go better than you fear.",
		"Wear something blue on Thursday.",
	}
	for i, artifact := range KnownArtifacts {
		t.Run(fmt.Sprintf("artifact_%d", i), func(t *testing.T) {
			raw := artifact + "\n" + paragraphs[0] + " " + artifact + "\n\n\n\n\n" +
				paragraphs[1] + "\n\n\n\n" + artifact + "\n\n\n\n" + paragraphs[2] + "\n" + artifact

			got := Clean(raw)

			for _, a := range KnownArtifacts {
				assert.NotContains(t, got, a)
			}
			assert.NotContains(t, got, "\n\n\n\n")
			for _, p := range paragraphs {
				assert.Contains(t, got, p)
			}
			assert.Equal(t, strings.TrimSpace(got), got)
		})
	}
}

func TestCleanCollapsesNewlinesToExactlyThree(t *testing.T) {
	assert.Equal(t, "a\n\n\nb", Clean("a\n\n\n\n\n\n\nb"))
	assert.Equal(t, "a\n\n\nb", Clean("a\n\n\n\nb"))
	assert.Equal(t, "a\n\n\nb", Clean("a\n\n\nb"), "three newlines are left alone")
	assert.Equal(t, "a\n\nb", Clean("a\n\nb"))
	assert.Equal(t, "a\n\n\nb", Clean("a\r\n\r\n\r\n\r\n\r\nb"))
}

func TestCleanStripsRoleLabelsFencesAndLengthHints(t *testing.T) {
	raw := "Assistant: ```text\nYour stars look bright (about 200 characters).\n```"
	assert.Equal(t, "Your stars look bright .", Clean(raw))

	assert.Equal(t, "Fortune favours you", Clean("Fortune teller: Fortune favours you"))
}

func TestTruncateHistory(t *testing.T) {
	var turns []Turn
	for i := 1; i <= 20; i++ {
		role := "user"
		if i%2 == 0 {
			role = "assistant"
		}
		turns = append(turns, Turn{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}

	got := TruncateHistory(turns, 10)
	require.Len(t, got, 10)
	for i, turn := range got {
		assert.Equal(t, fmt.Sprintf("turn %d", i+11), turn.Content)
	}

	got[0].Content = "changed"
	assert.Equal(t, "turn 11", turns[10].Content, "input must not be aliased")

	assert.Len(t, TruncateHistory(turns[:3], 10), 3)
	assert.Nil(t, TruncateHistory(turns, 0))
	assert.Nil(t, TruncateHistory(nil, 5))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("  short  ", 10))
	assert.Equal(t, "星占いの結…", Preview("星占いの結果です", 5))
	assert.Equal(t, "abc", Preview("abc", 0))
}
