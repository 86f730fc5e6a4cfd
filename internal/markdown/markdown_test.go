package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesHTML(t *testing.T) {
	html, err := NewRenderer().Render([]byte("# Title\n\nSome *text* here.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)

	assert.Contains(t, html, `<h1 id="title">Title</h1>`)
	assert.Contains(t, html, "<p>Some <em>text</em> here.</p>")
	assert.Contains(t, html, "<table>")
}

func TestSnippetStartsAtFirstParagraph(t *testing.T) {
	html, err := NewRenderer().Render([]byte("# Heading\n\nFirst   paragraph.\n\n## Next\n\nSecond paragraph.\n"))
	require.NoError(t, err)

	snippet, err := Snippet(html, SnippetBudget)
	require.NoError(t, err)

	assert.Equal(t, "First paragraph. Next Second paragraph.", snippet)
}

func TestSnippetWithoutParagraphIsEmpty(t *testing.T) {
	snippet, err := Snippet("<h1>Only a heading</h1><ul><li>item</li></ul>", SnippetBudget)
	require.NoError(t, err)
	assert.Empty(t, snippet)
}

func TestSnippetTruncatesWithEllipsis(t *testing.T) {
	long := strings.Repeat("word ", 100)
	snippet, err := Snippet("<p>"+long+"</p>", 20)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(snippet, "..."))
	assert.LessOrEqual(t, len([]rune(strings.TrimSuffix(snippet, "..."))), 20)
}

func TestSnippetShortTextHasNoEllipsis(t *testing.T) {
	snippet, err := Snippet("<p>short</p>", SnippetBudget)
	require.NoError(t, err)
	assert.Equal(t, "short", snippet)
}

func TestSnippetContinuesPastNestedParagraph(t *testing.T) {
	snippet, err := Snippet("<blockquote><p>quoted</p></blockquote><p>after</p>", SnippetBudget)
	require.NoError(t, err)
	assert.Equal(t, "quoted after", snippet)
}

func TestTruncateCountsCharactersNotBytes(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "hé...", Truncate("héllo", 2))
	assert.Equal(t, "anything", Truncate("anything", 0))
}
