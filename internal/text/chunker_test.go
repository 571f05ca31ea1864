package text_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edugen/internal/pdf"
	"edugen/internal/text"
	"edugen/internal/toc"
)

func TestSlidingWindow_ShortInput(t *testing.T) {
	// 10 tokens = 40 chars; anything shorter comes back as one trimmed chunk.
	input := "  A short paragraph.  "
	chunks := text.SlidingWindow(input, 10, 2)

	require.Len(t, chunks, 1)
	assert.Equal(t, "A short paragraph.", chunks[0])
}

func TestSlidingWindow_EmptyInput(t *testing.T) {
	assert.Empty(t, text.SlidingWindow("   \n  ", 10, 2))
	assert.Empty(t, text.SlidingWindow("", 10, 2))
}

func TestSlidingWindow_CutsAtSentenceBoundary(t *testing.T) {
	first := "This sentence fills most of the window. "
	second := "The next sentence continues with more material beyond the window edge."
	input := first + second

	// 15 tokens = 60 chars: the window edge lands inside the second
	// sentence, so the cut moves back to the period.
	chunks := text.SlidingWindow(input, 15, 0)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "This sentence fills most of the window.", chunks[0])
	assert.True(t, strings.HasPrefix(chunks[1], "The next sentence"))
}

func TestSlidingWindow_RoundTrip(t *testing.T) {
	// With zero overlap and no boundary shifts (no sentence punctuation),
	// concatenating chunks reconstructs the input modulo trimming.
	input := strings.Repeat("abcd ", 100) // 500 chars, no sentence ends
	chunks := text.SlidingWindow(input, 25, 0) // 100-char windows

	joined := strings.Join(chunks, " ")
	assert.Equal(t, strings.TrimSpace(input), joined)
}

func TestSlidingWindow_EarlyBoundaryCut(t *testing.T) {
	// One sentence end early in the text, then a long unpunctuated run. The
	// boundary search finds the period far before start+overlap; honoring it
	// would pull the next start negative, so the cut is ignored and the
	// window splits mid-run instead.
	input := strings.Repeat("a", 44) + ". " + strings.Repeat("b", 254) // 300 chars
	chunks := text.SlidingWindow(input, 60, 20)                       // 240-char window, 80-char overlap

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0], strings.Repeat("a", 44)+". b"))
	assert.Equal(t, strings.Repeat("b", 140), chunks[1])

	// Every byte of the input survives into some chunk.
	joined := strings.Join(chunks, "")
	assert.Contains(t, joined, strings.Repeat("b", 194))
}

func TestSlidingWindow_OverlapRepeatsTail(t *testing.T) {
	input := strings.Repeat("x", 100) + " " + strings.Repeat("y", 100)
	chunks := text.SlidingWindow(input, 30, 10) // 120-char window, 40-char overlap

	require.GreaterOrEqual(t, len(chunks), 2)
	// The second chunk starts inside the first chunk's tail.
	tail := chunks[0][len(chunks[0])-10:]
	assert.Contains(t, chunks[1], tail[:5])
}

func TestRenderTable(t *testing.T) {
	rows := [][]string{
		{"Metric", "Value"},
		{"Speed", "42"},
		{},
	}
	assert.Equal(t, "Metric | Value\nSpeed | 42", text.RenderTable(rows))
	assert.Equal(t, "", text.RenderTable(nil))
}

func TestBuildChunks(t *testing.T) {
	doc := &pdf.Document{
		Pages: []pdf.Page{
			{Number: 1, Text: "Intro page text."},
			{Number: 2, Text: "Methods page text."},
			{Number: 3, Text: "More methods."},
		},
		Tables: []pdf.Table{
			{Page: 2, Rows: [][]string{{"A", "B"}, {"1", "2"}}},
			{Page: 9, Rows: [][]string{{"Off", "Range"}}},
		},
	}
	ranges := []toc.SectionRange{
		{Title: "Chapter 1: Intro", PageStart: 1, PageEnd: 1},
		{Title: "Chapter 2: Methods", PageStart: 2, PageEnd: 3},
	}

	chunks := text.BuildChunks(doc, ranges, "book.pdf", 200, 50)

	require.Len(t, chunks, 4)

	assert.Equal(t, text.ChunkTypeText, chunks[0].Type)
	assert.Equal(t, "Chapter 1: Intro", chunks[0].SectionTitle)
	assert.Equal(t, "Intro page text.", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].PageStart)
	assert.Equal(t, 1, chunks[0].PageEnd)

	assert.Equal(t, "Chapter 2: Methods", chunks[1].SectionTitle)
	assert.Equal(t, "Methods page text.\n\nMore methods.", chunks[1].Text)

	// Tables come after text chunks, attributed by page containment.
	assert.Equal(t, text.ChunkTypeTable, chunks[2].Type)
	assert.Equal(t, "Chapter 2: Methods", chunks[2].SectionTitle)
	assert.Equal(t, "A | B\n1 | 2", chunks[2].Text)
	assert.Equal(t, 2, chunks[2].PageStart)
	assert.Equal(t, 2, chunks[2].PageEnd)

	// A table outside every range is tagged Unknown.
	assert.Equal(t, text.UnknownSection, chunks[3].SectionTitle)

	for _, c := range chunks {
		assert.Equal(t, "book.pdf", c.FileName)
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
	}
}

func TestBuildChunks_EmptySectionsSkipped(t *testing.T) {
	doc := &pdf.Document{
		Pages: []pdf.Page{
			{Number: 1, Text: "   "},
			{Number: 2, Text: "Real content here."},
		},
	}
	ranges := []toc.SectionRange{
		{Title: "Blank", PageStart: 1, PageEnd: 1},
		{Title: "Body", PageStart: 2, PageEnd: 2},
	}

	chunks := text.BuildChunks(doc, ranges, "f.pdf", 200, 50)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Body", chunks[0].SectionTitle)
}

func TestBuildChunks_EmptyDocument(t *testing.T) {
	chunks := text.BuildChunks(&pdf.Document{}, nil, "f.pdf", 200, 50)
	assert.Empty(t, chunks)
}
