package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextChunkerBounds(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
	}{
		{"ascii sentences", 20, 5, "The quick brown fox. The lazy dog sleeps."},
		{"japanese sentences", 30, 10, "当社は建設業を営んでいる。売上高は前年比で増加した。主要な販路は官公庁である。人材の確保が課題となっている。"},
		{"no boundaries", 10, 2, strings.Repeat("x", 57)},
		{"paragraphs", 50, 10, "first paragraph here\n\nsecond paragraph follows\n\nthird one closes the document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := NewTextChunker(Config{MaxChunkSize: tt.size, Overlap: tt.overlap}).Chunk(tt.text, "doc.txt")
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			for i, ch := range chunks {
				assert.LessOrEqual(t, len([]rune(ch.Text)), tt.size, "chunk %d too long", i)
				assert.Equal(t, i, ch.Index)
				assert.NotEmpty(t, ch.Text)
			}

			// The first chunk starts the document, the last one ends it.
			assert.True(t, strings.HasPrefix(tt.text, chunks[0].Text))
			assert.True(t, strings.HasSuffix(tt.text, chunks[len(chunks)-1].Text))
		})
	}
}

func TestTextChunkerReassembly(t *testing.T) {
	text := "当社グループは建設事業を中核としている。主要な顧客は官公庁である。" +
		"売上高は三期連続で増加した。一方で人材の確保が大きな課題となっている。" +
		"地域密着型の営業体制が強みである。今後はDXへの投資を拡大する方針である。"
	overlap := 8

	chunks, err := NewTextChunker(Config{MaxChunkSize: 40, Overlap: overlap}).Chunk(text, "doc.txt")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Dropping the repeated overlap from every chunk but the first must
	// reconstruct the original document exactly.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Text)
	for _, ch := range chunks[1:] {
		runes := []rune(ch.Text)
		rebuilt.WriteString(string(runes[overlap:]))
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestTextChunkerBoundaryPriority(t *testing.T) {
	// A paragraph break inside the window must win over the sentence break
	// that follows it.
	text := "alpha beta.\n\ngamma delta epsilon zeta eta theta iota kappa"
	chunks, err := NewTextChunker(Config{MaxChunkSize: 30, Overlap: 0}).Chunk(text, "doc.txt")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, "alpha beta.\n\n", chunks[0].Text)

	// With no higher-priority boundary, the full-width period decides.
	text = "一文目はここで終わる。二文目はもう少し長く続いていく"
	chunks, err = NewTextChunker(Config{MaxChunkSize: 15, Overlap: 0}).Chunk(text, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "一文目はここで終わる。", chunks[0].Text)
}

func TestTextChunkerDropsOverlapAfterEarlyCut(t *testing.T) {
	// The first boundary sits closer to the chunk start than the overlap
	// width. The chunker then continues at the cut with no repeated
	// runes rather than re-emitting the same window.
	text := "ab cdefghijklmnopqrstuvwxyz"
	chunks, err := NewTextChunker(Config{MaxChunkSize: 10, Overlap: 5}).Chunk(text, "doc.txt")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	assert.Equal(t, "ab ", chunks[0].Text)
	assert.Equal(t, "cdefghijkl", chunks[1].Text)
	assert.True(t, strings.HasPrefix(text, chunks[0].Text+chunks[1].Text))
}

func TestTextChunkerEmptyDocument(t *testing.T) {
	chunks, err := NewTextChunker(DefaultConfig()).Chunk("", "doc.txt")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestTextChunkerInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"overlap equals size", 100, 100},
		{"overlap above size", 100, 150},
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTextChunker(Config{MaxChunkSize: tt.size, Overlap: tt.overlap}).Chunk("some text", "doc.txt")
			assert.Error(t, err)
		})
	}
}

func TestMarkdownChunkerByHeadings(t *testing.T) {
	content := "# Title\n\n" +
		"## First\n\ncontent of the first section\n\n" +
		"## Second\n\ncontent of the second section\n\n" +
		"## Third\n\ncontent of the third section\n"

	chunks, err := NewMarkdownChunker(Config{MaxChunkSize: 200, Overlap: 20}).Chunk(content, "doc.md")
	require.NoError(t, err)
	require.Len(t, chunks, 4) // title preamble + three sections

	assert.Equal(t, "First", chunks[1].Section)
	assert.Contains(t, chunks[1].Text, "content of the first section")
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
}

func TestMarkdownChunkerNoStructure(t *testing.T) {
	_, err := NewMarkdownChunker(DefaultConfig()).Chunk("just a flat paragraph without headings", "doc.md")
	assert.Error(t, err)
}

func TestFactorySelection(t *testing.T) {
	f := NewFactory(DefaultConfig())

	assert.Equal(t, "markdown", f.GetChunker("report.md", "").Name())
	assert.Equal(t, "text", f.GetChunker("report.txt", "").Name())
	assert.Equal(t, "text", f.GetChunker("report.pdf", "").Name())
	assert.Equal(t, "text", f.GetChunker("report.md", "text").Name())
}
