package chunker

import "log"

// separators, highest priority first. The splitter tries to end every
// chunk on the earliest entry in this list that occurs inside the current
// window; only when none occurs does it hard-cut at the size limit.
// Full-width punctuation is included because the source documents are
// Japanese securities reports.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune("。"),
	[]rune("、"),
	[]rune(" "),
}

// TextChunker splits plain text into bounded chunks with a fixed overlap,
// preferring natural boundaries over hard cuts.
type TextChunker struct {
	config Config
}

// NewTextChunker creates a plain text chunker.
func NewTextChunker(config Config) *TextChunker {
	return &TextChunker{config: config}
}

func (s *TextChunker) Name() string {
	return "text"
}

// Chunk splits content into ordered chunks of at most MaxChunkSize runes.
// The last Overlap runes of each chunk are repeated at the start of the
// next one. An empty document yields no chunks and no error.
func (s *TextChunker) Chunk(content, source string) ([]Chunk, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}

	runes := []rune(content)
	size := s.config.MaxChunkSize
	overlap := s.config.Overlap

	var chunks []Chunk
	pos := 0
	for pos < len(runes) {
		end := pos + size
		if end >= len(runes) {
			chunks = append(chunks, Chunk{Text: string(runes[pos:]), Index: len(chunks)})
			break
		}

		cut := findCut(runes, pos, end)
		chunks = append(chunks, Chunk{Text: string(runes[pos:cut]), Index: len(chunks)})

		// Step back by the overlap, but always make forward progress: a
		// cut within Overlap runes of the chunk start drops the overlap
		// entirely, so that chunk's successor repeats nothing.
		next := cut - overlap
		if next <= pos {
			next = cut
		}
		pos = next
	}

	log.Printf("✅ [%s] Created %d chunks from %s", s.Name(), len(chunks), source)
	return chunks, nil
}

// findCut picks the end of the next chunk within runes[pos:end].
// It returns the position just after the last occurrence of the
// highest-priority separator in the window, or end when the window
// contains no separator at all.
func findCut(runes []rune, pos, end int) int {
	window := runes[pos:end]
	for _, sep := range separators {
		if idx := lastIndexRunes(window, sep); idx > 0 {
			return pos + idx + len(sep)
		}
	}
	return end
}
