package chunker

import "fmt"

// Chunk is one bounded piece of a document, in original order.
type Chunk struct {
	Text     string            // chunk text
	Index    int               // zero-based position within the document
	Section  string            // section heading, when the chunker knows it
	Metadata map[string]string // extra metadata (markdown level, part number)
}

// Chunker splits document content into chunks.
type Chunker interface {
	// Chunk splits content into ordered chunks.
	Chunk(content, source string) ([]Chunk, error)

	// Name returns the chunker name for logging.
	Name() string
}

// Config holds common chunker parameters.
type Config struct {
	MaxChunkSize int // maximum chunk size in characters (runes)
	Overlap      int // overlap between consecutive chunks in characters
}

// DefaultConfig matches the securities-report defaults: 500-char chunks
// with a 100-char overlap.
func DefaultConfig() Config {
	return Config{MaxChunkSize: 500, Overlap: 100}
}

// Validate checks the size/overlap combination. An overlap that is not
// smaller than the chunk size would never advance through the document,
// so it is rejected up front.
func (c Config) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.MaxChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("overlap must not be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.MaxChunkSize {
		return fmt.Errorf("overlap %d must be smaller than chunk size %d", c.Overlap, c.MaxChunkSize)
	}
	return nil
}
