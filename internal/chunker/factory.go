package chunker

import (
	"path/filepath"
	"strings"
)

// Factory picks a chunker for a given source file.
type Factory struct {
	config Config
}

// NewFactory creates a chunker factory.
func NewFactory(config Config) *Factory {
	return &Factory{config: config}
}

// GetChunker returns the chunker for a file. An explicit method wins;
// otherwise the file extension decides, defaulting to plain text.
func (f *Factory) GetChunker(filePath, method string) Chunker {
	switch strings.ToLower(method) {
	case "markdown", "md":
		return NewMarkdownChunker(f.config)
	case "simple", "text", "txt":
		return NewTextChunker(f.config)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".md", ".markdown":
		return NewMarkdownChunker(f.config)
	default:
		return NewTextChunker(f.config)
	}
}
