package chunker

import (
	"fmt"
	"log"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownChunker splits markdown documents along their heading structure.
// Sections that still exceed the size limit are re-split with the plain
// text chunker, so every chunk stays within MaxChunkSize.
type MarkdownChunker struct {
	config Config
}

// NewMarkdownChunker creates a markdown chunker.
func NewMarkdownChunker(config Config) *MarkdownChunker {
	return &MarkdownChunker{config: config}
}

func (m *MarkdownChunker) Name() string {
	return "markdown"
}

// documentStructure holds heading statistics collected from the AST.
type documentStructure struct {
	HeadingCounts   map[int]int // heading level -> count
	TotalParagraphs int
}

func (m *MarkdownChunker) Chunk(content, source string) ([]Chunk, error) {
	if err := m.config.Validate(); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}

	md := goldmark.New()
	reader := text.NewReader([]byte(content))
	doc := md.Parser().Parse(reader)

	structure := m.analyzeStructure(doc)
	level, err := m.selectLevel(structure)
	if err != nil {
		// Let the caller decide; usually it falls back to the text chunker.
		return nil, fmt.Errorf("markdown chunker cannot process this content: %w", err)
	}

	log.Printf("📊 [%s] Document structure: headings=%v, paragraphs=%d",
		m.Name(), structure.HeadingCounts, structure.TotalParagraphs)

	chunks, err := m.chunkByHeadings(doc, []byte(content), level)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [%s] Created %d chunks from %s", m.Name(), len(chunks), source)
	return chunks, nil
}

// analyzeStructure counts headings and paragraphs in the document.
func (m *MarkdownChunker) analyzeStructure(doc ast.Node) documentStructure {
	structure := documentStructure{HeadingCounts: make(map[int]int)}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if heading, ok := n.(*ast.Heading); ok {
				structure.HeadingCounts[heading.Level]++
			}
			if _, ok := n.(*ast.Paragraph); ok {
				structure.TotalParagraphs++
			}
		}
		return ast.WalkContinue, nil
	})

	return structure
}

// selectLevel picks the heading level to split on. H2 sections are common
// enough at 3 headings; deeper levels need more before they are useful.
func (m *MarkdownChunker) selectLevel(structure documentStructure) (int, error) {
	minHeadings := map[int]int{2: 3, 3: 5, 4: 10}
	for level := 2; level <= 4; level++ {
		if structure.HeadingCounts[level] >= minHeadings[level] {
			return level, nil
		}
	}
	return 0, fmt.Errorf("no usable heading structure (headings: %v)", structure.HeadingCounts)
}

// chunkByHeadings splits the document at headings of the target level (or
// higher) and bounds each section with the text chunker.
func (m *MarkdownChunker) chunkByHeadings(doc ast.Node, content []byte, targetLevel int) ([]Chunk, error) {
	var chunks []Chunk
	var current strings.Builder
	var section string

	flush := func() error {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if text == "" {
			return nil
		}
		bounded, err := m.boundSection(text, section)
		if err != nil {
			return err
		}
		chunks = append(chunks, bounded...)
		return nil
	}

	var walkErr error
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if heading, ok := n.(*ast.Heading); ok {
				headingText := extractText(heading, content)
				if heading.Level <= targetLevel {
					if err := flush(); err != nil {
						walkErr = err
						return ast.WalkStop, err
					}
					section = headingText
					current.WriteString(headingText + "\n\n")
				} else {
					// Subheadings stay inside the current section.
					current.WriteString("\n" + headingText + "\n\n")
				}
				return ast.WalkSkipChildren, nil
			} else if textNode, ok := n.(*ast.Text); ok {
				current.Write(textNode.Segment.Value(content))
			}
		} else {
			if _, ok := n.(*ast.Paragraph); ok {
				current.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	if err := flush(); err != nil {
		return nil, err
	}

	// Indices are assigned over the final sequence, not per section.
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks, nil
}

// boundSection turns one section into chunks of at most MaxChunkSize runes.
func (m *MarkdownChunker) boundSection(text, section string) ([]Chunk, error) {
	if runeLen(text) <= m.config.MaxChunkSize {
		return []Chunk{{Text: text, Section: section}}, nil
	}

	parts, err := NewTextChunker(m.config).Chunk(text, section)
	if err != nil {
		return nil, err
	}
	for i := range parts {
		parts[i].Section = section
		parts[i].Metadata = map[string]string{"part": fmt.Sprintf("%d", i+1)}
	}
	return parts, nil
}

// extractText pulls the plain text out of an AST node.
func extractText(node ast.Node, source []byte) string {
	var buf strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if textNode, ok := child.(*ast.Text); ok {
			buf.Write(textNode.Segment.Value(source))
		}
	}
	return buf.String()
}
