package extract

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Load extracts the text of a report file and normalizes its whitespace.
// Supported formats: .pdf, .txt, .md.
func Load(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path)
	case ".txt", ".md", ".markdown":
		return loadPlain(path)
	default:
		return "", fmt.Errorf("unsupported report format: %s", filepath.Ext(path))
	}
}

// LoadRaw reads .txt/.md files without whitespace normalization, so the
// markdown chunker still sees paragraph breaks and headings.
func LoadRaw(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path)
	default:
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(content), nil
	}
}

func loadPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	raw, err := io.ReadAll(textReader)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	text := Normalize(string(raw))
	log.Printf("📄 PDF loaded: %s (%d chars)", filepath.Base(path), len([]rune(text)))
	return text, nil
}

func loadPlain(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return Normalize(string(content)), nil
}

// Normalize collapses all whitespace runs into single spaces, matching
// how extracted report text is fed to the chunker.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
