package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reportrag/internal/chunker"
	"reportrag/internal/config"
	"reportrag/internal/embedding"
	"reportrag/internal/extract"
	"reportrag/internal/index"
	"reportrag/internal/llm"
	"reportrag/internal/report"
	"reportrag/internal/search"
	"reportrag/internal/summary"
)

// App wires the pipeline together: extraction, chunking, embedding, the
// durable index, retrieval, summarization and proposal generation.
type App struct {
	cfg        *config.Config
	store      *index.Store
	searcher   *search.Searcher
	summarizer *summary.Summarizer
	generator  *report.Generator
	promptLog  *summary.Log
}

func New(cfg *config.Config) (*App, error) {
	embedder := embedding.New(
		embedding.NewClient(cfg.EmbedURL, cfg.EmbedModel),
		cfg.MaxConcurrency,
	)

	store, err := index.NewStore(cfg.VectorDBDir, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}

	completer := llm.NewClient(llm.Config{
		URL:         cfg.LLMURL,
		Key:         cfg.LLMKey,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})

	promptLog := summary.NewLog()

	a := &App{
		cfg:       cfg,
		store:     store,
		promptLog: promptLog,
	}
	a.searcher = search.NewSearcher(store, embedder, search.ChunkSourceFunc(a.chunksFor))
	a.summarizer = summary.NewSummarizer(a.searcher, completer, promptLog)
	a.generator = report.NewGenerator(completer, promptLog, map[string]int{
		"overview": cfg.SectionLimit,
		"issues":   cfg.SectionLimit,
		"strategy": cfg.SectionLimit,
		"effects":  cfg.SectionLimit,
		"roadmap":  cfg.SectionLimit,
	})

	return a, nil
}

// reportExtensions, probed in order, for a company's securities report.
var reportExtensions = []string{".pdf", ".md", ".txt"}

// findReport locates the report file for a company code.
func (a *App) findReport(companyCode string) (string, error) {
	base := a.cfg.ReportPath(companyCode)
	candidates := make([]string, 0, 2*len(reportExtensions))
	for _, ext := range reportExtensions {
		candidates = append(candidates, base+ext)
		candidates = append(candidates, filepath.Join(a.cfg.DataDir, companyCode+ext))
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("有価証券報告書が見つかりません (企業コード: %s)", companyCode)
}

// chunksFor extracts and chunks the report for a company. Markdown
// sources keep their structure so the markdown chunker can split along
// headings; everything else goes through whitespace-normalized extraction
// and the plain text chunker.
func (a *App) chunksFor(companyCode string) ([]chunker.Chunk, error) {
	path, err := a.findReport(companyCode)
	if err != nil {
		return nil, err
	}

	cfg := chunker.Config{MaxChunkSize: a.cfg.ChunkSize, Overlap: a.cfg.ChunkOverlap}
	factory := chunker.NewFactory(cfg)
	chunkr := factory.GetChunker(path, a.cfg.ChunkMethod)

	var content string
	if chunkr.Name() == "markdown" {
		content, err = extract.LoadRaw(path)
	} else {
		content, err = extract.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	source := filepath.Base(path)
	chunks, err := chunkr.Chunk(content, source)
	if err != nil && chunkr.Name() != "text" {
		// No usable structure; fall back to the plain text chunker.
		chunks, err = chunker.NewTextChunker(cfg).Chunk(extract.Normalize(content), source)
	}
	if err != nil {
		return nil, fmt.Errorf("chunking failed: %w", err)
	}
	return chunks, nil
}

// formatSummaries renders SummarizeAll results in the summary file format.
func formatSummaries(companyCode string, results []summary.QuerySummary) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("有価証券報告書要約 - 企業コード: %s\n", companyCode))
	buf.WriteString(strings.Repeat("=", 60) + "\n\n")
	for _, r := range results {
		buf.WriteString(fmt.Sprintf("【%s】\n", r.Query))
		buf.WriteString(strings.Repeat("-", 40) + "\n")
		if r.Err != nil {
			buf.WriteString(fmt.Sprintf("要約エラー: %v\n\n", r.Err))
			continue
		}
		buf.WriteString(r.Summary + "\n\n")
	}
	return buf.String()
}

// formatProposal renders generated sections as one proposal document.
func formatProposal(companyCode string, sections []report.Section) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("経営提案書 - 企業コード: %s\n", companyCode))
	buf.WriteString(strings.Repeat("=", 60) + "\n\n")
	for i, s := range sections {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, s.Name))
		buf.WriteString(strings.Repeat("-", 40) + "\n")
		if s.Err != nil {
			buf.WriteString(fmt.Sprintf("生成エラー: %v\n\n", s.Err))
			continue
		}
		buf.WriteString(s.Text + "\n\n")
	}
	return buf.String()
}
