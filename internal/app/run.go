package app

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"reportrag/internal/report"
)

// BuildIndex builds (or rebuilds with force) the index for every company
// code. One failing company never aborts the batch; the summary at the
// end reports per-company status.
func (a *App) BuildIndex(ctx context.Context, companyCodes []string, force bool) error {
	results := make(map[string]string, len(companyCodes))
	successCount := 0

	for _, code := range companyCodes {
		log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Printf("企業コード: %s", code)

		chunks, err := a.chunksFor(code)
		if err != nil {
			log.Printf("❌ %v", err)
			results[code] = fmt.Sprintf("失敗: %v", err)
			continue
		}

		if _, err := a.store.Build(ctx, code, chunks, force); err != nil {
			log.Printf("❌ Index build failed: %v", err)
			results[code] = fmt.Sprintf("失敗: %v", err)
			continue
		}

		stored := a.store.ReadChunks(ctx, code)
		log.Printf("インデックス化完了: %d チャンク", len(stored))
		results[code] = "成功"
		successCount++
	}

	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("📊 処理結果サマリー:")
	for _, code := range companyCodes {
		log.Printf("   %s: %s", code, results[code])
	}
	log.Printf("完了: %d/%d社", successCount, len(companyCodes))

	if successCount == 0 && len(companyCodes) > 0 {
		return fmt.Errorf("no index could be built")
	}
	return nil
}

// Search runs one query and prints the ranked chunks.
func (a *App) Search(ctx context.Context, companyCode, query string, topK int) {
	results := a.searcher.Search(ctx, companyCode, query, topK)
	if len(results) == 0 {
		log.Printf("🔍 No relevant chunks for %q", query)
		return
	}

	log.Printf("🔍 Found %d relevant chunks:", len(results))
	for i, r := range results {
		preview := r.Content
		if runes := []rune(preview); len(runes) > 80 {
			preview = string(runes[:80]) + "..."
		}
		log.Printf("   %d. (relevance: %.3f) %s", i+1, r.Relevance, preview)
	}
}

// RunInteractive reads queries from stdin, one per line, until EOF or
// shutdown.
func (a *App) RunInteractive(ctx context.Context, companyCode string) error {
	log.Printf("Interactive search for company %s. Enter a query per line, Ctrl+C to exit.", companyCode)

	scanner := bufio.NewScanner(os.Stdin)
	const maxLineSize = 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down")
			return nil
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("stdin error: %w", err)
				}
				log.Println("stdin closed")
				return nil
			}

			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}
			a.Search(ctx, companyCode, query, a.cfg.TopK)
		}
	}
}

// Summarize runs the default summaries for every company code, writing
// one summary file per company plus the shared prompt log.
func (a *App) Summarize(ctx context.Context, companyCodes []string, topK int) error {
	for _, code := range companyCodes {
		log.Printf("企業コード %s の有価証券報告書を要約中...", code)

		if !a.searcher.LoadIndex(ctx, code, false) {
			log.Printf("❌ インデックス読み込みエラー (%s)", code)
			continue
		}
		log.Printf("チャンク数: %d", len(a.searcher.ReadChunks(ctx, code)))

		results := a.summarizer.SummarizeAll(ctx, code, nil, topK)

		path := a.cfg.SummaryPath(code)
		if err := os.WriteFile(path, []byte(formatSummaries(code, results)), 0o644); err != nil {
			log.Printf("⚠️  Failed to save summaries: %v", err)
			continue
		}
		log.Printf("💾 出力ファイル: %s", path)
	}

	return a.writePromptLog()
}

// Report generates the proposal sections for one company. The financial
// summary, when present, comes from the metrics collaborator's output
// file.
func (a *App) Report(ctx context.Context, companyCode, financialPath string) error {
	if !a.searcher.LoadIndex(ctx, companyCode, false) {
		return fmt.Errorf("インデックス読み込みエラー (%s)", companyCode)
	}

	summaries := a.summarizer.SummarizeAll(ctx, companyCode, nil, a.cfg.TopK)

	financial := ""
	if financialPath != "" {
		data, err := os.ReadFile(financialPath)
		if err != nil {
			return fmt.Errorf("failed to read financial summary: %w", err)
		}
		financial = string(data)
	}

	sections := a.generator.GenerateAll(ctx, report.Context{
		CompanyCode: companyCode,
		Financial:   financial,
		Summaries:   summaries,
	})

	path := a.cfg.ProposalPath(companyCode)
	if err := os.WriteFile(path, []byte(formatProposal(companyCode, sections)), 0o644); err != nil {
		return fmt.Errorf("failed to save proposal: %w", err)
	}
	log.Printf("💾 提案書: %s", path)

	return a.writePromptLog()
}

func (a *App) writePromptLog() error {
	f, err := os.Create(a.cfg.PromptLogPath())
	if err != nil {
		return fmt.Errorf("failed to create prompt log: %w", err)
	}
	defer f.Close()

	if err := a.promptLog.Write(f); err != nil {
		return fmt.Errorf("failed to write prompt log: %w", err)
	}
	log.Printf("💾 プロンプトログ: %s", a.cfg.PromptLogPath())
	return nil
}
