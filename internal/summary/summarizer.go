package summary

import (
	"context"
	"fmt"
	"log"
	"strings"

	"reportrag/internal/llm"
	"reportrag/internal/search"
)

// NoInformationFound is returned when retrieval produced nothing. It is a
// distinct sentinel, not an LLM answer: no completion call happens.
const NoInformationFound = "関連する情報が見つかりませんでした。"

// DefaultQueries is the standard ordered list of summary topics for a
// securities report, used when the caller supplies none.
var DefaultQueries = []string{
	"事業の内容と主要な製品・サービス",
	"経営方針と経営戦略",
	"事業等のリスク",
	"経営成績および財政状態の状況",
	"研究開発活動",
	"設備投資の状況",
}

// Retriever yields ranked chunks for a query against one company's index.
type Retriever interface {
	Search(ctx context.Context, companyCode, query string, topK int) []search.Result
}

// QuerySummary is the outcome of one summarize call within SummarizeAll.
type QuerySummary struct {
	Query   string
	Summary string
	Err     error
}

// Summarizer turns retrieved chunks into bounded natural-language
// summaries via the completion service, recording every exchange.
type Summarizer struct {
	retriever Retriever
	completer llm.Completer
	log       *Log
}

// NewSummarizer creates a summarizer. A nil promptLog gets its own log.
func NewSummarizer(retriever Retriever, completer llm.Completer, promptLog *Log) *Summarizer {
	if promptLog == nil {
		promptLog = NewLog()
	}
	return &Summarizer{retriever: retriever, completer: completer, log: promptLog}
}

// Log exposes the prompt log for export.
func (s *Summarizer) Log() *Log {
	return s.log
}

// Summarize retrieves topK chunks for the query and summarizes them.
// An empty retrieval returns the NoInformationFound sentinel without a
// completion call and without a log entry.
func (s *Summarizer) Summarize(ctx context.Context, companyCode, query string, topK int) (string, error) {
	results := s.retriever.Search(ctx, companyCode, query, topK)
	if len(results) == 0 {
		return NoInformationFound, nil
	}

	// Chunks arrive most relevant first; keep that order in the context.
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Content
	}
	context := strings.Join(texts, "\n\n---\n\n")

	prompt := fmt.Sprintf(`以下は有価証券報告書から抽出した関連テキストです。

【抽出テキスト】
%s

【要約テーマ】
%s

上記の抽出テキストに基づいて、テーマに関する内容を日本語で要約してください。
抽出テキストに含まれる情報のみを使用し、具体的な数値や固有名詞があれば含めてください。
箇条書きで要点を整理した形式で回答してください。`, context, query)

	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarization failed for %q: %w", query, err)
	}

	s.log.Append(PromptLog{
		CompanyCode: companyCode,
		Label:       query,
		Prompt:      prompt,
		Response:    response,
	})

	return response, nil
}

// SummarizeAll runs Summarize once per query, in order. Queries are
// independent: one failure is recorded and the rest still run. A nil
// queries slice means DefaultQueries.
func (s *Summarizer) SummarizeAll(ctx context.Context, companyCode string, queries []string, topK int) []QuerySummary {
	if queries == nil {
		queries = DefaultQueries
	}

	results := make([]QuerySummary, 0, len(queries))
	for _, query := range queries {
		log.Printf("要約中: %s", query)

		text, err := s.Summarize(ctx, companyCode, query, topK)
		if err != nil {
			log.Printf("❌ %v", err)
			results = append(results, QuerySummary{Query: query, Err: err})
			continue
		}
		results = append(results, QuerySummary{Query: query, Summary: text})
	}
	return results
}
