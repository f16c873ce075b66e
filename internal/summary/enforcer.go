package summary

import (
	"context"
	"fmt"
	"log"

	"reportrag/internal/llm"
)

// ellipsis is the deterministic truncation marker. Three runes, so the
// hard cut lands on exactly the limit.
const ellipsis = "..."

// Enforcer guarantees that generated section text fits a character limit.
//
// The policy is two-tier and terminal: one soft compression attempt via
// the completion service, then one hard truncation. Never more than two
// remote calls ever produce a section, and the returned text always
// satisfies the limit.
type Enforcer struct {
	completer llm.Completer
	log       *Log
}

// NewEnforcer creates an enforcer sharing the given prompt log.
func NewEnforcer(completer llm.Completer, promptLog *Log) *Enforcer {
	if promptLog == nil {
		promptLog = NewLog()
	}
	return &Enforcer{completer: completer, log: promptLog}
}

// Enforce returns text unchanged when it fits within limit characters.
// Otherwise it asks the model to compress once, logging the exchange under
// "<label>（短縮）" with the owning company code, and hard-truncates if the
// model still overshoots. A failed compression call propagates: there is
// no compliant text to fall back to.
func (e *Enforcer) Enforce(ctx context.Context, companyCode, text string, limit int, label string) (string, error) {
	length := len([]rune(text))
	if length <= limit {
		return text, nil
	}

	log.Printf("  ⚠ %sが%d字で上限%d字を超過。短縮中...", label, length, limit)

	prompt := fmt.Sprintf(`以下のテキストを%d字以内に短縮してください。

【重要な要件】
- 必ず%d字以内に収めること（厳守）
- 主要な論点と具体的な数値は維持すること
- 冗長な表現や繰り返しを削除すること
- 構造（見出し「■」「●」「・」）は維持すること
- 内容の質を落とさずに簡潔化すること

【短縮対象テキスト】
%s
`, limit, limit, text)

	shortened, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("compression failed for %s: %w", label, err)
	}

	e.log.Append(PromptLog{
		CompanyCode: companyCode,
		Label:       label + "（短縮）",
		Prompt:      prompt,
		Response:    shortened,
	})

	if newLen := len([]rune(shortened)); newLen > limit {
		log.Printf("  ⚠ 短縮後も%d字で超過。強制切り詰めを適用...", newLen)
		shortened = truncate(shortened, limit)
	}

	log.Printf("  → %d字 → %d字に短縮完了", length, len([]rune(shortened)))
	return shortened, nil
}

// truncate cuts text to exactly limit runes, ending in the ellipsis marker.
func truncate(text string, limit int) string {
	runes := []rune(text)
	marker := []rune(ellipsis)
	if limit <= len(marker) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(marker)]) + ellipsis
}
