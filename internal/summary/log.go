package summary

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// PromptLog records one remote completion exchange for audit.
type PromptLog struct {
	CompanyCode string // owning company
	Label       string // query or section name
	Prompt      string
	Response    string
}

// Log is an append-only sequence of prompt exchanges. Entries accumulate
// until Clear is called explicitly.
type Log struct {
	mu      sync.Mutex
	entries []PromptLog
}

// NewLog creates an empty prompt log.
func NewLog() *Log {
	return &Log{}
}

// Append records one exchange.
func (l *Log) Append(entry PromptLog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns a snapshot of the recorded exchanges in order.
func (l *Log) Entries() []PromptLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]PromptLog, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear drops all recorded entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Write exports the log in the audit file format.
func (l *Log) Write(w io.Writer) error {
	var buf strings.Builder

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("プロンプトログ - 有価証券報告書RAG要約\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	for i, entry := range l.Entries() {
		buf.WriteString(fmt.Sprintf("[%d] ", i+1))
		if entry.CompanyCode != "" {
			buf.WriteString(fmt.Sprintf("企業コード: %s / ", entry.CompanyCode))
		}
		buf.WriteString(fmt.Sprintf("ラベル: %s\n", entry.Label))
		buf.WriteString(strings.Repeat("-", 60) + "\n")
		buf.WriteString("【入力プロンプト】\n")
		buf.WriteString(entry.Prompt + "\n\n")
		buf.WriteString("【LLM出力】\n")
		buf.WriteString(entry.Response + "\n")
		buf.WriteString("\n" + strings.Repeat("=", 60) + "\n\n")
	}

	_, err := io.WriteString(w, buf.String())
	return err
}
