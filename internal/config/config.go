package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	DataDir        string  `env:"DATA_DIR" envDefault:"./data"`
	LLMURL         string  `env:"LLM_URL" envDefault:"http://localhost:11434/v1"`
	LLMKey         string  `env:"LLM_KEY"`
	LLMModel       string  `env:"LLM_MODEL" envDefault:"gemma2:2b"`
	EmbedURL       string  `env:"EMBED_URL" envDefault:"http://localhost:11434"`
	EmbedModel     string  `env:"EMBED_MODEL" envDefault:"nomic-embed-text"`
	ChunkSize      int     `env:"CHUNK_SIZE" envDefault:"500"`
	ChunkOverlap   int     `env:"CHUNK_OVERLAP" envDefault:"100"`
	ChunkMethod    string  `env:"CHUNK_METHOD"`
	TopK           int     `env:"TOP_K" envDefault:"20"`
	MaxConcurrency int     `env:"MAX_CONCURRENCY" envDefault:"4"`
	MaxTokens      int     `env:"MAX_TOKENS" envDefault:"4096"`
	Temperature    float64 `env:"TEMPERATURE" envDefault:"0.2"`
	SectionLimit   int     `env:"SECTION_LIMIT" envDefault:"3000"`

	// Derived at startup from DataDir.
	VectorDBDir string
	OutputDir   string
}

func Init(cfg interface{}) error {
	return env.Parse(cfg)
}

// ReportPath returns the securities report file path for a company code,
// without extension: the caller probes the supported formats.
func (c *Config) ReportPath(companyCode string) string {
	return filepath.Join(c.DataDir, fmt.Sprintf("有価証券報告書（%s）", companyCode))
}

// SummaryPath returns the RAG summary output file for a company code.
func (c *Config) SummaryPath(companyCode string) string {
	return filepath.Join(c.DataDir, fmt.Sprintf("有価証券報告書要約（%s）.txt", companyCode))
}

// ProposalPath returns the proposal text output file for a company code.
func (c *Config) ProposalPath(companyCode string) string {
	return filepath.Join(c.OutputDir, companyCode+"_proposal.txt")
}

// PromptLogPath returns the audit log output file.
func (c *Config) PromptLogPath() string {
	return filepath.Join(c.DataDir, "prompt_log.txt")
}
