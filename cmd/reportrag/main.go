package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"reportrag/internal/app"
	"reportrag/internal/config"
)

const usage = `Usage: reportrag <command> [flags]

Commands:
  index      Build the vector index for one or more companies
  search     Query a company's index (one-shot with -query, interactive otherwise)
  summarize  Generate the RAG summaries for one or more companies
  report     Generate the proposal sections for one company
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load .env (optional), then the environment config.
	_ = godotenv.Load()

	cfg := config.Config{}
	if err := config.Init(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	command := os.Args[1]
	args := os.Args[2:]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	dataDir := fs.String("data", cfg.DataDir, "Data directory (reports, vector DB, output)")
	codes := fs.String("codes", "", "Comma-separated company codes (required)")
	force := fs.Bool("force", false, "Delete and rebuild existing indexes")
	query := fs.String("query", "", "One-shot search query")
	topK := fs.Int("top-k", cfg.TopK, "Number of chunks to retrieve")
	financial := fs.String("financial", "", "Financial summary file for the report command")

	if err := fs.Parse(args); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	cfg.DataDir = *dataDir
	cfg.VectorDBDir = filepath.Join(cfg.DataDir, "chroma_db")
	cfg.OutputDir = filepath.Join(cfg.DataDir, "output")

	for _, dir := range []string{cfg.DataDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	companyCodes := splitCodes(*codes)
	if len(companyCodes) == 0 {
		log.Fatal("Error: -codes flag is required\nUsage: reportrag " + command + " -codes=12044[,12045,...]")
	}

	log.Printf("Data directory: %s", cfg.DataDir)

	a, err := app.New(&cfg)
	if err != nil {
		log.Fatalf("failed to create app: %v", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	switch command {
	case "index":
		err = a.BuildIndex(ctx, companyCodes, *force)
	case "search":
		if *query != "" {
			a.Search(ctx, companyCodes[0], *query, *topK)
		} else {
			err = a.RunInteractive(ctx, companyCodes[0])
		}
	case "summarize":
		err = a.Summarize(ctx, companyCodes, *topK)
	case "report":
		err = a.Report(ctx, companyCodes[0], *financial)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
}

func splitCodes(codes string) []string {
	var out []string
	for _, code := range strings.Split(codes, ",") {
		if code = strings.TrimSpace(code); code != "" {
			out = append(out, code)
		}
	}
	return out
}
