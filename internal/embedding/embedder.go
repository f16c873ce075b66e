package embedding

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"
)

// Dim is the embedding dimension of the remote model.
const Dim = 768

// maxInputLen caps the sanitized text length in runes, matching the
// remote provider's input limit.
const maxInputLen = 512

// Transport performs the remote embedding call for already-sanitized text.
type Transport interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Embedder converts text into fixed-dimension vectors. Remote failures
// never surface as errors: they degrade to the zero vector, which keeps
// indexing going at the cost of one unusable entry. Only the log tells a
// failed call apart from a legitimately empty chunk.
type Embedder struct {
	transport   Transport
	concurrency int
}

// New creates an Embedder over the given transport. concurrency bounds the
// worker pool used by EmbedMany; values below 1 disable parallelism.
func New(transport Transport, concurrency int) *Embedder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Embedder{transport: transport, concurrency: concurrency}
}

// Embed returns the 768-dimension vector for text. Empty or whitespace-only
// input short-circuits to the zero vector without a remote call.
func (e *Embedder) Embed(ctx context.Context, text string) []float32 {
	sanitized := Sanitize(text)
	if sanitized == "" {
		return ZeroVector()
	}

	vec, err := e.transport.EmbedText(ctx, sanitized)
	if err != nil {
		log.Printf("⚠️  Embedding error for text %q: %v", head(text, 50), err)
		return ZeroVector()
	}
	if len(vec) != Dim {
		log.Printf("⚠️  Unexpected embedding dimension %d for text %q", len(vec), head(text, 50))
		return ZeroVector()
	}
	return vec
}

// EmbedMany embeds every text and returns the vectors in input order,
// regardless of completion order. Workers write into their own index slot.
func (e *Embedder) EmbedMany(ctx context.Context, texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	var completed atomic.Int64

	for i, text := range texts {
		wg.Add(1)
		go func(idx int, t string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			vectors[idx] = e.Embed(ctx, t)

			if n := completed.Add(1); n%10 == 0 {
				log.Printf("  Embedding progress: %d/%d", n, len(texts))
			}
		}(i, text)
	}
	wg.Wait()

	return vectors
}

// ZeroVector returns the defined fallback vector.
func ZeroVector() []float32 {
	return make([]float32, Dim)
}

// IsZero reports whether vec is the fallback zero vector.
func IsZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

// Sanitize prepares text for the remote call: control characters become
// spaces, runs of whitespace collapse to single spaces, and the result is
// capped at maxInputLen runes. Returns "" for whitespace-only input.
func Sanitize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range text {
		if r <= 0x1F || (r >= 0x7F && r <= 0x9F) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}

	sanitized := strings.Join(strings.Fields(b.String()), " ")

	runes := []rune(sanitized)
	if len(runes) > maxInputLen {
		sanitized = string(runes[:maxInputLen])
	}
	return sanitized
}

// head returns the first n runes of s, for log lines.
func head(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
