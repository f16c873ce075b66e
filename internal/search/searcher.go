package search

import (
	"context"
	"log"
	"math"
	"sync"

	"github.com/philippgille/chromem-go"

	"reportrag/internal/chunker"
	"reportrag/internal/embedding"
	"reportrag/internal/index"
)

// Result is one retrieved chunk with its relevance score.
type Result struct {
	Content   string
	Relevance float64
}

// ChunkSource supplies the chunk set for a company when its index has to
// be built on first use.
type ChunkSource interface {
	Chunks(companyCode string) ([]chunker.Chunk, error)
}

// ChunkSourceFunc adapts a function to the ChunkSource interface.
type ChunkSourceFunc func(companyCode string) ([]chunker.Chunk, error)

func (f ChunkSourceFunc) Chunks(companyCode string) ([]chunker.Chunk, error) {
	return f(companyCode)
}

// Relevance converts a vector distance into a (0, 1] score. A perfect
// match (distance 0) maps to exactly 1 and the score strictly decreases
// with distance. Keep this transform as-is: scores are compared across
// runs and tools.
func Relevance(distance float64) float64 {
	return 1 / (1 + distance)
}

// Searcher runs similarity queries against per-company collections,
// building each index lazily on first use and caching loaded collections
// for the session.
type Searcher struct {
	store    *index.Store
	embedder *embedding.Embedder
	source   ChunkSource

	mu     sync.Mutex
	loaded map[string]*chromem.Collection
}

// NewSearcher creates a searcher over the given store and chunk source.
func NewSearcher(store *index.Store, embedder *embedding.Embedder, source ChunkSource) *Searcher {
	return &Searcher{
		store:    store,
		embedder: embedder,
		source:   source,
		loaded:   make(map[string]*chromem.Collection),
	}
}

// LoadIndex loads (building if needed) the index for a company into the
// session cache. Returns false when the index cannot be built.
func (s *Searcher) LoadIndex(ctx context.Context, companyCode string, force bool) bool {
	s.mu.Lock()
	if coll, ok := s.loaded[companyCode]; ok && !force && coll != nil {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	chunks, err := s.source.Chunks(companyCode)
	if err != nil {
		log.Printf("❌ Failed to load chunks for %s: %v", companyCode, err)
		return false
	}

	coll, err := s.store.Build(ctx, companyCode, chunks, force)
	if err != nil {
		log.Printf("❌ Failed to build index for %s: %v", companyCode, err)
		return false
	}

	s.mu.Lock()
	s.loaded[companyCode] = coll
	s.mu.Unlock()
	return true
}

// IsLoaded reports whether the company's index sits in the session cache.
func (s *Searcher) IsLoaded(companyCode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loaded[companyCode]
	return ok
}

// Search returns up to topK chunks relevant to the query, most relevant
// first. Missing or unbuildable indexes yield an empty result, never an
// error: callers treat empty as "no relevant information".
func (s *Searcher) Search(ctx context.Context, companyCode, query string, topK int) []Result {
	s.mu.Lock()
	coll, ok := s.loaded[companyCode]
	s.mu.Unlock()

	if !ok {
		if !s.LoadIndex(ctx, companyCode, false) {
			return nil
		}
		s.mu.Lock()
		coll = s.loaded[companyCode]
		s.mu.Unlock()
	}

	// Never ask for more results than the collection holds.
	if count := coll.Count(); topK > count {
		topK = count
	}
	if topK <= 0 {
		return nil
	}

	queryVec := s.embedder.Embed(ctx, query)
	if embedding.IsZero(queryVec) {
		// Empty query or failed query embedding: nothing to compare
		// against, and chromem would normalize the zero vector to NaN.
		log.Printf("⚠️  No usable query embedding for %q", query)
		return nil
	}

	results, err := coll.QueryEmbedding(ctx, queryVec, topK, nil, nil)
	if err != nil {
		log.Printf("❌ Query failed for %s: %v", companyCode, err)
		return nil
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		// Documents stored without a usable embedding carry only a
		// sentinel vector; their similarity is meaningless, so they
		// never surface as matches.
		if r.Metadata[index.FallbackKey] != "" {
			continue
		}
		// chromem reports cosine similarity; recover the distance and
		// apply the shared relevance transform. Non-finite scores are
		// dropped so every returned relevance stays within (0, 1].
		sim := float64(r.Similarity)
		if math.IsNaN(sim) || math.IsInf(sim, 0) {
			continue
		}
		out = append(out, Result{
			Content:   r.Content,
			Relevance: Relevance(1 - sim),
		})
	}
	return out
}

// ReadChunks exposes the stored chunk texts for a company.
func (s *Searcher) ReadChunks(ctx context.Context, companyCode string) []string {
	return s.store.ReadChunks(ctx, companyCode)
}
