package index

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"reportrag/internal/chunker"
	"reportrag/internal/embedding"
)

// CollectionName maps a company code to its collection. The name is the
// whole catalog: durability and reuse hang off this mapping being stable
// across processes, so it must stay a pure function of the code.
func CollectionName(companyCode string) string {
	return "securities_report_" + companyCode
}

// Store is a durable per-company vector index backed by chromem-go.
// One collection holds the full chunk set of one securities report.
type Store struct {
	db       *chromem.DB
	embedder *embedding.Embedder

	// Serializes builds so that at most one is in flight per process.
	mu sync.Mutex
}

// NewStore opens (or creates) the persistent vector database under dir.
func NewStore(dir string, embedder *embedding.Embedder) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}
	return &Store{db: db, embedder: embedder}, nil
}

// Exists reports whether a non-empty collection is present for the company.
// Probing never propagates an error; anything unexpected counts as absent.
func (s *Store) Exists(companyCode string) bool {
	coll := s.db.GetCollection(CollectionName(companyCode), nil)
	return coll != nil && coll.Count() > 0
}

// Delete removes the company's collection. Absence is not an error and
// returns false.
func (s *Store) Delete(companyCode string) bool {
	name := CollectionName(companyCode)
	if s.db.GetCollection(name, nil) == nil {
		return false
	}
	if err := s.db.DeleteCollection(name); err != nil {
		log.Printf("⚠️  Failed to delete collection %s: %v", name, err)
		return false
	}
	log.Printf("Deleted existing collection: %s", name)
	return true
}

// Load returns the existing collection, or nil when none is present.
func (s *Store) Load(companyCode string) *chromem.Collection {
	if !s.Exists(companyCode) {
		return nil
	}
	return s.db.GetCollection(CollectionName(companyCode), nil)
}

// Build materializes the collection for a company from its chunks.
//
// With force false an existing non-empty collection is returned as-is and
// no embedding happens - embedding is the expensive part and a valid index
// must never be paid for twice. With force true any existing collection is
// deleted first and every chunk is re-embedded.
//
// Chunks whose embedding failed arrive as the zero vector and are stored
// anyway, under a sentinel embedding with a metadata marker so retrieval
// can skip them. Storing the zero vector itself is not an option: chromem
// normalizes embeddings and 0/0 would turn every query similarity NaN.
func (s *Store) Build(ctx context.Context, companyCode string, chunks []chunker.Chunk, force bool) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := CollectionName(companyCode)

	if !force {
		if existing := s.Load(companyCode); existing != nil {
			log.Printf("Reusing existing index: %s (%d documents)", name, existing.Count())
			return existing, nil
		}
	} else {
		s.Delete(companyCode)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	log.Printf("📦 Embedding %d chunks for %s...", len(chunks), name)
	vectors := s.embedder.EmbedMany(ctx, texts)

	coll, err := s.db.GetOrCreateCollection(name, map[string]string{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		metadata := map[string]string{
			"company_code": companyCode,
			"chunk_index":  strconv.Itoa(ch.Index),
		}
		if ch.Section != "" {
			metadata["section"] = ch.Section
		}
		vec := vectors[i]
		if embedding.IsZero(vec) {
			vec = fallbackEmbedding()
			metadata[FallbackKey] = "true"
		}
		docs[i] = chromem.Document{
			ID:        documentID(companyCode, ch.Index),
			Metadata:  metadata,
			Embedding: vec,
			Content:   ch.Text,
		}
	}

	if len(docs) > 0 {
		if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("failed to add documents to %s: %w", name, err)
		}
	}

	log.Printf("✅ Indexed %s: %d documents", name, coll.Count())
	return coll, nil
}

// ReadChunks returns the stored chunk texts in chunk-index order, or nil
// when no collection exists. Used for introspection, not retrieval.
func (s *Store) ReadChunks(ctx context.Context, companyCode string) []string {
	coll := s.Load(companyCode)
	if coll == nil {
		return nil
	}

	count := coll.Count()
	texts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		doc, err := coll.GetByID(ctx, documentID(companyCode, i))
		if err != nil {
			log.Printf("⚠️  Missing document %d in %s: %v", i, CollectionName(companyCode), err)
			continue
		}
		texts = append(texts, doc.Content)
	}
	return texts
}

func documentID(companyCode string, index int) string {
	return companyCode + "-" + strconv.Itoa(index)
}

// FallbackKey marks documents stored without a usable embedding.
const FallbackKey = "embedding_fallback"

// fallbackEmbedding is the deterministic stand-in for a failed embedding.
// It is already normalized, so chromem stores it as-is.
func fallbackEmbedding() []float32 {
	vec := make([]float32, embedding.Dim)
	vec[embedding.Dim-1] = 1
	return vec
}
