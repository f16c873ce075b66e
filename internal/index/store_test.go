package index

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportrag/internal/chunker"
	"reportrag/internal/embedding"
)

// unitTransport returns a distinct unit vector per distinct text and
// counts remote calls. Texts containing failNeedle simulate an embedding
// backend failure.
type unitTransport struct {
	calls atomic.Int64

	mu         sync.Mutex
	dims       map[string]int
	failNeedle string
}

func newUnitTransport() *unitTransport {
	return &unitTransport{dims: make(map[string]int)}
}

func (u *unitTransport) EmbedText(_ context.Context, text string) ([]float32, error) {
	u.calls.Add(1)

	if u.failNeedle != "" && strings.Contains(text, u.failNeedle) {
		return nil, errors.New("embedding backend unavailable")
	}

	u.mu.Lock()
	dim, ok := u.dims[text]
	if !ok {
		dim = len(u.dims)
		u.dims[text] = dim
	}
	u.mu.Unlock()

	vec := make([]float32, embedding.Dim)
	vec[dim] = 1
	return vec, nil
}

func testChunks(texts ...string) []chunker.Chunk {
	chunks := make([]chunker.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = chunker.Chunk{Text: t, Index: i}
	}
	return chunks
}

func newTestStore(t *testing.T, dir string) (*Store, *unitTransport) {
	t.Helper()
	transport := newUnitTransport()
	store, err := NewStore(dir, embedding.New(transport, 2))
	require.NoError(t, err)
	return store, transport
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "securities_report_12044", CollectionName("12044"))
	assert.NotEqual(t, CollectionName("12044"), CollectionName("12045"))
}

func TestBuildReusesExistingIndex(t *testing.T) {
	store, transport := newTestStore(t, t.TempDir())
	ctx := context.Background()
	chunks := testChunks("第一のチャンク", "第二のチャンク", "第三のチャンク")

	coll, err := store.Build(ctx, "12044", chunks, false)
	require.NoError(t, err)
	require.NotNil(t, coll)
	assert.Equal(t, int64(3), transport.calls.Load())

	// Second build must skip re-embedding entirely.
	coll2, err := store.Build(ctx, "12044", chunks, false)
	require.NoError(t, err)
	require.NotNil(t, coll2)
	assert.Equal(t, int64(3), transport.calls.Load(), "reuse must not invoke the embedding transport")
	assert.Equal(t, 3, coll2.Count())
}

func TestBuildForceAlwaysRebuilds(t *testing.T) {
	store, transport := newTestStore(t, t.TempDir())
	ctx := context.Background()
	chunks := testChunks("第一のチャンク", "第二のチャンク", "第三のチャンク")

	_, err := store.Build(ctx, "12044", chunks, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), transport.calls.Load())

	coll, err := store.Build(ctx, "12044", chunks, true)
	require.NoError(t, err)
	assert.Equal(t, int64(6), transport.calls.Load(), "force must re-embed the full chunk set")
	assert.Equal(t, 3, coll.Count())
}

func TestExistsDeleteLoadLifecycle(t *testing.T) {
	store, _ := newTestStore(t, t.TempDir())
	ctx := context.Background()

	assert.False(t, store.Exists("12044"))
	assert.False(t, store.Delete("12044"), "deleting an absent collection is not an error")
	assert.Nil(t, store.Load("12044"))

	_, err := store.Build(ctx, "12044", testChunks("チャンク"), false)
	require.NoError(t, err)

	assert.True(t, store.Exists("12044"))
	assert.NotNil(t, store.Load("12044"))
	assert.False(t, store.Exists("12045"), "other subjects stay independent")

	assert.True(t, store.Delete("12044"))
	assert.False(t, store.Exists("12044"))
}

func TestReadChunksStoredOrder(t *testing.T) {
	store, _ := newTestStore(t, t.TempDir())
	ctx := context.Background()
	texts := []string{"最初", "次", "最後"}

	_, err := store.Build(ctx, "12044", testChunks(texts...), false)
	require.NoError(t, err)

	assert.Equal(t, texts, store.ReadChunks(ctx, "12044"))
	assert.Nil(t, store.ReadChunks(ctx, "12045"))
}

func TestBuildKeepsChunksWithFailedEmbeddings(t *testing.T) {
	store, transport := newTestStore(t, t.TempDir())
	transport.failNeedle = "欠損"
	ctx := context.Background()

	coll, err := store.Build(ctx, "12044", testChunks("正常なチャンク", "欠損したチャンク"), false)
	require.NoError(t, err)
	assert.Equal(t, 2, coll.Count(), "a failed embedding must not drop the chunk")
	assert.Equal(t, []string{"正常なチャンク", "欠損したチャンク"}, store.ReadChunks(ctx, "12044"))

	// The failed chunk is stored under the sentinel embedding and marked.
	doc, err := coll.GetByID(ctx, "12044-1")
	require.NoError(t, err)
	assert.Equal(t, "true", doc.Metadata[FallbackKey])

	good, err := coll.GetByID(ctx, "12044-0")
	require.NoError(t, err)
	assert.Empty(t, good.Metadata[FallbackKey])
}

func TestIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, _ := newTestStore(t, dir)
	_, err := store.Build(ctx, "12044", testChunks("永続化されるチャンク"), false)
	require.NoError(t, err)

	// A fresh store over the same directory sees the collection and
	// reuses it without embedding anything.
	reopened, transport := newTestStore(t, dir)
	assert.True(t, reopened.Exists("12044"))

	_, err = reopened.Build(ctx, "12044", testChunks("永続化されるチャンク"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), transport.calls.Load())
}
