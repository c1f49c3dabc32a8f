package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/mock/gomock"

	"docqa/internal/llm"
	"docqa/internal/storage"
	storage_mocks "docqa/internal/storage/mocks"
	"docqa/internal/vectorstore"
	vectorstore_mocks "docqa/internal/vectorstore/mocks"
)

const testCollection = "test-collection"

// fakeEmbedder returns a small deterministic vector per text and fails for
// the texts listed in failOn.
type fakeEmbedder struct {
	mu     sync.Mutex
	failOn map[string]bool
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn[text] {
		return nil, errors.New("embedding provider unavailable")
	}
	var sum rune
	for _, r := range text {
		sum += r
	}
	return []float32{1, float32(len(text)), float32(sum%7) + 1}, nil
}

// expectCreate makes the mock assign an ID the way DocumentRepo does.
func expectCreate(docs *storage_mocks.MockDocumentStore, id string) *gomock.Call {
	return docs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, doc *storage.DocumentRecord) error {
			doc.ID = id
			return nil
		})
}

func TestNewPipeline(t *testing.T) {
	ctrl := gomock.NewController(t)

	p := NewPipeline(storage_mocks.NewMockDocumentStore(ctrl), &fakeEmbedder{}, vectorstore.NewMemoryStore(), testCollection, nil)

	if p.segmenter == nil {
		t.Fatal("NewPipeline() segmenter should not be nil")
	}
	if p.segmenter.MaxLength != DefaultChunkMaxLength || p.segmenter.Overlap != DefaultChunkOverlap {
		t.Errorf("NewPipeline() segmenter = %+v, want defaults", p.segmenter)
	}
	if p.concurrency != 1 {
		t.Errorf("NewPipeline() concurrency = %d, want 1", p.concurrency)
	}
	if p.collection != testCollection {
		t.Errorf("NewPipeline() collection = %v, want %v", p.collection, testCollection)
	}

	p = NewPipeline(nil, nil, nil, testCollection, NewSegmenter(10, 2), WithConcurrency(4))
	if p.concurrency != 4 {
		t.Errorf("WithConcurrency(4) concurrency = %d", p.concurrency)
	}
}

func TestPipeline_Ingest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     IngestRequest
		wantErr error
	}{
		{
			name:    "empty text",
			req:     IngestRequest{TenantID: "tenant-a", Filename: "a.txt", Text: ""},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "whitespace text",
			req:     IngestRequest{TenantID: "tenant-a", Filename: "a.txt", Text: " \n\t "},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "missing tenant",
			req:     IngestRequest{Filename: "a.txt", Text: "content"},
			wantErr: ErrTenantRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			docs := storage_mocks.NewMockDocumentStore(ctrl)
			embedder := &fakeEmbedder{}

			p := NewPipeline(docs, embedder, vectorstore.NewMemoryStore(), testCollection, nil)
			_, err := p.Ingest(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Ingest() error = %v, want %v", err, tt.wantErr)
			}
			if embedder.calls != 0 {
				t.Errorf("embedder called %d times, want 0", embedder.calls)
			}
		})
	}
}

func TestPipeline_Ingest_PartialFailure(t *testing.T) {
	text := "Sentence one. Sentence two. Sentence three."
	chunks := Segment(text, 20, 5)
	if len(chunks) < 3 {
		t.Fatalf("test text produced %d chunks, want at least 3", len(chunks))
	}

	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			docs := storage_mocks.NewMockDocumentStore(ctrl)
			expectCreate(docs, "doc-1").Times(1)

			embedder := &fakeEmbedder{failOn: map[string]bool{chunks[1].Text: true}}
			store := vectorstore.NewMemoryStore()

			p := NewPipeline(docs, embedder, store, testCollection, NewSegmenter(20, 5), WithConcurrency(concurrency))
			result, err := p.Ingest(context.Background(), IngestRequest{
				TenantID:    "tenant-a",
				Filename:    "sentences.txt",
				ContentType: "text/plain",
				FileSize:    int64(len(text)),
				Text:        text,
			})
			if err != nil {
				t.Fatalf("Ingest() error = %v", err)
			}

			n := len(chunks)
			if result.Document.ChunksCount != n {
				t.Errorf("ChunksCount = %d, want declared count %d", result.Document.ChunksCount, n)
			}
			if result.Embedded != n-1 || result.Failed != 1 {
				t.Errorf("Embedded/Failed = %d/%d, want %d/1", result.Embedded, result.Failed, n-1)
			}
			if len(result.Outcomes) != n {
				t.Fatalf("Outcomes = %d, want %d", len(result.Outcomes), n)
			}
			for i, outcome := range result.Outcomes {
				if outcome.Index != i {
					t.Errorf("Outcomes[%d].Index = %d", i, outcome.Index)
				}
				wantOK := i != 1
				if outcome.Succeeded() != wantOK {
					t.Errorf("Outcomes[%d].Succeeded() = %v, want %v", i, outcome.Succeeded(), wantOK)
				}
				if wantOK && outcome.PointID == "" {
					t.Errorf("Outcomes[%d].PointID is empty", i)
				}
			}

			filter := vectorstore.Filter{TenantID: "tenant-a", DocumentID: "doc-1"}
			if got := store.Count(testCollection, filter); got != n-1 {
				t.Errorf("stored records = %d, want %d", got, n-1)
			}

			results, err := store.Search(context.Background(), testCollection, []float32{1, 1, 1}, filter, 100, -1)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			indexes := make([]int, 0, len(results))
			for _, r := range results {
				if r.Payload.TenantID != "tenant-a" || r.Payload.DocumentID != "doc-1" || r.Payload.Filename != "sentences.txt" {
					t.Errorf("payload = %+v, want tenant-a/doc-1/sentences.txt", r.Payload)
				}
				if r.Payload.Text != chunks[r.Payload.ChunkIndex].Text {
					t.Errorf("payload text for chunk %d = %q", r.Payload.ChunkIndex, r.Payload.Text)
				}
				indexes = append(indexes, r.Payload.ChunkIndex)
			}
			sort.Ints(indexes)
			for i := 1; i < len(indexes); i++ {
				if indexes[i] == indexes[i-1] {
					t.Errorf("chunk index %d stored twice", indexes[i])
				}
			}
		})
	}
}

func TestPipeline_Ingest_RejectedChunksDoNotBlockOthers(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "Fact %02d is stored. ", i)
	}
	text := strings.TrimSpace(sb.String())
	chunks := Segment(text, 20, 5)
	if len(chunks) < 10 {
		t.Fatalf("test text produced %d chunks, want at least 10", len(chunks))
	}

	// The provider rejects four consecutive chunks as bad input.
	rejected := make(map[string]bool)
	for _, c := range chunks[1:5] {
		rejected[c.Text] = true
	}
	wantFailed := 0
	for _, c := range chunks {
		if rejected[c.Text] {
			wantFailed++
		}
	}

	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				var req llm.EmbeddingsRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Input) != 1 {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				if rejected[req.Input[0]] {
					w.WriteHeader(http.StatusBadRequest)
					_, _ = w.Write([]byte("input rejected"))
					return
				}
				_ = json.NewEncoder(w).Encode(llm.EmbeddingsResponse{
					Data: []llm.EmbeddingData{{Embedding: []float64{1, 0, 0}}},
				})
			}))
			defer server.Close()

			ctrl := gomock.NewController(t)
			docs := storage_mocks.NewMockDocumentStore(ctrl)
			expectCreate(docs, "doc-1").Times(1)
			store := vectorstore.NewMemoryStore()

			embedder := llm.NewEmbeddingsClient(server.URL, "test-key", "test-model", 3)
			p := NewPipeline(docs, embedder, store, testCollection, NewSegmenter(20, 5), WithConcurrency(concurrency))
			result, err := p.Ingest(context.Background(), IngestRequest{
				TenantID:    "tenant-a",
				Filename:    "facts.txt",
				ContentType: "text/plain",
				FileSize:    int64(len(text)),
				Text:        text,
			})
			if err != nil {
				t.Fatalf("Ingest() error = %v", err)
			}

			n := len(chunks)
			if result.Embedded != n-wantFailed || result.Failed != wantFailed {
				t.Errorf("Embedded/Failed = %d/%d, want %d/%d", result.Embedded, result.Failed, n-wantFailed, wantFailed)
			}
			if got := int(calls.Load()); got != n {
				t.Errorf("provider called %d times, want one call per chunk (%d)", got, n)
			}
			for _, outcome := range result.Outcomes {
				if rejected[chunks[outcome.Index].Text] == outcome.Succeeded() {
					t.Errorf("chunk %d succeeded = %v, err = %v", outcome.Index, outcome.Succeeded(), outcome.Err)
				}
			}
			filter := vectorstore.Filter{TenantID: "tenant-a", DocumentID: "doc-1"}
			if got := store.Count(testCollection, filter); got != n-wantFailed {
				t.Errorf("stored records = %d, want %d", got, n-wantFailed)
			}
		})
	}
}

func TestPipeline_Ingest_CreateFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	docs := storage_mocks.NewMockDocumentStore(ctrl)
	docs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("database is locked"))

	embedder := &fakeEmbedder{}
	p := NewPipeline(docs, embedder, vectorstore.NewMemoryStore(), testCollection, nil)

	_, err := p.Ingest(context.Background(), IngestRequest{TenantID: "tenant-a", Filename: "a.txt", Text: "hello"})
	if err == nil {
		t.Fatal("Ingest() should fail when the document cannot be created")
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times before the document existed", embedder.calls)
	}
}

func TestPipeline_Ingest_UpsertFailuresTolerated(t *testing.T) {
	ctrl := gomock.NewController(t)
	docs := storage_mocks.NewMockDocumentStore(ctrl)
	expectCreate(docs, "doc-1")

	text := "first one second two"
	n := len(Segment(text, 10, 0))

	vectors := vectorstore_mocks.NewMockVectorStore(ctrl)
	vectors.EXPECT().Upsert(gomock.Any(), testCollection, gomock.Any()).Return(errors.New("qdrant unavailable")).Times(n)

	p := NewPipeline(docs, &fakeEmbedder{}, vectors, testCollection, NewSegmenter(10, 0))
	result, err := p.Ingest(context.Background(), IngestRequest{TenantID: "tenant-a", Filename: "a.txt", Text: text})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.Embedded != 0 || result.Failed != n {
		t.Errorf("Embedded/Failed = %d/%d, want 0/%d", result.Embedded, result.Failed, n)
	}
	if result.Document.ID != "doc-1" {
		t.Errorf("Document.ID = %q, want doc-1", result.Document.ID)
	}
}

func TestPipeline_Delete(t *testing.T) {
	owned := &storage.DocumentRecord{ID: "doc-1", TenantID: "tenant-a", Filename: "a.txt"}

	seed := func(t *testing.T, store *vectorstore.MemoryStore) {
		t.Helper()
		err := store.Upsert(context.Background(), testCollection, []vectorstore.Record{
			{ID: "p1", Vector: []float32{1, 0}, Payload: vectorstore.Payload{TenantID: "tenant-a", DocumentID: "doc-1"}},
			{ID: "p2", Vector: []float32{0, 1}, Payload: vectorstore.Payload{TenantID: "tenant-a", DocumentID: "doc-1"}},
			{ID: "p3", Vector: []float32{1, 1}, Payload: vectorstore.Payload{TenantID: "tenant-a", DocumentID: "doc-2"}},
		})
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	t.Run("owner deletes document and vectors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		docs := storage_mocks.NewMockDocumentStore(ctrl)
		gomock.InOrder(
			docs.EXPECT().GetForTenant(gomock.Any(), "doc-1", "tenant-a").Return(owned, nil),
			docs.EXPECT().DeleteForTenant(gomock.Any(), "doc-1", "tenant-a").Return(nil),
		)
		store := vectorstore.NewMemoryStore()
		seed(t, store)

		p := NewPipeline(docs, &fakeEmbedder{}, store, testCollection, nil)
		outcome, err := p.Delete(context.Background(), "doc-1", "tenant-a")
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if !outcome.DocumentDeleted || !outcome.VectorsDeleted || outcome.Partial() {
			t.Errorf("Delete() outcome = %+v, want complete", outcome)
		}
		if got := store.Count(testCollection, vectorstore.Filter{TenantID: "tenant-a", DocumentID: "doc-1"}); got != 0 {
			t.Errorf("remaining doc-1 records = %d, want 0", got)
		}
		if got := store.Count(testCollection, vectorstore.Filter{TenantID: "tenant-a"}); got != 1 {
			t.Errorf("remaining tenant records = %d, want 1", got)
		}
	})

	t.Run("other tenant gets not found and nothing changes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		docs := storage_mocks.NewMockDocumentStore(ctrl)
		docs.EXPECT().GetForTenant(gomock.Any(), "doc-1", "tenant-b").Return(nil, storage.ErrNotFound)
		store := vectorstore.NewMemoryStore()
		seed(t, store)

		p := NewPipeline(docs, &fakeEmbedder{}, store, testCollection, nil)
		_, err := p.Delete(context.Background(), "doc-1", "tenant-b")
		if !errors.Is(err, ErrDocumentNotFound) {
			t.Errorf("Delete() error = %v, want ErrDocumentNotFound", err)
		}
		if got := store.Count(testCollection, vectorstore.Filter{TenantID: "tenant-a"}); got != 3 {
			t.Errorf("tenant-a records = %d, want 3", got)
		}
	})

	t.Run("vector failure is a partial outcome", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		docs := storage_mocks.NewMockDocumentStore(ctrl)
		docs.EXPECT().GetForTenant(gomock.Any(), "doc-1", "tenant-a").Return(owned, nil)
		docs.EXPECT().DeleteForTenant(gomock.Any(), "doc-1", "tenant-a").Return(nil)

		vectorErr := errors.New("qdrant unavailable")
		vectors := vectorstore_mocks.NewMockVectorStore(ctrl)
		vectors.EXPECT().
			DeleteByFilter(gomock.Any(), testCollection, vectorstore.Filter{TenantID: "tenant-a", DocumentID: "doc-1"}).
			Return(vectorErr)

		p := NewPipeline(docs, &fakeEmbedder{}, vectors, testCollection, nil)
		outcome, err := p.Delete(context.Background(), "doc-1", "tenant-a")
		if err != nil {
			t.Fatalf("Delete() error = %v, want nil for partial outcome", err)
		}
		if !outcome.Partial() || !errors.Is(outcome.VectorErr, vectorErr) {
			t.Errorf("Delete() outcome = %+v, want partial with vector error", outcome)
		}
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		docs := storage_mocks.NewMockDocumentStore(ctrl)
		docs.EXPECT().GetForTenant(gomock.Any(), "doc-1", "tenant-a").Return(nil, errors.New("disk I/O error"))

		p := NewPipeline(docs, &fakeEmbedder{}, vectorstore.NewMemoryStore(), testCollection, nil)
		_, err := p.Delete(context.Background(), "doc-1", "tenant-a")
		if err == nil || errors.Is(err, ErrDocumentNotFound) {
			t.Errorf("Delete() error = %v, want wrapped store error", err)
		}
	})
}

func TestPipeline_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	docs := storage_mocks.NewMockDocumentStore(ctrl)
	want := []*storage.DocumentRecord{{ID: "doc-2"}, {ID: "doc-1"}}
	docs.EXPECT().ListByTenant(gomock.Any(), "tenant-a").Return(want, nil)

	p := NewPipeline(docs, &fakeEmbedder{}, vectorstore.NewMemoryStore(), testCollection, nil)
	got, err := p.List(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "doc-2" {
		t.Errorf("List() = %v, want %v", got, want)
	}

	if _, err := p.List(context.Background(), ""); !errors.Is(err, ErrTenantRequired) {
		t.Errorf("List() without tenant error = %v, want ErrTenantRequired", err)
	}
}
