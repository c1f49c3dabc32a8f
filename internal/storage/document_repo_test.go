package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func createDocument(t *testing.T, repo *DocumentRepo, tenantID, filename string, createdAt time.Time) *DocumentRecord {
	t.Helper()
	doc := &DocumentRecord{
		TenantID:     tenantID,
		Filename:     filename,
		ContentType:  "text/plain",
		FileSize:     42,
		OriginalText: "some text for " + filename,
		ChunksCount:  3,
		CreatedAt:    createdAt,
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return doc
}

func TestDocumentRepo_Create(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	doc := createDocument(t, repo, "tenant-a", "a.txt", time.Time{})
	if doc.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if doc.CreatedAt.IsZero() {
		t.Error("Create() did not assign CreatedAt")
	}

	err := repo.Create(context.Background(), &DocumentRecord{Filename: "orphan.txt"})
	if err == nil {
		t.Error("Create() without tenant should fail")
	}
}

func TestDocumentRepo_GetForTenant(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	doc := createDocument(t, repo, "tenant-a", "a.txt", time.Time{})

	tests := []struct {
		name     string
		id       string
		tenantID string
		wantErr  error
	}{
		{name: "owner", id: doc.ID, tenantID: "tenant-a"},
		{name: "other tenant", id: doc.ID, tenantID: "tenant-b", wantErr: ErrNotFound},
		{name: "missing", id: "does-not-exist", tenantID: "tenant-a", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetForTenant(context.Background(), tt.id, tt.tenantID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetForTenant() error = %v, want %v", err, tt.wantErr)
				}
				if got != nil {
					t.Errorf("GetForTenant() = %+v, want nil", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetForTenant() error = %v", err)
			}
			if got.Filename != "a.txt" || got.OriginalText != doc.OriginalText || got.ChunksCount != 3 || got.FileSize != 42 {
				t.Errorf("GetForTenant() = %+v, want fields of %+v", got, doc)
			}
		})
	}
}

func TestDocumentRepo_ListByTenant(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	createDocument(t, repo, "tenant-a", "old.txt", base)
	createDocument(t, repo, "tenant-a", "new.txt", base.Add(time.Hour))
	createDocument(t, repo, "tenant-b", "theirs.txt", base.Add(2*time.Hour))

	docs, err := repo.ListByTenant(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("ListByTenant() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("ListByTenant() returned %d documents, want 2", len(docs))
	}
	if docs[0].Filename != "new.txt" || docs[1].Filename != "old.txt" {
		t.Errorf("ListByTenant() order = [%s %s], want [new.txt old.txt]", docs[0].Filename, docs[1].Filename)
	}
	for _, d := range docs {
		if d.OriginalText != "" {
			t.Errorf("ListByTenant() returned text for %s", d.Filename)
		}
		if d.TenantID != "tenant-a" {
			t.Errorf("ListByTenant() returned document of tenant %s", d.TenantID)
		}
	}

	empty, err := repo.ListByTenant(context.Background(), "tenant-c")
	if err != nil {
		t.Fatalf("ListByTenant() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListByTenant() = %v, want empty slice", empty)
	}
}

func TestDocumentRepo_DeleteForTenant(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	doc := createDocument(t, repo, "tenant-a", "a.txt", time.Time{})
	ctx := context.Background()

	if err := repo.DeleteForTenant(ctx, doc.ID, "tenant-b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteForTenant() by other tenant error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetForTenant(ctx, doc.ID, "tenant-a"); err != nil {
		t.Fatalf("document should survive foreign delete, GetForTenant() error = %v", err)
	}

	if err := repo.DeleteForTenant(ctx, doc.ID, "tenant-a"); err != nil {
		t.Fatalf("DeleteForTenant() error = %v", err)
	}
	if _, err := repo.GetForTenant(ctx, doc.ID, "tenant-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetForTenant() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteForTenant(ctx, doc.ID, "tenant-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteForTenant() error = %v, want ErrNotFound", err)
	}
}
