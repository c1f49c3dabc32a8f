package storage

import "time"

// DocumentRecord represents an ingested document owned by a tenant.
type DocumentRecord struct {
	ID           string // UUID
	TenantID     string // Owning user ID
	Filename     string
	ContentType  string
	FileSize     int64 // Size of the uploaded file in bytes
	OriginalText string
	ChunksCount  int // Number of chunks produced by segmentation
	CreatedAt    time.Time
}

// UserRecord represents a registered user. The user ID doubles as the tenant ID.
type UserRecord struct {
	ID             string // UUID
	Email          string
	HashedPassword string
	IsActive       bool
	CreatedAt      time.Time
}

// QueryLogRecord represents one answered question.
type QueryLogRecord struct {
	ID                   string // UUID
	TenantID             string
	Question             string
	Answer               string
	ResponseTimeMs       int64
	RetrievedChunksCount int
	CreatedAt            time.Time
}
