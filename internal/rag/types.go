package rag

// ChunkMetadata is the reduced view of an embedding record's payload returned
// to callers.
type ChunkMetadata struct {
	// DocumentID is the ID of the source document.
	DocumentID string `json:"document_id"`
	// Filename is the source document's display name.
	Filename string `json:"filename"`
	// ChunkIndex is the chunk index within the document.
	ChunkIndex int `json:"chunk_index"`
}

// RetrievedChunk is a chunk returned by a tenant-scoped similarity search.
type RetrievedChunk struct {
	// Text is the chunk text.
	Text string `json:"text"`
	// Score is the vector similarity score.
	Score float32 `json:"score"`
	// Metadata identifies where the chunk came from.
	Metadata ChunkMetadata `json:"metadata"`
}

// RetrieveRequest describes a retrieval.
type RetrieveRequest struct {
	// Question is the query text to embed.
	Question string
	// TenantID scopes the search. Required.
	TenantID string
	// Limit is the maximum number of chunks. Zero uses the retriever default.
	Limit int
	// ScoreThreshold drops results scoring below it.
	ScoreThreshold float32
}

// Retrieval is the result of a retrieval, including the query vector for
// diagnostics.
type Retrieval struct {
	Chunks         []RetrievedChunk
	QueryVector    []float32
	ScoreThreshold float32
}

// AskRequest represents a question to answer for a tenant.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// TenantID is the authenticated tenant.
	TenantID string `json:"-"`
}

// AskResponse represents the response from a RAG query.
type AskResponse struct {
	// Question echoes the asked question.
	Question string `json:"question"`
	// Answer is the generated answer from the LLM.
	Answer string `json:"answer"`
	// RetrievedChunks are the chunks the answer was generated from.
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks"`
	// ResponseTimeMs is the end-to-end time spent answering.
	ResponseTimeMs int64 `json:"response_time_ms"`
}
