package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"docqa/internal/contextutil"
)

// QdrantStore implements VectorStore using Qdrant.
type QdrantStore struct {
	client *qdrant.Client
}

// indexedFields are the payload keys every search or delete filters on.
var indexedFields = []string{FieldTenantID, FieldDocumentID}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) is derived from the HTTP port; https enables TLS.
func NewQdrantStore(urlStr, apiKey string) (*QdrantStore, error) {
	host, port, useTLS, err := parseQdrantURL(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client: client,
	}, nil
}

// parseQdrantURL maps the REST URL to the gRPC endpoint.
func parseQdrantURL(urlStr string) (host string, port int, useTLS bool, err error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host = parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port = 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	return host, port, parsedURL.Scheme == "https", nil
}

// Close releases the underlying gRPC connections.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Upsert inserts or updates records in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, records []Record) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, record := range records {
		if record.Payload.TenantID == "" {
			return ErrTenantRequired
		}
		payload, err := qdrant.TryValueMap(payloadToMap(record.Payload))
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(record.ID),
			Vectors: qdrant.NewVectors(record.Vector...),
			Payload: payload,
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(records), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(records))
	return nil
}

// Search performs a tenant-scoped similarity search.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, filter Filter, limit int, scoreThreshold float32) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	qLimit := uint64(limit)
	scoredPoints, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Filter:         buildFilter(filter),
		Limit:          &qLimit,
		ScoreThreshold: &scoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		pointID := ""
		if point.Id != nil {
			pointID = point.Id.GetUuid()
		}
		results = append(results, SearchResult{
			ID:      pointID,
			Score:   point.Score,
			Payload: payloadFromQdrant(point.Payload),
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", collection, "limit", limit,
		"score_threshold", scoreThreshold, "results", len(results))
	return results, nil
}

// DeleteByFilter removes every point matching filter.
func (s *QdrantStore) DeleteByFilter(ctx context.Context, collection string, filter Filter) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := filter.Validate(); err != nil {
		return err
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(buildFilter(filter)),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection,
			"tenant_id", filter.TenantID, "document_id", filter.DocumentID, "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.InfoContext(ctx, "deleted points", "collection", collection,
		"tenant_id", filter.TenantID, "document_id", filter.DocumentID)
	return nil
}

// CollectionExists checks if a collection exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// EnsureCollection ensures a collection exists with the specified vector size
// and keyword indexes on the tenant and document payload fields.
// If the collection exists, validates that the vector size matches.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	} else {
		info, err := s.GetCollectionInfo(ctx, collection)
		if err != nil {
			return err
		}
		if info.VectorSize == 0 {
			return fmt.Errorf("could not determine collection vector size")
		}
		if info.VectorSize != vectorSize {
			return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, info.VectorSize)
		}
	}

	// Creating an existing index is a no-op in Qdrant.
	for _, field := range indexedFields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collection,
			Wait:           qdrant.PtrOf(true),
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create payload index on %s: %w", field, err)
		}
	}

	logger.InfoContext(ctx, "collection ready", "collection", collection, "vector_size", vectorSize)
	return nil
}

// GetCollectionInfo returns information about a collection including point count.
func (s *QdrantStore) GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	var vectorSize int
	if config := info.Config; config != nil && config.Params != nil {
		if vectorsConfig := config.Params.GetVectorsConfig(); vectorsConfig != nil {
			if params := vectorsConfig.GetParams(); params != nil {
				vectorSize = int(params.Size)
			}
		}
	}

	var pointsCount int
	if info.PointsCount != nil {
		pointsCount = int(*info.PointsCount)
	}

	status := "unknown"
	if info.Status != 0 {
		status = info.Status.String()
	}

	return &CollectionInfo{
		VectorSize:  vectorSize,
		PointsCount: pointsCount,
		Status:      status,
	}, nil
}

// CollectionInfo contains information about a Qdrant collection.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int
	Status      string
}

func buildFilter(filter Filter) *qdrant.Filter {
	must := []*qdrant.Condition{
		qdrant.NewMatchKeyword(FieldTenantID, filter.TenantID),
	}
	if filter.DocumentID != "" {
		must = append(must, qdrant.NewMatchKeyword(FieldDocumentID, filter.DocumentID))
	}
	return &qdrant.Filter{Must: must}
}

func payloadToMap(p Payload) map[string]any {
	return map[string]any{
		FieldTenantID:   p.TenantID,
		FieldDocumentID: p.DocumentID,
		FieldFilename:   p.Filename,
		FieldText:       p.Text,
		FieldChunkIndex: int64(p.ChunkIndex),
		FieldCreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func payloadFromQdrant(payload map[string]*qdrant.Value) Payload {
	var p Payload
	if payload == nil {
		return p
	}
	p.TenantID = payload[FieldTenantID].GetStringValue()
	p.DocumentID = payload[FieldDocumentID].GetStringValue()
	p.Filename = payload[FieldFilename].GetStringValue()
	p.Text = payload[FieldText].GetStringValue()
	p.ChunkIndex = int(payload[FieldChunkIndex].GetIntegerValue())
	if raw := payload[FieldCreatedAt].GetStringValue(); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			p.CreatedAt = t
		}
	}
	return p
}
