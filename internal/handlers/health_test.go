package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeCollections struct {
	exists bool
	err    error
}

func (f fakeCollections) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return f.exists, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

type fakeModels struct {
	has bool
	err error
}

func (f fakeModels) HasModel(ctx context.Context, model string) (bool, error) {
	return f.has, f.err
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		vector     fakeCollections
		db         fakePinger
		models     []ModelCheck
		wantStatus int
		wantState  string
	}{
		{
			name:       "healthy",
			vector:     fakeCollections{exists: true},
			models:     []ModelCheck{{Name: "embedding_model", Model: "m", Checker: fakeModels{has: true}}},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name:       "collection missing",
			vector:     fakeCollections{exists: false},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
		},
		{
			name:       "database down",
			vector:     fakeCollections{exists: true},
			db:         fakePinger{err: errors.New("database is closed")},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
		},
		{
			name:       "model missing",
			vector:     fakeCollections{exists: true},
			models:     []ModelCheck{{Name: "chat_model", Model: "m", Checker: fakeModels{has: false}}},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.vector, tt.db, "documents", tt.models...)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("Status = %q, want %q (checks %v)", resp.Status, tt.wantState, resp.Checks)
			}
		})
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	handler := NewHealthHandler(fakeCollections{exists: true}, fakePinger{}, "documents")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("ServeHTTP() status = %d, want 405", w.Code)
	}
}
