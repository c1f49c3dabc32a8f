package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"docqa/internal/auth"
	"docqa/internal/contextutil"
	"docqa/internal/metrics"
	"docqa/internal/service"
	"docqa/internal/storage"
	storage_mocks "docqa/internal/storage/mocks"
)

func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	var capturedCtx context.Context
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedCtx = r.Context()
		contextutil.LoggerFromContext(r.Context()).InfoContext(r.Context(), "inside")
		w.WriteHeader(http.StatusOK)
	})

	chain := middleware.RequestID(LoggerMiddleware(base)(handler))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	chain.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("LoggerMiddleware() status = %v, want %v", w.Code, http.StatusOK)
	}
	if capturedCtx == nil {
		t.Fatal("LoggerMiddleware() should capture context")
	}
	out := buf.String()
	for _, want := range []string{"method=GET", "path=/test", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
		shouldLog  bool
	}{
		{
			name:       "regular request",
			method:     http.MethodPost,
			path:       "/ask",
			statusCode: http.StatusOK,
			shouldLog:  true,
		},
		{
			name:       "health check skipped",
			method:     http.MethodGet,
			path:       "/health",
			statusCode: http.StatusOK,
			shouldLog:  false,
		},
		{
			name:       "failing health check logged",
			method:     http.MethodGet,
			path:       "/health",
			statusCode: http.StatusServiceUnavailable,
			shouldLog:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			chain := LoggerMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))(RequestLogger(handler))
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			chain.ServeHTTP(w, req)

			if w.Code != tt.statusCode {
				t.Errorf("RequestLogger() status = %v, want %v", w.Code, tt.statusCode)
			}
			if logged := strings.Contains(buf.String(), "request completed"); logged != tt.shouldLog {
				t.Errorf("RequestLogger() logged = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}

func TestResponseWriter_WriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("responseWriter.WriteHeader() statusCode = %v, want %v", rw.statusCode, http.StatusNotFound)
	}

	if w.Code != http.StatusNotFound {
		t.Errorf("responseWriter.WriteHeader() underlying status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager([]byte("middleware-secret"), "docqa", time.Hour)
	valid, _, err := tokens.Issue("user-1", "a@b.c")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		setup      func(users *storage_mocks.MockUserStore)
		wantStatus int
		wantTenant string
	}{
		{
			name:   "active user",
			header: "Bearer " + valid,
			setup: func(users *storage_mocks.MockUserStore) {
				users.EXPECT().GetByID(gomock.Any(), "user-1").Return(&storage.UserRecord{ID: "user-1", IsActive: true}, nil)
			},
			wantStatus: http.StatusOK,
			wantTenant: "user-1",
		},
		{
			name:   "inactive user",
			header: "Bearer " + valid,
			setup: func(users *storage_mocks.MockUserStore) {
				users.EXPECT().GetByID(gomock.Any(), "user-1").Return(&storage.UserRecord{ID: "user-1", IsActive: false}, nil)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "deleted user",
			header: "Bearer " + valid,
			setup: func(users *storage_mocks.MockUserStore) {
				users.EXPECT().GetByID(gomock.Any(), "user-1").Return(nil, storage.ErrNotFound)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "user store down",
			header: "Bearer " + valid,
			setup: func(users *storage_mocks.MockUserStore) {
				users.EXPECT().GetByID(gomock.Any(), "user-1").Return(nil, errors.New("database is locked"))
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.token", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			users := storage_mocks.NewMockUserStore(ctrl)
			if tt.setup != nil {
				tt.setup(users)
			}
			authn := service.NewAuthService(users, tokens, 0)

			var tenant string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tenant, _ = contextutil.TenantFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/documents/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			Authenticate(authn)(handler).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Authenticate() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tenant != tt.wantTenant {
				t.Errorf("tenant = %q, want %q", tenant, tt.wantTenant)
			}
			if tt.wantStatus == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	Metrics(m)(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "418")); got != 1 {
		t.Errorf("requests_total{GET,unmatched,418} = %v, want 1", got)
	}
}

func TestCORS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := CORS(handler)

	tests := []struct {
		name           string
		method         string
		origin         string
		wantStatusCode int
		checkHeaders   func(*httptest.ResponseRecorder) bool
	}{
		{
			name:           "preflight OPTIONS",
			method:         http.MethodOptions,
			origin:         "http://localhost:3000",
			wantStatusCode: http.StatusNoContent,
			checkHeaders: func(w *httptest.ResponseRecorder) bool {
				return w.Header().Get("Access-Control-Allow-Origin") != ""
			},
		},
		{
			name:           "request with origin",
			method:         http.MethodPost,
			origin:         "http://localhost:3000",
			wantStatusCode: http.StatusOK,
			checkHeaders: func(w *httptest.ResponseRecorder) bool {
				return w.Header().Get("Access-Control-Allow-Origin") == "http://localhost:3000"
			},
		},
		{
			name:           "request without origin",
			method:         http.MethodPost,
			origin:         "",
			wantStatusCode: http.StatusOK,
			checkHeaders: func(w *httptest.ResponseRecorder) bool {
				return w.Header().Get("Access-Control-Allow-Origin") == "*"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			middleware.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Errorf("CORS() status = %v, want %v", w.Code, tt.wantStatusCode)
			}

			if tt.checkHeaders != nil && !tt.checkHeaders(w) {
				t.Error("CORS() header validation failed")
			}
		})
	}
}

func TestCORS_Headers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := CORS(handler)

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	middleware.ServeHTTP(w, req)

	headers := map[string]string{
		"Access-Control-Allow-Origin":  "http://localhost:3000",
		"Access-Control-Allow-Methods": "GET, POST, DELETE, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization",
		"Access-Control-Max-Age":       "3600",
	}

	for header, wantValue := range headers {
		gotValue := w.Header().Get(header)
		if gotValue != wantValue {
			t.Errorf("CORS() header %s = %v, want %v", header, gotValue, wantValue)
		}
	}
}
