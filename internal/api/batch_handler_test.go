package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-batch/internal/api/middleware"
	"github.com/phrazzld/scry-batch/internal/api/shared"
	"github.com/phrazzld/scry-batch/internal/batch"
	"github.com/phrazzld/scry-batch/internal/mocks"
	"github.com/phrazzld/scry-batch/internal/platform/clock"
	"github.com/phrazzld/scry-batch/internal/ratelimit"
	"github.com/phrazzld/scry-batch/internal/retry"
	"github.com/phrazzld/scry-batch/internal/service"
	"github.com/phrazzld/scry-batch/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router    http.Handler
	generator *mocks.MockGenerator
	store     *mocks.MockBatchStore
	userID    uuid.UUID
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEnv wires the real pipeline behind the HTTP layer. Time only moves
// through the fake clock, so throttling costs nothing in wall time.
func newTestEnv(t *testing.T, gen *mocks.MockGenerator) *testEnv {
	t.Helper()

	fake := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig(), fake, discardLogger())
	executor := retry.NewExecutor(limiter, retry.DefaultConfig(), fake, discardLogger())
	processor := batch.NewProcessor(executor, batch.DefaultMaxItems, fake, discardLogger())

	batchStore := mocks.NewMockBatchStore()
	svc, err := service.NewBatchService(batchStore, nil, processor, gen, fake, discardLogger())
	require.NoError(t, err)

	userID := uuid.New()
	authMiddleware := middleware.NewAuthMiddleware(&mocks.MockJWTService{
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			switch token {
			case "owner":
				return &auth.Claims{UserID: userID}, nil
			case "other":
				return &auth.Claims{UserID: uuid.New()}, nil
			}
			return nil, auth.ErrInvalidToken
		},
	})

	handler := NewBatchHandler(svc, discardLogger())
	r := chi.NewRouter()
	r.Use(middleware.Trace(discardLogger()))
	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		handler.Routes(r)
	})

	return &testEnv{router: r, generator: gen, store: batchStore, userID: userID}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func batchItems(n int) []BatchItemRequest {
	out := make([]BatchItemRequest, n)
	for i := range out {
		out[i] = BatchItemRequest{
			ID:      fmt.Sprintf("doc-%d", i+1),
			Title:   fmt.Sprintf("Document %d", i+1),
			Content: fmt.Sprintf("content %d", i+1),
		}
	}
	return out
}

func decodeBatch(t *testing.T, rec *httptest.ResponseRecorder) BatchResponse {
	t.Helper()
	var resp BatchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestCreateBatch_AllSucceed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, mocks.NewMockGeneratorFailingOn(nil))

	rec := env.do(t, http.MethodPost, "/api/batches", "owner", CreateBatchRequest{Items: batchItems(2)})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBatch(t, rec)
	assert.Equal(t, string(batch.StatusCompleted), resp.Status)
	assert.Equal(t, 2, resp.Metadata.TotalDocuments)
	assert.Equal(t, 2, resp.Metadata.SuccessfulSummaries)
	assert.Zero(t, resp.Metadata.FailedSummaries)
	require.Len(t, resp.Summaries, 2)
	assert.Equal(t, "doc-1", resp.Summaries[0].ItemID)
	assert.Equal(t, "Document 1", resp.Summaries[0].ItemTitle)
	assert.Equal(t, "summary: content 1", resp.Summaries[0].Content)
	assert.NotEmpty(t, resp.Summaries[0].ResultID)
	assert.Empty(t, resp.Summaries[0].Error)

	_, err := uuid.Parse(resp.BatchID)
	assert.NoError(t, err)
}

func TestCreateBatch_QuotaExhaustionSkipsRemaining(t *testing.T) {
	t.Parallel()

	gen := mocks.NewMockGeneratorFailingOn(map[string]error{"content 2": mocks.QuotaError(0)})
	env := newTestEnv(t, gen)

	rec := env.do(t, http.MethodPost, "/api/batches", "owner", CreateBatchRequest{Items: batchItems(3)})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBatch(t, rec)
	assert.Equal(t, string(batch.StatusCompletedWithErrors), resp.Status)
	assert.Equal(t, 3, resp.Metadata.TotalDocuments)
	assert.Equal(t, 1, resp.Metadata.SuccessfulSummaries)
	assert.Equal(t, 2, resp.Metadata.FailedSummaries)

	require.Len(t, resp.Summaries, 3)
	assert.Equal(t, "completed", resp.Summaries[0].ProcessingStatus)
	assert.Equal(t, "error", resp.Summaries[1].ProcessingStatus)
	assert.Equal(t, batch.QuotaFailureMessage, resp.Summaries[1].Error)
	assert.Empty(t, resp.Summaries[1].ResultID)
	assert.Equal(t, batch.SkipReason, resp.Summaries[2].Error)
	assert.Zero(t, gen.CallsFor("content 3"))
}

func TestCreateBatch_FullBatchIsThrottled(t *testing.T) {
	t.Parallel()

	gen := mocks.NewMockGeneratorFailingOn(nil)
	env := newTestEnv(t, gen)

	rec := env.do(t, http.MethodPost, "/api/batches", "owner", CreateBatchRequest{Items: batchItems(20)})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBatch(t, rec)
	assert.Equal(t, 20, resp.Metadata.SuccessfulSummaries)
	assert.Equal(t, 20, gen.Calls())
	// Sixteen calls cannot fit in one 60s window.
	assert.GreaterOrEqual(t, resp.Metadata.ProcessingTime, int64(60_000))
}

func TestCreateBatch_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body interface{}
	}{
		{"too many items", CreateBatchRequest{Items: batchItems(21)}},
		{"no items", CreateBatchRequest{}},
		{"over requested max", CreateBatchRequest{Items: batchItems(3), MaxItems: 2}},
		{"missing content", CreateBatchRequest{Items: []BatchItemRequest{{ID: "a"}}}},
		{"missing id", CreateBatchRequest{Items: []BatchItemRequest{{Content: "text"}}}},
		{"unknown kind", CreateBatchRequest{Items: batchItems(1), Options: BatchOptionsRequest{Kind: "poem"}}},
		{"translation without language", CreateBatchRequest{
			Items:   batchItems(1),
			Options: BatchOptionsRequest{Kind: "translation"},
		}},
		{"malformed json", `{"items": [`},
		{"unknown field", `{"items": [], "priority": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gen := mocks.NewMockGeneratorWithResult("x")
			env := newTestEnv(t, gen)

			rec := env.do(t, http.MethodPost, "/api/batches", "owner", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeError(t, rec).Error)
			assert.Zero(t, gen.Calls())
		})
	}
}

func TestCreateBatch_RequiresAuthentication(t *testing.T) {
	t.Parallel()

	gen := mocks.NewMockGeneratorWithResult("x")
	env := newTestEnv(t, gen)

	rec := env.do(t, http.MethodPost, "/api/batches", "", CreateBatchRequest{Items: batchItems(1)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/batches", "forged", CreateBatchRequest{Items: batchItems(1)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Zero(t, gen.Calls())
}

func TestGetBatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, mocks.NewMockGeneratorFailingOn(nil))
	created := decodeBatch(t, env.do(t, http.MethodPost, "/api/batches", "owner",
		CreateBatchRequest{Items: batchItems(2)}))

	t.Run("owner", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/batches/"+created.BatchID, "owner", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBatch(t, rec)
		assert.Equal(t, created.BatchID, got.BatchID)
		assert.Equal(t, created.Summaries, got.Summaries)
	})

	t.Run("other user", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/batches/"+created.BatchID, "other", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown batch", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/batches/"+uuid.NewString(), "owner", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/batches/not-a-uuid", "owner", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid batch ID", decodeError(t, rec).Error)
	})
}

func TestGetBatch_StoreFailureIsHidden(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, mocks.NewMockGeneratorWithResult("x"))
	env.store.GetReportFn = func(context.Context, uuid.UUID, uuid.UUID) (*batch.Report, error) {
		return nil, errors.New("pq: connection to 10.0.0.5 refused")
	}

	rec := env.do(t, http.MethodGet, "/api/batches/"+uuid.NewString(), "owner", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "Failed to load batch", resp.Error)
	assert.NotEmpty(t, resp.TraceID)
}
