package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-batch/internal/batch"
	"github.com/phrazzld/scry-batch/internal/store"
)

// MockBatchStore implements store.BatchStore for testing.
// Without function fields it behaves like an in-memory store.
type MockBatchStore struct {
	CreateFn     func(ctx context.Context, b *store.Batch) error
	SaveReportFn func(ctx context.Context, report *batch.Report) error
	GetReportFn  func(ctx context.Context, batchID, userID uuid.UUID) (*batch.Report, error)

	mu      sync.Mutex
	batches map[uuid.UUID]*store.Batch
	reports map[uuid.UUID]*batch.Report
}

var _ store.BatchStore = (*MockBatchStore)(nil)

// NewMockBatchStore creates a new mock store with initialized defaults
func NewMockBatchStore() *MockBatchStore {
	return &MockBatchStore{
		batches: make(map[uuid.UUID]*store.Batch),
		reports: make(map[uuid.UUID]*batch.Report),
	}
}

// Create implements the BatchStore interface
func (m *MockBatchStore) Create(ctx context.Context, b *store.Batch) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, b)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	if _, exists := m.batches[b.ID]; exists {
		return store.ErrBatchExists
	}
	saved := *b
	m.batches[b.ID] = &saved
	return nil
}

// SaveReport implements the BatchStore interface
func (m *MockBatchStore) SaveReport(ctx context.Context, report *batch.Report) error {
	if m.SaveReportFn != nil {
		return m.SaveReportFn(ctx, report)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	b, ok := m.batches[report.BatchID]
	if !ok {
		return store.ErrBatchNotFound
	}
	b.Status = report.Status
	saved := *report
	saved.Outcomes = append([]batch.ItemOutcome(nil), report.Outcomes...)
	m.reports[report.BatchID] = &saved
	return nil
}

// GetReport implements the BatchStore interface
func (m *MockBatchStore) GetReport(ctx context.Context, batchID, userID uuid.UUID) (*batch.Report, error) {
	if m.GetReportFn != nil {
		return m.GetReportFn(ctx, batchID, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	b, ok := m.batches[batchID]
	if !ok || b.UserID != userID {
		return nil, store.ErrBatchNotFound
	}
	if r, ok := m.reports[batchID]; ok {
		out := *r
		return &out, nil
	}
	return &batch.Report{
		BatchID:    b.ID,
		Status:     b.Status,
		TotalItems: b.TotalItems,
		StartedAt:  b.StartedAt,
		Outcomes:   []batch.ItemOutcome{},
	}, nil
}

// WithTx implements the BatchStore interface; the mock ignores transactions.
func (m *MockBatchStore) WithTx(_ *sql.Tx) store.BatchStore {
	return m
}

// Batch returns the saved header for id, if any.
func (m *MockBatchStore) Batch(id uuid.UUID) (*store.Batch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	return b, ok
}

func (m *MockBatchStore) init() {
	if m.batches == nil {
		m.batches = make(map[uuid.UUID]*store.Batch)
	}
	if m.reports == nil {
		m.reports = make(map[uuid.UUID]*batch.Report)
	}
}
