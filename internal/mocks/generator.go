package mocks

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/phrazzld/scry-batch/internal/generation"
)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateFn allows test cases to mock the Generate behavior
	GenerateFn func(ctx context.Context, content string, opts generation.Options) (string, error)

	// Default response values
	Result string
	Err    error

	// mu protects the call tracking state for concurrent test cases
	mu       sync.Mutex
	contents []string
	options  []generation.Options
}

var _ generation.Generator = (*MockGenerator)(nil)

// Generate implements the generation.Generator interface
func (m *MockGenerator) Generate(ctx context.Context, content string, opts generation.Options) (string, error) {
	m.mu.Lock()
	m.contents = append(m.contents, content)
	m.options = append(m.options, opts)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, content, opts)
	}

	return m.Result, m.Err
}

// Calls returns how many times Generate was called.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contents)
}

// CallsFor returns how many times Generate was called with content.
func (m *MockGenerator) CallsFor(content string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.contents {
		if c == content {
			n++
		}
	}
	return n
}

// LastOptions returns the options of the most recent call.
func (m *MockGenerator) LastOptions() generation.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.options) == 0 {
		return generation.Options{}
	}
	return m.options[len(m.options)-1]
}

// NewMockGeneratorWithResult creates a MockGenerator that always returns result
func NewMockGeneratorWithResult(result string) *MockGenerator {
	return &MockGenerator{Result: result}
}

// NewMockGeneratorWithError creates a MockGenerator that always returns err
func NewMockGeneratorWithError(err error) *MockGenerator {
	return &MockGenerator{Err: err}
}

// QuotaError returns a provider error that classifies as a quota failure.
func QuotaError(retryAfter time.Duration) error {
	return &generation.ProviderError{
		Code:       http.StatusTooManyRequests,
		Status:     "RESOURCE_EXHAUSTED",
		Message:    "quota exceeded for requests per minute",
		RetryAfter: retryAfter,
	}
}

// NewMockGeneratorFailingOn creates a MockGenerator that succeeds with
// "summary: <content>" except for content listed in failures, which
// returns the mapped error.
func NewMockGeneratorFailingOn(failures map[string]error) *MockGenerator {
	return &MockGenerator{
		GenerateFn: func(_ context.Context, content string, _ generation.Options) (string, error) {
			if err, ok := failures[content]; ok {
				return "", err
			}
			return "summary: " + content, nil
		},
	}
}
