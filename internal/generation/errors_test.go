package generation

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsQuotaError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "http 429", err: &ProviderError{Code: 429, Message: "slow down"}, want: true},
		{name: "resource exhausted status", err: &ProviderError{Code: 400, Status: "RESOURCE_EXHAUSTED"}, want: true},
		{name: "quota in provider message", err: &ProviderError{Code: 403, Message: "Quota exceeded for metric"}, want: true},
		{name: "wrapped provider error", err: fmt.Errorf("call failed: %w", &ProviderError{Code: 429}), want: true},
		{name: "plain rate limit message", err: errors.New("Rate limit reached for requests"), want: true},
		{name: "too many requests", err: errors.New("429 Too Many Requests"), want: true},
		{name: "server error", err: &ProviderError{Code: 500, Status: "INTERNAL", Message: "backend failure"}, want: false},
		{name: "blocked content", err: ErrContentBlocked, want: false},
		{name: "invalid response", err: fmt.Errorf("%w: empty candidates", ErrInvalidResponse), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsQuotaError(tc.err))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	d, ok := RetryAfter(fmt.Errorf("wrapped: %w", &ProviderError{Code: 429, RetryAfter: 30 * time.Second}))
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	_, ok = RetryAfter(&ProviderError{Code: 429})
	assert.False(t, ok)

	_, ok = RetryAfter(errors.New("quota"))
	assert.False(t, ok)
}

func TestProviderError_MessageAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("transport closed")
	err := &ProviderError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded", Err: cause}

	assert.Equal(t, "provider error 429 (RESOURCE_EXHAUSTED): quota exceeded", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "provider error", (&ProviderError{}).Error())
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "zero value", opts: Options{}},
		{name: "detailed document summary", opts: Options{Kind: KindDocumentSummary, Style: StyleDetailed, MaxWords: 300}},
		{name: "translation with language", opts: Options{Kind: KindTranslation, TargetLanguage: "French"}},
		{name: "translation without language", opts: Options{Kind: KindTranslation, TargetLanguage: "  "}, wantErr: true},
		{name: "unknown kind", opts: Options{Kind: "poem"}, wantErr: true},
		{name: "unknown style", opts: Options{Style: "haiku"}, wantErr: true},
		{name: "negative max words", opts: Options{MaxWords: -1}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.opts.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOptions)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	t.Parallel()

	opts := Options{TargetLanguage: " German "}.WithDefaults()

	assert.Equal(t, KindSummary, opts.Kind)
	assert.Equal(t, StyleBrief, opts.Style)
	assert.Equal(t, "German", opts.TargetLanguage)
}
