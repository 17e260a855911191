package common_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guarzo/repolookup/common"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want common.Kind
	}{
		{name: "nil", err: nil, want: common.KindNone},
		{name: "not found", err: fmt.Errorf("lookup: %w", common.ErrUserNotFound), want: common.KindUserNotFound},
		{name: "auth", err: fmt.Errorf("lookup: %w", common.ErrAuthFailure), want: common.KindAuthFailure},
		{name: "corruption", err: fmt.Errorf("decode: %w", common.ErrCacheCorruption), want: common.KindCacheCorruption},
		{name: "http 403", err: &common.HTTPError{StatusCode: http.StatusForbidden}, want: common.KindAuthFailure},
		{name: "http 502", err: &common.HTTPError{StatusCode: http.StatusBadGateway}, want: common.KindTransportError},
		{name: "raw error", err: errors.New("connection reset"), want: common.KindTransportError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, common.KindOf(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, common.IsRetryable(fmt.Errorf("x: %w", common.ErrTransport)))
	assert.False(t, common.IsRetryable(fmt.Errorf("x: %w", common.ErrAuthFailure)))
	assert.False(t, common.IsRetryable(fmt.Errorf("x: %w", common.ErrUserNotFound)))
	assert.False(t, common.IsRetryable(fmt.Errorf("x: %w", common.ErrInvalidInput)))
	assert.False(t, common.IsRetryable(context.Canceled))
	assert.False(t, common.IsRetryable(nil))
}
