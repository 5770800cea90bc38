package confirm

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchadmin/churchadmin/internal/backend"
)

func TestRequire(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, Require(ctx, Always, "delete?"))

	err := Require(ctx, Never, "delete?")
	require.ErrorIs(t, err, ErrNotConfirmed)
	assert.True(t, backend.IsValidation(err))

	require.ErrorIs(t, Require(ctx, nil, "delete?"), ErrNotConfirmed)
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer

			p := NewPrompt(strings.NewReader(tt.input), &out)
			assert.Equal(t, tt.want, p.Confirm(context.Background(), "Delete role Choir?"))
			assert.Equal(t, "Delete role Choir? [y/N]: ", out.String())
		})
	}
}

func TestPrompt_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrompt(strings.NewReader("y\n"), &bytes.Buffer{})
	assert.False(t, p.Confirm(ctx, "x"))
}
