package ranker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(t *testing.T, script string) *Process {
	t.Helper()
	p, err := New(Config{
		Name:    "test",
		Command: []string{"/bin/sh", "-c", script, "sh"},
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return p
}

func requireFailure(t *testing.T, err error, reason Reason) *FailureError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRankingFailed)

	var fe *FailureError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, reason, fe.Reason)
	return fe
}

func TestProcessRank(t *testing.T) {
	t.Run("PassesArgument", func(t *testing.T) {
		p := shell(t, `printf '["%s","b"]' "$1"`)
		ids, err := p.Rank(t.Context(), "first")
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "b"}, ids)
	})

	t.Run("EmptyArrayIsSuccess", func(t *testing.T) {
		p := shell(t, `echo '[]'`)
		ids, err := p.Rank(t.Context(), "nothing")
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		p := shell(t, `echo '["a"]'; exit 3`)
		_, err := p.Rank(t.Context(), "q")
		fe := requireFailure(t, err, ReasonExit)
		assert.Equal(t, 3, fe.ExitCode)
	})

	t.Run("AnyStderr", func(t *testing.T) {
		p := shell(t, `echo warning >&2; echo '["a"]'`)
		_, err := p.Rank(t.Context(), "q")
		fe := requireFailure(t, err, ReasonStderr)
		assert.Equal(t, "warning\n", fe.Stderr)
	})

	t.Run("Timeout", func(t *testing.T) {
		p, err := New(Config{
			Name:    "test",
			Command: []string{"/bin/sh", "-c", "exec sleep 5", "sh"},
			Timeout: 100 * time.Millisecond,
		})
		require.NoError(t, err)

		start := time.Now()
		_, err = p.Rank(t.Context(), "q")
		requireFailure(t, err, ReasonTimeout)
		assert.Less(t, time.Since(start), 3*time.Second)
	})

	t.Run("CallerCanceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		p := shell(t, `echo '[]'`)
		_, err := p.Rank(ctx, "q")
		requireFailure(t, err, ReasonCanceled)
	})

	t.Run("StartFailure", func(t *testing.T) {
		p, err := New(Config{Command: []string{"/nonexistent/ranker"}})
		require.NoError(t, err)
		_, err = p.Rank(t.Context(), "q")
		requireFailure(t, err, ReasonStart)
	})

	t.Run("OutputCap", func(t *testing.T) {
		p, err := New(Config{
			Command:        []string{"/bin/sh", "-c", `echo '["abcdef"]'`, "sh"},
			MaxOutputBytes: 4,
		})
		require.NoError(t, err)
		_, err = p.Rank(t.Context(), "q")
		requireFailure(t, err, ReasonSchema)
	})
}

func TestProcessRankSchema(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "Object", script: `echo '{"ids":["a"]}'`},
		{name: "Null", script: `echo null`},
		{name: "NoOutput", script: `true`},
		{name: "NumberItems", script: `echo '[1,2]'`},
		{name: "EmptyItem", script: `echo '["a",""]'`},
		{name: "Duplicate", script: `echo '["a","a"]'`},
		{name: "TrailingData", script: `echo '["a"] ["b"]'`},
		{name: "NotJSON", script: `echo 'a,b'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shell(t, tt.script).Rank(t.Context(), "q")
			requireFailure(t, err, ReasonSchema)
		})
	}
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	p, err := New(Config{Command: []string{"ranker"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, p.cfg.Timeout)
	assert.Equal(t, DefaultMaxOutputBytes, p.cfg.MaxOutputBytes)
}

func TestLimitedBuffer(t *testing.T) {
	b := newLimitedBuffer(5)
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, b.Overflow())

	n, err = b.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.True(t, b.Overflow())
	assert.Equal(t, "abcde", b.String())
}
