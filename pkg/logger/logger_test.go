package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_FileOutputWithContextFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	Init(Options{Level: "debug", Format: "json", Output: path})
	t.Cleanup(func() {
		_ = Close()
		Init(Options{Level: "info", Format: "json"})
	})

	ctx := WithContext(context.Background(), RequestIDKey, "req-42")
	ctx = WithContext(ctx, UserIDKey, "user-7")
	Error(ctx, "lookup failed", errors.New("boom"), "collection_id", "c1")
	Debug(ctx, "debug line")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"lookup failed"`)
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"user_id":"user-7"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"collection_id":"c1"`)
	assert.Contains(t, out, `"msg":"debug line"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "INFO", parseLevel("nonsense").String())
	assert.Equal(t, "DEBUG", parseLevel("DEBUG").String())
}
