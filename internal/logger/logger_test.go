package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "debug", Format: "json", Output: &buf, ServiceName: "test-svc"})

	l.WithField("title", "Alien").Info("Poster resolved")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Poster resolved", lines[0]["message"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "test-svc", lines[0]["service"])
	assert.Equal(t, "Alien", lines[0]["title"])
	assert.Contains(t, lines[0], "timestamp")
	assert.Contains(t, lines[0]["file"], "logger_test.go:")
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "warn", Output: &buf})

	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestParseLevel_Fallback(t *testing.T) {
	assert.Equal(t, "info", parseLevel("").String())
	assert.Equal(t, "info", parseLevel("verbose").String())
	assert.Equal(t, "debug", parseLevel("debug").String())
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(&Config{Level: "info", Output: &buf, ServiceName: "api"})

	ctx := base.WithContext(context.Background())
	ctx = SetRequestID(ctx, "req-1")
	ctx = SetComponent(ctx, "search")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	CtxInfo(ctx, "Search completed: k=%d", 3)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Search completed: k=3", lines[0]["message"])
	assert.Equal(t, "req-1", lines[0][FieldRequestID])
	assert.Equal(t, "search", lines[0][FieldComponent])
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := GetDefault()
	SetDefaultLogger(New(&Config{Output: &buf, ServiceName: "default"}))
	t.Cleanup(func() { SetDefaultLogger(prev) })

	CtxWarn(context.Background(), "no logger in context")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "default", lines[0]["service"])
	assert.Equal(t, "", GetRequestID(context.Background()))
}

func TestEntry_MetricFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := New(&Config{Output: &buf}).WithContext(context.Background())

	With(Fields{"query": "comedia"}).
		WithCount(2).
		WithDuration(15).
		Info(ctx, "Search completed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "comedia", lines[0]["query"])
	assert.Equal(t, float64(2), lines[0][FieldCount])
	assert.Equal(t, float64(15), lines[0][FieldDurationMs])
}

func TestNewFromEnv_ExplicitOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromEnv(&EnvConfig{Level: "info", Format: "text", Output: &buf, ServiceName: "indexer", Environment: "prod", LogFile: "ignored.log"})

	l.Info("build started")
	assert.Contains(t, buf.String(), "build started")
	assert.Contains(t, buf.String(), "service=indexer")
	require.NoError(t, Sync())
}
