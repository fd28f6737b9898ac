package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"luxora/internal/core/config"
)

func TestJSONOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l, done := build(config.Log{Level: "warn", JSON: true}, zapcore.AddSync(&buf))
	l.Info("hidden")
	l.Warn("stock rejected", zap.String("product", "p1"))
	done()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "stock rejected", rec["msg"])
	assert.Equal(t, "p1", rec["product"])
	assert.Contains(t, rec, "ts")
}

func TestBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, done := build(config.Log{Level: "loud", JSON: true}, zapcore.AddSync(&buf))
	l.Debug("nope")
	l.Info("yes")
	done()
	assert.NotContains(t, buf.String(), "nope")
	assert.Contains(t, buf.String(), "yes")
}

func TestFileSinkWritesAlongsideStdout(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "luxora.log")
	l, done := build(config.Log{Level: "info", JSON: true, File: config.LogFile{Enable: true, Filename: path}}, zapcore.AddSync(&buf))
	l.Info("order placed", zap.String("order", "o1"))
	done()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"order":"o1"`)
	assert.Contains(t, buf.String(), `"order":"o1"`)
}

func TestToWriterTrimsNewline(t *testing.T) {
	var buf bytes.Buffer
	l, done := build(config.Log{Level: "debug", JSON: true}, zapcore.AddSync(&buf))
	w := ToWriter(l, zapcore.InfoLevel)
	n, err := w.Write([]byte("[GIN-debug] route\n"))
	done()
	require.NoError(t, err)
	assert.Equal(t, 18, n)
	assert.Contains(t, buf.String(), `"msg":"[GIN-debug] route"`)
}
