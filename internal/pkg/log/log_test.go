package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom_DefaultWhenEmpty(t *testing.T) {
	assert.Equal(t, slog.Default(), From(context.Background()))
}

func TestIntoFrom_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := Into(context.Background(), l)
	assert.Same(t, l, From(ctx))
}

func TestNew_JSONLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", true, &buf)

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown", "source", "nhk")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "nhk", rec["source"])
}
