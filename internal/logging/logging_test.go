package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.Info("hello", String("k", "v"), Int("n", 3))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, "hello", out["message"])
	require.Equal(t, "v", out["k"])
	require.Equal(t, float64(3), out["n"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Info("should be dropped")
	require.Empty(t, buf.String())

	log.Warn("should appear")
	require.Contains(t, buf.String(), "should appear")
}

func TestErrorIncludesErrField(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "error")

	log.Error("failed", errors.New("boom"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, "boom", out["error"])
}

func TestWithAppliesStaticFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info").With(String("component", "test"))

	log.Info("hi")

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, "test", out["component"])
}

func TestUnrecognizedLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "not-a-real-level")

	log.Info("visible")
	require.Contains(t, buf.String(), "visible")
}
