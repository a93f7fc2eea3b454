package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
	"github.com/nimbusforge/s3logforwarder/internal/metrics"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadForwardingLocalIndexesByFileStem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "my-bucket.yaml"), `
- name: r1
  key_pattern: "^app/"
  source_kind: generic
`)

	idx, err := LoadForwardingLocal(dir, testLog(), testMetrics())
	require.NoError(t, err)
	require.Len(t, idx.Bucket("my-bucket"), 1)
	require.Equal(t, "r1", idx.Bucket("my-bucket")[0].Name)
}

func TestLoadForwardingLocalSkipsUnparsableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.yaml"), "not: [valid yaml sequence")

	m := metrics.New(prometheus.NewRegistry())
	idx, err := LoadForwardingLocal(dir, testLog(), m)
	require.NoError(t, err)
	require.Empty(t, idx.Bucket("bad"))
}

func TestLoadForwardingLocalMissingDirIsConfigSourceUnavailable(t *testing.T) {
	_, err := LoadForwardingLocal(filepath.Join(t.TempDir(), "nope"), testLog(), testMetrics())
	require.ErrorIs(t, err, ErrConfigSourceUnavailable)
}

func TestLoadProcessingLocalMergesBuiltinsAndWalksTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "custom", "myapp.yaml"), `
name: myapp
source_kind: custom
log_format: text
`)

	idx, err := LoadProcessingLocal(dir, testLog(), testMetrics())
	require.NoError(t, err)

	r, ok := idx.Lookup(SourceCustom, "myapp")
	require.True(t, ok)
	require.Equal(t, "myapp", r.Name)

	_, ok = idx.Lookup(SourceGeneric, "generic")
	require.True(t, ok)
	require.NotEmpty(t, idx.AWSRules())
}

func TestLoadProcessingLocalIgnoresNonRuleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "not a rule")

	idx, err := LoadProcessingLocal(dir, testLog(), testMetrics())
	require.NoError(t, err)
	_, ok := idx.Lookup(SourceCustom, "README")
	require.False(t, ok)
}
