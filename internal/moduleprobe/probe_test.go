package moduleprobe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck_found(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "http.js"), []byte("// stub"), 0o644))
	t.Setenv(SearchPathEnvVar, dir)

	res := Check("http")
	assert.True(t, res.Available)
	assert.Equal(t, filepath.Join(dir, "http.js"), res.Location)
}

func TestCheck_missing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(SearchPathEnvVar, dir)

	res := Check("nope")
	assert.False(t, res.Available)
	assert.Contains(t, res.Message, "nope")
	assert.Contains(t, res.Message, SearchPathEnvVar)
}

func TestCheckAll_missingSubset(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "http.js"), []byte("// stub"), 0o644))
	t.Setenv(SearchPathEnvVar, dir)

	results, missing := CheckAll([]string{"http", "ghost"})
	assert.Len(t, results, 2)
	assert.Len(t, missing, 1)
	assert.Equal(t, "ghost", missing[0].Name)
}

func TestCheck_noSharedState(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir1, "a.js"), []byte(""), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir2, "b.js"), []byte(""), 0o644))

	t.Setenv(SearchPathEnvVar, dir1)
	first := Check("a")
	t.Setenv(SearchPathEnvVar, dir2)
	second := Check("a")

	assert.True(t, first.Available)
	assert.False(t, second.Available, "probe must not cache across calls")
}
