package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleWatcher_ReportsCUEChanges(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "creatures")
	require.NoError(t, os.Mkdir(sub, 0o755))

	w, err := newRuleWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	target := filepath.Join(sub, "boar.cue")
	require.NoError(t, os.WriteFile(target, []byte("package rules\n"), 0o644))

	select {
	case got := <-w.Events:
		assert.Equal(t, target, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for changed rule file")
	}
}

func TestRuleWatcher_CloseIsIdempotent(t *testing.T) {
	w, err := newRuleWatcher(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, open := <-w.Events
	assert.False(t, open)
}

func TestRuleWatcher_MissingDir(t *testing.T) {
	_, err := newRuleWatcher(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestIsRuleFile(t *testing.T) {
	assert.True(t, isRuleFile("rules/boar.cue"))
	assert.True(t, isRuleFile("BOAR.CUE"))
	assert.False(t, isRuleFile("rules/boar.yaml"))
	assert.False(t, isRuleFile("rules"))
}
