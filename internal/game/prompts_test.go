package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolPickAvoidsRepeatsUntilExhausted(t *testing.T) {
	p := NewPool([]Prompt{{ID: 1}, {ID: 2}, {ID: 3}})

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		pr := p.Pick()
		assert.False(t, seen[pr.ID], "prompt %d repeated within epoch", pr.ID)
		seen[pr.ID] = true
	}
	require.Len(t, seen, 3)

	// pool exhausted: next pick starts a fresh epoch instead of failing
	pr := p.Pick()
	assert.True(t, seen[pr.ID])
}

func TestLoadPool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"prompts":[{"id":7,"topic":"sea","text":"talk about the sea"}]}`), 0644))

	p, err := LoadPool(path)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	pr := p.Pick()
	assert.Equal(t, 7, pr.ID)
	assert.Equal(t, "sea", pr.Topic)
}

func TestLoadPoolErrors(t *testing.T) {
	_, err := LoadPool(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`not json`), 0644))
	_, err = LoadPool(bad)
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"prompts":[]}`), 0644))
	_, err = LoadPool(empty)
	require.Error(t, err)
}
