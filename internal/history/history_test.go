package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lottoq/internal/lotto"
)

func game(n int) lotto.GameResult {
	return lotto.GameResult{GameNumber: n, GameDate: "2002/12/07", GameResult: []int{1, 2, 3, 4, 5, n}}
}

func TestLoad_MissingFile(t *testing.T) {
	games, err := Load(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	want := []lotto.GameResult{game(1), game(2)}

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"gameNumber":1`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestSave_EmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, Save(path, nil))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "decode history")
}

func TestMerge(t *testing.T) {
	replaced := game(2)
	replaced.GameDate = "2002/12/14"

	merged := Merge([]lotto.GameResult{game(3), game(1), game(2)}, []lotto.GameResult{game(5), replaced, game(4)})

	require.Len(t, merged, 5)
	for i, g := range merged {
		assert.Equal(t, i+1, g.GameNumber)
	}
	assert.Equal(t, "2002/12/14", merged[1].GameDate)
	assert.Empty(t, Merge(nil, nil))
}

func TestLastGame(t *testing.T) {
	assert.Equal(t, 0, LastGame(nil))
	assert.Equal(t, 9, LastGame([]lotto.GameResult{game(4), game(9), game(2)}))
}
