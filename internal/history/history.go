// Package history keeps the accumulated draw results on disk.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"lottoq/internal/lotto"
)

// Load reads the history file at path. A missing file is an empty history.
func Load(path string) ([]lotto.GameResult, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var games []lotto.GameResult
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", path, err)
	}
	return games, nil
}

// Save writes games to path, replacing the file atomically.
func Save(path string, games []lotto.GameResult) error {
	if games == nil {
		games = []lotto.GameResult{}
	}
	data, err := json.Marshal(games)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

// Merge combines old and updates, keyed by game number, sorted ascending.
// An update replaces an old entry for the same game.
func Merge(old, updates []lotto.GameResult) []lotto.GameResult {
	byGame := make(map[int]lotto.GameResult, len(old)+len(updates))
	for _, g := range old {
		byGame[g.GameNumber] = g
	}
	for _, g := range updates {
		byGame[g.GameNumber] = g
	}

	merged := make([]lotto.GameResult, 0, len(byGame))
	for _, g := range byGame {
		merged = append(merged, g)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].GameNumber < merged[j].GameNumber })
	return merged
}

// LastGame returns the highest game number in games, or 0.
func LastGame(games []lotto.GameResult) int {
	last := 0
	for _, g := range games {
		if g.GameNumber > last {
			last = g.GameNumber
		}
	}
	return last
}
