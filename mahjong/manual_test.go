package mahjong

import (
	"os"
	"path/filepath"
	"testing"
)

type countingShuffler struct{ calls int }

func (c *countingShuffler) Shuffle(tiles []Tile, banker int) error {
	c.calls++
	return nil
}

func TestManualShufflerDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deal.yaml")
	if err := os.WriteFile(path, []byte("enable: false\ncards:\n  - \"1d 1d 1d\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fallback := &countingShuffler{}
	m, err := NewManualShuffler(path, fallback)
	if err != nil {
		t.Fatal(err)
	}
	if m.Enabled() {
		t.Error("disabled deal reported enabled")
	}
	if err := m.Shuffle(NewTileSet(), 0); err != nil || fallback.calls != 1 {
		t.Errorf("fallback not used: calls=%d err=%v", fallback.calls, err)
	}

	if _, err := NewManualShuffler(filepath.Join(t.TempDir(), "missing.yaml"), fallback); err == nil {
		t.Error("missing deal file loaded")
	}
	var nilManual *ManualShuffler
	if nilManual.Enabled() {
		t.Error("nil shuffler enabled")
	}
}
