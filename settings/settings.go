// Package settings persists UI preferences as a TOML document.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Settings are the user-tunable preferences. Unknown keys in the file are
// ignored on load and dropped on the next save.
type Settings struct {
	Theme            string  `toml:"theme" json:"theme"`
	ShowHidden       bool    `toml:"show_hidden" json:"showHidden"`
	DefaultPath      string  `toml:"default_path" json:"defaultPath"`
	SortFoldersFirst bool    `toml:"sort_folders_first" json:"sortFoldersFirst"`
	SidebarWidth     int     `toml:"sidebar_width" json:"sidebarWidth"`
	PaneSplit        float64 `toml:"pane_split" json:"paneSplit"`
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{
		Theme:            "system",
		ShowHidden:       false,
		DefaultPath:      "local://",
		SortFoldersFirst: true,
		SidebarWidth:     240,
		PaneSplit:        0.5,
	}
}

// Load reads the settings file. A missing file yields the defaults; a
// malformed file is an error rather than a silent reset.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	s := Default()
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// Save writes the settings atomically: marshal to a sibling temp file,
// then rename over the target.
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
