package patch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-cccv/debug"
)

const timestampLayout = "2006-01-02_15-04-05"

// Untitled is used when saving without a patch name
const Untitled = "untitled"

// SaveInfo represents a saved patch file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// PatchesDir returns the patches directory path
func PatchesDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-cccv", "patches"), nil
}

// PatchDir returns the path to a specific patch
func PatchDir(name string) (string, error) {
	base, err := PatchesDir()
	if err != nil {
		return "", err
	}
	name = sanitizeFilename(name)
	if name == "" {
		name = Untitled
	}
	return filepath.Join(base, name), nil
}

// ListPatches returns all patch folder names
func ListPatches() ([]string, error) {
	dir, err := PatchesDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var patches []string
	for _, entry := range entries {
		if entry.IsDir() {
			patches = append(patches, entry.Name())
		}
	}

	sort.Strings(patches)
	return patches, nil
}

// ListSaves returns timestamped saves for a patch, newest first
func ListSaves(name string) ([]SaveInfo, error) {
	dir, err := PatchDir(name)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseFilename(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	// Newest first; same-second saves fall back to the name
	sort.Slice(saves, func(i, j int) bool {
		if !saves[i].Timestamp.Equal(saves[j].Timestamp) {
			return saves[i].Timestamp.After(saves[j].Timestamp)
		}
		return saves[i].Filename > saves[j].Filename
	})

	return saves, nil
}

// parseFilename reads 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_label.json
func parseFilename(filename string) (SaveInfo, bool) {
	if !strings.HasSuffix(filename, ".json") {
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(filename, ".json")
	if len(base) < len(timestampLayout) {
		return SaveInfo{}, false
	}

	ts, err := time.ParseInLocation(timestampLayout, base[:len(timestampLayout)], time.Local)
	if err != nil {
		return SaveInfo{}, false
	}

	label := ""
	if rest := base[len(timestampLayout):]; len(rest) > 1 && rest[0] == '_' {
		label = rest[1:]
	}
	return SaveInfo{Filename: filename, Name: label, Timestamp: ts}, true
}

// Save writes state into the patch folder under the current time
func Save(name string, state any) (SaveInfo, error) {
	return saveAt(name, state, time.Now())
}

func saveAt(name string, state any, now time.Time) (SaveInfo, error) {
	if name == "" {
		name = Untitled
	}

	dir, err := PatchDir(name)
	if err != nil {
		return SaveInfo{}, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return SaveInfo{}, fmt.Errorf("create patch %q: %w", name, err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return SaveInfo{}, fmt.Errorf("encode patch %q: %w", name, err)
	}

	info := SaveInfo{
		Filename:  now.Format(timestampLayout) + ".json",
		Timestamp: now.Truncate(time.Second),
	}
	path := filepath.Join(dir, info.Filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return SaveInfo{}, fmt.Errorf("write patch %q: %w", name, err)
	}

	debug.Log("patch", "saved %s/%s", name, info.Filename)
	return info, nil
}

// Load reads a specific save (or the most recent if filename is empty)
// into state
func Load(name, filename string, state any) error {
	dir, err := PatchDir(name)
	if err != nil {
		return err
	}

	if filename == "" {
		saves, err := ListSaves(name)
		if err != nil {
			return err
		}
		if len(saves) == 0 {
			return fmt.Errorf("no saves found in patch %s", name)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, state); err != nil {
		return fmt.Errorf("load %s/%s: %w", name, filename, err)
	}

	debug.Log("patch", "loaded %s/%s", name, filename)
	return nil
}

// DeleteSave deletes a specific save file
func DeleteSave(name, filename string) error {
	dir, err := PatchDir(name)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(dir, filepath.Base(filename)))
}

// RenameSave changes the label part of a save file, keeping its timestamp.
// It returns the new filename.
func RenameSave(name, oldFilename, label string) (string, error) {
	dir, err := PatchDir(name)
	if err != nil {
		return "", err
	}

	info, ok := parseFilename(oldFilename)
	if !ok {
		return "", fmt.Errorf("invalid save filename %q", oldFilename)
	}

	ts := info.Timestamp.Format(timestampLayout)
	newFilename := ts + ".json"
	if label = sanitizeFilename(label); label != "" {
		newFilename = ts + "_" + label + ".json"
	}

	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", err
	}
	return newFilename, nil
}

// DeletePatch deletes an entire patch folder
func DeletePatch(name string) error {
	dir, err := PatchDir(name)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, ":", "-")
	for _, c := range []string{"*", "?", "\"", "<", ">", "|"} {
		name = strings.ReplaceAll(name, c, "")
	}
	if name == "." || name == ".." {
		return ""
	}
	return name
}
