package navdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/rustnav/rustnav/internal/config"
)

func snapshotCachePath(name, version string) string {
	return filepath.Join(config.FragmentCacheDir(), name+"_"+version+".json.zst")
}

// SaveSnapshotCache compresses and saves a parsed snapshot to disk, so
// repeat queries don't re-walk docs.rs.
func SaveSnapshotCache(snap *CrateSnapshot) error {
	dir := config.FragmentCacheDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating fragment cache dir: %w", err)
	}

	f, err := os.Create(snapshotCachePath(snap.Name, snap.Version))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		w.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// LoadSnapshotCache loads and decompresses a cached snapshot from disk.
func LoadSnapshotCache(name, version string) (*CrateSnapshot, error) {
	f, err := os.Open(snapshotCachePath(name, version))
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	var snap CrateSnapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return &snap, nil
}

// HasSnapshotCache checks whether a cached snapshot exists on disk.
func HasSnapshotCache(name, version string) bool {
	_, err := os.Stat(snapshotCachePath(name, version))
	return err == nil
}

// RemoveSnapshotCache deletes a cached snapshot. Missing entries are not an
// error.
func RemoveSnapshotCache(name, version string) error {
	err := os.Remove(snapshotCachePath(name, version))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}
