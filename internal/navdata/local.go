package navdata

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadDocDir ingests a locally built rustdoc tree (cargo doc's target/doc).
// It walks the crate's module directories for sidebar fragments and the
// trait.impl/ (or implementors/) tree for trait-impl fragments.
func LoadDocDir(dir, name, version string) (*CrateSnapshot, error) {
	root := CrateIdent(name)
	crateDir := filepath.Join(dir, root)
	if _, err := os.Stat(crateDir); err != nil {
		return nil, fmt.Errorf("no %s directory under %s: %w", root, dir, err)
	}

	snap := &CrateSnapshot{Name: name, Version: version}

	err := filepath.WalkDir(crateDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != "sidebar-items.js" {
			return nil
		}

		rel, err := filepath.Rel(dir, filepath.Dir(path))
		if err != nil {
			return err
		}
		module := strings.ReplaceAll(filepath.ToSlash(rel), "/", "::")

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		sidebar, err := ParseSidebar(data, module)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		snap.Sidebars = append(snap.Sidebars, *sidebar)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", crateDir, err)
	}

	for _, layout := range []string{"trait.impl", "implementors"} {
		implDir := filepath.Join(dir, layout)
		if _, err := os.Stat(implDir); err != nil {
			continue
		}
		if err := loadImplDir(implDir, snap); err != nil {
			return nil, err
		}
		break
	}

	return snap, nil
}

func loadImplDir(implDir string, snap *CrateSnapshot) error {
	return filepath.WalkDir(implDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() || !strings.HasPrefix(name, "trait.") || !strings.HasSuffix(name, ".js") {
			return nil
		}

		rel, err := filepath.Rel(implDir, filepath.Dir(path))
		if err != nil {
			return err
		}
		traitName := strings.TrimSuffix(strings.TrimPrefix(name, "trait."), ".js")
		traitPath := traitName
		if rel != "." {
			traitPath = strings.ReplaceAll(filepath.ToSlash(rel), "/", "::") + "::" + traitName
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		set, err := ParseImplementors(data, traitPath)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		snap.Impls = append(snap.Impls, *set)
		return nil
	})
}
