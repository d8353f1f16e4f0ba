package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// ManifestName is the sequence file read from a script location.
	ManifestName = ".seq"
	// ModulesSentinel is the manifest line replaced by the module directories.
	ModulesSentinel = "$modules"
	// Ext is the script file extension.
	Ext = ".lua"
)

// Discover returns the script files of every location in load order.
// Locations that do not exist contribute nothing.
func Discover(locations []string, modulesDir string) ([]string, error) {
	modules, err := ModuleDirs(modulesDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, loc := range locations {
		found, err := discoverLocation(loc, modules)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", loc, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

func discoverLocation(loc string, modules []string) ([]string, error) {
	if _, err := os.Stat(loc); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	manifest := filepath.Join(loc, ManifestName)
	f, err := os.Open(manifest)
	if errors.Is(err, fs.ErrNotExist) {
		return CollectScripts(loc)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var files []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case line == ModulesSentinel:
			for _, dir := range modules {
				found, err := CollectScripts(dir)
				if err != nil {
					return nil, err
				}
				files = append(files, found...)
			}
		default:
			found, err := CollectScripts(filepath.Join(loc, line))
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", manifest, err)
	}
	return files, nil
}

// CollectScripts returns path itself when it is a script file, or every
// script under it in lexical walk order.
func CollectScripts(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if filepath.Ext(path) != Ext {
			return nil, nil
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == Ext {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// ModuleDirs lists the immediate subdirectories of root, sorted by name.
// A missing root yields no modules.
func ModuleDirs(root string) ([]string, error) {
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read modules: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
