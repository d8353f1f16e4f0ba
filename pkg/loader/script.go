package loader

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Script is one handler source file.
type Script struct {
	ID       string
	Path     string
	Source   string
	Depends  []string
	Triggers []string
}

// Header directives.
const (
	directiveDepends = "depends"
	directiveTrigger = "trigger"
)

// ParseHeader reads the leading comment block of a script.
// Parsing stops at the first line that is neither blank nor a "--" comment.
func ParseHeader(src string) (depends, triggers []string) {
	sc := bufio.NewScanner(strings.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		comment, ok := strings.CutPrefix(line, "--")
		if !ok {
			break
		}
		key, value, ok := strings.Cut(comment, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case directiveDepends:
			depends = append(depends, splitList(value)...)
		case directiveTrigger:
			triggers = append(triggers, splitList(value)...)
		}
	}
	return depends, triggers
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ScriptID derives a script id from its file name.
func ScriptID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Load reads a script and its header.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("load script %s: %w", path, err)
	}
	src := string(data)
	depends, triggers := ParseHeader(src)
	return Script{
		ID:       ScriptID(path),
		Path:     path,
		Source:   src,
		Depends:  depends,
		Triggers: triggers,
	}, nil
}

// LoadDir loads every script under dir in discovery order.
// A missing dir yields no scripts.
func LoadDir(dir string) ([]Script, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	paths, err := CollectScripts(dir)
	if err != nil {
		return nil, err
	}

	scripts := make([]Script, 0, len(paths))
	for _, p := range paths {
		s, err := Load(p)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}
