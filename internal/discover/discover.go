// Package discover walks a Phoenix workspace and classifies its source files.
package discover

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies a discovered file.
type Kind string

const (
	// Source is an Elixir source file (.ex, .exs).
	Source Kind = "source"
	// Template is a file-based template (.heex, .html.heex, .eex).
	Template Kind = "template"
)

// IGNORE_PATTERNS are directory names to skip during discovery.
var IGNORE_PATTERNS = map[string]bool{
	"_build": true, "deps": true, "node_modules": true, "priv": true,
	".git": true, ".hg": true, ".svn": true, ".elixir_ls": true,
	".elixir-tools": true, ".lexical": true, "cover": true, "doc": true,
	".idea": true, ".vscode": true, "tmp": true, ".tmp": true,
}

// IGNORE_SUFFIXES are file suffixes to skip.
var IGNORE_SUFFIXES = map[string]bool{
	".beam": true, "~": true, ".swp": true, ".tmp": true,
}

// FileInfo represents a discovered workspace file.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // relative to workspace root, slash-separated
	Kind    Kind
}

// Options configures discovery.
type Options struct {
	// ExtraIgnore holds additional glob patterns (from .phxindexrc).
	ExtraIgnore []string
	// IgnoreFile overrides the default .phxindexignore location.
	IgnoreFile string
}

// KindForPath classifies a path by extension, or "" if not indexable.
func KindForPath(path string) Kind {
	switch {
	case strings.HasSuffix(path, ".heex"), strings.HasSuffix(path, ".eex"):
		return Template
	case strings.HasSuffix(path, ".ex"), strings.HasSuffix(path, ".exs"):
		return Source
	}
	return ""
}

func shouldSkipDir(name, rel string, extraIgnore []string) bool {
	if IGNORE_PATTERNS[name] {
		return true
	}
	for _, pattern := range extraIgnore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Discover walks a workspace and returns all indexable files.
func Discover(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var extraIgnore []string
	ignPath := filepath.Join(root, ".phxindexignore")
	if opts != nil && opts.IgnoreFile != "" {
		ignPath = opts.IgnoreFile
	}
	extraIgnore, _ = loadIgnoreFile(ignPath)
	if opts != nil {
		extraIgnore = append(extraIgnore, opts.ExtraIgnore...)
	}

	var files []FileInfo
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(root, path)

		if info.IsDir() {
			if shouldSkipDir(info.Name(), rel, extraIgnore) {
				return filepath.SkipDir
			}
			return nil
		}

		for suffix := range IGNORE_SUFFIXES {
			if strings.HasSuffix(path, suffix) {
				return nil
			}
		}

		if kind := KindForPath(path); kind != "" {
			files = append(files, FileInfo{
				Path:    path,
				RelPath: filepath.ToSlash(rel),
				Kind:    kind,
			})
		}
		return nil
	})

	return files, err
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
