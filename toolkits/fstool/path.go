// Package fstool implements the workspace file tools list_files and read_file. Every
// path is resolved against the task's working directory and may not leave it.
package fstool

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideWorkdir is returned for paths that resolve outside the working directory.
var ErrOutsideWorkdir = errors.New("path is outside the working directory")

// Resolve joins path onto workdir and returns the absolute result. Absolute paths are
// accepted when they stay inside workdir.
func Resolve(workdir, path string) (string, error) {
	if workdir == "" {
		workdir = "."
	}
	base, err := filepath.Abs(workdir)
	if err != nil {
		return "", fmt.Errorf("resolve workdir: %w", err)
	}
	target := filepath.FromSlash(path)
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkdir, path)
	}
	return target, nil
}

// display renders target relative to workdir with forward slashes.
func display(workdir, target string) string {
	base, err := filepath.Abs(workdir)
	if err != nil {
		return filepath.ToSlash(target)
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}
