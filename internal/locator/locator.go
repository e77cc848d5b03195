// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package locator finds the backend executable shipped alongside the shell.
//
// Packaging tools lay the backend out differently depending on platform and
// on whether the shell runs from a build tree or an installed bundle. The
// locator probes a fixed, ordered list of base directories and, within each,
// a directory-per-binary layout before a flat one.
package locator

import (
	"os"
	"path/filepath"
	"runtime"
)

// Layout names the pieces of the backend's on-disk layout.
type Layout struct {
	Binary  string // executable file name, e.g. "python-backend.exe"
	Folder  string // directory-per-binary folder name
	DistDir string // build output directory holding the backend
}

// DefaultLayout returns the layout produced by the backend packaging step.
func DefaultLayout() Layout {
	return Layout{
		Binary:  BinaryName("python-backend"),
		Folder:  "python-backend",
		DistDir: "python-dist",
	}
}

// BinaryName appends the platform executable suffix to name.
func BinaryName(name string) string {
	if runtime.GOOS == "windows" && filepath.Ext(name) != ".exe" {
		return name + ".exe"
	}
	return name
}

// Locator resolves the backend executable path relative to the shell's
// install directory. It only probes the filesystem.
type Locator struct {
	exeDir string
	layout Layout
}

// New creates a locator rooted at exeDir. Empty layout fields fall back to
// DefaultLayout.
func New(exeDir string, layout Layout) *Locator {
	def := DefaultLayout()
	if layout.Binary == "" {
		layout.Binary = def.Binary
	}
	if layout.Folder == "" {
		layout.Folder = def.Folder
	}
	if layout.DistDir == "" {
		layout.DistDir = def.DistDir
	}
	if exeDir == "" {
		exeDir = "."
	}
	return &Locator{exeDir: exeDir, layout: layout}
}

// ExeDir returns the directory the locator probes from.
func (l *Locator) ExeDir() string {
	return l.exeDir
}

// Layout returns the layout being probed.
func (l *Locator) Layout() Layout {
	return l.layout
}

// Candidates returns the base directories in probe order:
// the shell's own directory, the dev-mode build outputs, the platform
// bundle resource directories, then the installed resource directories.
func (l *Locator) Candidates() []string {
	dist := l.layout.DistDir
	bases := []string{
		l.exeDir,
		filepath.Join(l.exeDir, "..", "..", dist),
		filepath.Join(l.exeDir, "..", dist),
	}
	bases = append(bases, bundleCandidates(l.exeDir, dist)...)
	bases = append(bases, resourceCandidates(l.exeDir, dist)...)
	return bases
}

// Resolve returns the first existing backend path and true, or the fallback
// path and false when no candidate exists.
func (l *Locator) Resolve() (string, bool) {
	for _, base := range l.Candidates() {
		if p, ok := l.probe(base); ok {
			return p, true
		}
	}
	return l.Fallback(), false
}

// Locate returns the resolved backend path. When nothing exists on disk it
// returns the fallback path so callers can report where it was expected.
func (l *Locator) Locate() string {
	p, _ := l.Resolve()
	return p
}

// Fallback is the deep installed path reported when nothing is found.
func (l *Locator) Fallback() string {
	return filepath.Join(l.exeDir, l.layout.DistDir, l.layout.Folder, l.layout.Binary)
}

func (l *Locator) probe(base string) (string, bool) {
	nested := filepath.Join(base, l.layout.Folder, l.layout.Binary)
	if exists(nested) {
		return nested, true
	}
	flat := filepath.Join(base, l.layout.Binary)
	if exists(flat) {
		return flat, true
	}
	return "", false
}

// exists reports whether path is present. Executability is not checked; a
// bad file surfaces as a spawn error instead.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExecutableDir returns the directory containing the running binary, with
// symlinks resolved. It falls back to "." when that cannot be determined.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// resourceCandidates lists the installed-resource directories used by the
// packaged installers on every platform.
func resourceCandidates(exeDir, dist string) []string {
	return []string{
		filepath.Join(exeDir, "resources", dist),
		filepath.Join(exeDir, dist),
		filepath.Join(exeDir, "_up_", dist),
	}
}
