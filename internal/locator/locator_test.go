// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLayout = Layout{Binary: "backend", Folder: "backend", DistDir: "dist"}

// newTree returns a temp root and an exe dir nested two levels deep so the
// dev-mode "../.." candidates stay inside the root.
func newTree(t *testing.T) (root, exeDir string) {
	t.Helper()
	root = t.TempDir()
	exeDir = filepath.Join(root, "target", "debug")
	require.NoError(t, os.MkdirAll(exeDir, 0755))
	return root, exeDir
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0644))
	return path
}

func TestLocator_NestedInExeDir(t *testing.T) {
	_, exeDir := newTree(t)
	want := touch(t, filepath.Join(exeDir, "backend", "backend"))

	got, found := New(exeDir, testLayout).Resolve()
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestLocator_NestedBeatsFlat(t *testing.T) {
	_, exeDir := newTree(t)
	layout := Layout{Binary: "backend", Folder: "pkg", DistDir: "dist"}
	touch(t, filepath.Join(exeDir, "backend"))
	nested := touch(t, filepath.Join(exeDir, "pkg", "backend"))

	got, found := New(exeDir, layout).Resolve()
	assert.True(t, found)
	assert.Equal(t, nested, got)
}

func TestLocator_FlatInExeDir(t *testing.T) {
	_, exeDir := newTree(t)
	want := touch(t, filepath.Join(exeDir, "backend"))

	got, found := New(exeDir, testLayout).Resolve()
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestLocator_DevModeDepths(t *testing.T) {
	root, exeDir := newTree(t)

	// ../dist relative to target/debug
	shallow := touch(t, filepath.Join(root, "target", "dist", "backend", "backend"))
	got, found := New(exeDir, testLayout).Resolve()
	require.True(t, found)
	assert.Equal(t, shallow, filepath.Clean(got))

	// ../../dist wins over ../dist
	deep := touch(t, filepath.Join(root, "dist", "backend"))
	got, found = New(exeDir, testLayout).Resolve()
	require.True(t, found)
	assert.Equal(t, deep, filepath.Clean(got))
}

func TestLocator_ExeDirBeatsDevMode(t *testing.T) {
	root, exeDir := newTree(t)
	touch(t, filepath.Join(root, "dist", "backend", "backend"))
	want := touch(t, filepath.Join(exeDir, "backend"))

	got, found := New(exeDir, testLayout).Resolve()
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestLocator_InstalledResources(t *testing.T) {
	tests := []struct {
		name string
		rel  []string
	}{
		{"resources dir nested", []string{"resources", "dist", "backend", "backend"}},
		{"resources dir flat", []string{"resources", "dist", "backend"}},
		{"up dir", []string{"_up_", "dist", "backend", "backend"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, exeDir := newTree(t)
			want := touch(t, filepath.Join(append([]string{exeDir}, tt.rel...)...))

			got, found := New(exeDir, testLayout).Resolve()
			assert.True(t, found)
			assert.Equal(t, want, got)
		})
	}
}

func TestLocator_ResourcePriority(t *testing.T) {
	_, exeDir := newTree(t)
	touch(t, filepath.Join(exeDir, "_up_", "dist", "backend"))
	want := touch(t, filepath.Join(exeDir, "resources", "dist", "backend"))

	got, _ := New(exeDir, testLayout).Resolve()
	assert.Equal(t, want, got)
}

func TestLocator_NotFoundFallback(t *testing.T) {
	_, exeDir := newTree(t)
	l := New(exeDir, testLayout)

	got, found := l.Resolve()
	assert.False(t, found)
	assert.Equal(t, filepath.Join(exeDir, "dist", "backend", "backend"), got)
	assert.Equal(t, got, l.Locate(), "fallback is deterministic")
}

func TestLocator_NonExecutableAccepted(t *testing.T) {
	_, exeDir := newTree(t)
	want := filepath.Join(exeDir, "backend")
	require.NoError(t, os.WriteFile(want, []byte("data"), 0600))

	got, found := New(exeDir, testLayout).Resolve()
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestLocator_CandidateOrder(t *testing.T) {
	l := New("/opt/app", testLayout)
	c := l.Candidates()

	require.GreaterOrEqual(t, len(c), 6)
	assert.Equal(t, "/opt/app", filepath.ToSlash(c[0]))
	assert.Equal(t, filepath.Join("/opt/app", "..", "..", "dist"), c[1])
	assert.Equal(t, filepath.Join("/opt/app", "..", "dist"), c[2])

	tail := c[len(c)-3:]
	assert.Equal(t, filepath.Join("/opt/app", "resources", "dist"), tail[0])
	assert.Equal(t, filepath.Join("/opt/app", "dist"), tail[1])
	assert.Equal(t, filepath.Join("/opt/app", "_up_", "dist"), tail[2])

	if runtime.GOOS == "darwin" {
		assert.Len(t, c, 9)
	} else {
		assert.Len(t, c, 6)
	}
}

func TestNew_Defaults(t *testing.T) {
	l := New("", Layout{})
	assert.Equal(t, ".", l.ExeDir())
	assert.Equal(t, DefaultLayout(), l.Layout())
}

func TestBinaryName(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.Equal(t, "app.exe", BinaryName("app"))
		assert.Equal(t, "app.exe", BinaryName("app.exe"))
	} else {
		assert.Equal(t, "app", BinaryName("app"))
	}
}
