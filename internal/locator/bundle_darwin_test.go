// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build darwin

package locator

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocator_MacBundle(t *testing.T) {
	root := t.TempDir()
	exeDir := filepath.Join(root, "App.app", "Contents", "MacOS")
	want := touch(t, filepath.Join(root, "App.app", "Contents", "Resources", "_up_", "dist", "backend", "backend"))
	touch(t, filepath.Join(root, "App.app", "Contents", "Resources", "backend"))

	got, found := New(exeDir, testLayout).Resolve()
	require.True(t, found)
	assert.Equal(t, want, filepath.Clean(got))
}
