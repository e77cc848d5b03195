// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build darwin

package locator

import "path/filepath"

// bundleCandidates lists the .app bundle resource directories. The shell
// binary lives in Contents/MacOS, so resources are one level up.
func bundleCandidates(exeDir, dist string) []string {
	return []string{
		filepath.Join(exeDir, "..", "Resources", "_up_", dist),
		filepath.Join(exeDir, "..", "Resources", dist),
		filepath.Join(exeDir, "..", "Resources"),
	}
}
