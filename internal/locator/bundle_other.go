// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build !darwin

package locator

func bundleCandidates(exeDir, dist string) []string {
	return nil
}
