// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/sidecar/internal/config"
)

func TestGenerateConfig_Parses(t *testing.T) {
	out := generateConfig(initAnswers{Port: 1500, Binary: `my "backend"`, StopSignal: "SIGTERM"})

	cfg, err := config.Parse([]byte(out))
	require.NoError(t, err)

	assert.Equal(t, 1500, cfg.Server.Port)
	assert.Equal(t, `my "backend"`, cfg.Backend.Binary)
	assert.Equal(t, "SIGTERM", cfg.Backend.StopSignal)
	assert.Equal(t, "python-dist", cfg.Backend.DistDir)
	assert.Equal(t, ".env", cfg.Settings.File)
	assert.True(t, cfg.Settings.IsWatching())
	config.ApplyDefaults(cfg)
	require.NoError(t, config.NewValidator().Validate(cfg))
}

func TestAskInit(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a := askInit(bufio.NewReader(strings.NewReader("\n\n\n")), io.Discard)
		assert.Equal(t, initAnswers{Port: 1420, Binary: "python-backend", StopSignal: "SIGKILL"}, a)
	})

	t.Run("answers", func(t *testing.T) {
		a := askInit(bufio.NewReader(strings.NewReader("9000\nserver\nsigterm\n")), io.Discard)
		assert.Equal(t, initAnswers{Port: 9000, Binary: "server", StopSignal: "SIGTERM"}, a)
	})

	t.Run("invalid falls back", func(t *testing.T) {
		a := askInit(bufio.NewReader(strings.NewReader("abc\n\nSIGHUP\n")), io.Discard)
		assert.Equal(t, 1420, a.Port)
		assert.Equal(t, "SIGKILL", a.StopSignal)
	})
}
