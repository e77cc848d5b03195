// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameExecutable(t *testing.T) {
	tests := []struct {
		proc     string
		recorded string
		want     bool
	}{
		{"python-backend", "python-backend", true},
		{"python-backend.exe", "python-backend.exe", true},
		{"Python-Backend.exe", "python-backend", true},
		{"my-long-backend", "my-long-backend-server", true}, // truncated to 15
		{"short", "short-but-different", false},
		{"sh", "python-backend", false},
		{"", "python-backend", false},
		{"python-backend", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.proc+"/"+tt.recorded, func(t *testing.T) {
			assert.Equal(t, tt.want, sameExecutable(tt.proc, tt.recorded))
		})
	}
}

func TestReadPIDFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, pidFileName)

	require.NoError(t, os.WriteFile(path, []byte("1234\npython-backend\n"), 0644))
	pid, name, err := readPIDFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, pid)
	assert.Equal(t, "python-backend", name)

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))
	_, _, err = readPIDFile(path)
	assert.Error(t, err)

	_, _, err = readPIDFile(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(err))
}

func TestReapOrphan_KillsMatchingProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep")
	}
	sleepPath, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}

	orphan := exec.Command(sleepPath, "30")
	require.NoError(t, orphan.Start())
	exited := make(chan struct{})
	go func() {
		orphan.Wait()
		close(exited)
	}()

	dataDir := t.TempDir()
	content := fmt.Sprintf("%d\n%s\n", orphan.Process.Pid, "sleep")
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, pidFileName), []byte(content), 0644))

	s := New(Options{DataDir: dataDir})
	s.reapOrphan()

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		orphan.Process.Kill()
		t.Fatal("orphan was not killed")
	}

	_, err = os.Stat(filepath.Join(dataDir, pidFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestReapOrphan_IgnoresOtherExecutable(t *testing.T) {
	dataDir := t.TempDir()
	// Our own pid under a different name must survive.
	content := fmt.Sprintf("%d\n%s\n", os.Getpid(), "python-backend")
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, pidFileName), []byte(content), 0644))

	s := New(Options{DataDir: dataDir})
	s.reapOrphan()

	_, err := os.Stat(filepath.Join(dataDir, pidFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestReapOrphan_NoDataDir(t *testing.T) {
	s := New(Options{})
	assert.Empty(t, s.pidFilePath())
	s.reapOrphan()
}
