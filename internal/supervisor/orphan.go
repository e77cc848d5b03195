// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// pidFileName records the live backend so a shell that crashed without
// cleanup can kill the survivor on its next start.
const pidFileName = "backend.pid"

func (s *Supervisor) pidFilePath() string {
	if s.opts.DataDir == "" {
		return ""
	}
	return filepath.Join(s.opts.DataDir, pidFileName)
}

// writePIDFile stores "<pid>\n<executable name>\n".
func (s *Supervisor) writePIDFile(h *handle) {
	path := s.pidFilePath()
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("Warning: create data dir: %v", err)
		return
	}
	content := fmt.Sprintf("%d\n%s\n", h.pid, filepath.Base(h.path))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		log.Printf("Warning: write %s: %v", pidFileName, err)
	}
}

func (s *Supervisor) removePIDFile() {
	path := s.pidFilePath()
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: remove %s: %v", pidFileName, err)
	}
}

// readPIDFile returns the recorded pid and executable name.
func readPIDFile(path string) (int, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, "", err
	}
	fields := strings.Split(strings.TrimSpace(string(data)), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || pid <= 0 {
		return 0, "", fmt.Errorf("invalid pid %q", fields[0])
	}
	name := ""
	if len(fields) > 1 {
		name = strings.TrimSpace(fields[1])
	}
	return pid, name, nil
}

// reapOrphan kills a backend recorded by a previous run if it is still
// alive and still the same executable. The pid file is always removed.
func (s *Supervisor) reapOrphan() {
	path := s.pidFilePath()
	if path == "" {
		return
	}
	pid, name, err := readPIDFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: %s: %v", pidFileName, err)
			os.Remove(path)
		}
		return
	}
	defer os.Remove(path)

	proc, err := ps.FindProcess(pid)
	if err != nil || proc == nil {
		return
	}
	if !sameExecutable(proc.Executable(), name) {
		return
	}

	log.Printf("Killing orphaned backend %s (pid %d)", name, pid)
	if err := killPID(pid); err != nil {
		log.Printf("Warning: kill orphaned backend: %v", err)
	}
}

// sameExecutable compares a process table name with a recorded file name.
// Linux truncates process names to 15 bytes.
func sameExecutable(procName, recorded string) bool {
	if procName == "" || recorded == "" {
		return false
	}
	procName = strings.TrimSuffix(strings.ToLower(procName), ".exe")
	recorded = strings.TrimSuffix(strings.ToLower(recorded), ".exe")
	if procName == recorded {
		return true
	}
	return len(procName) >= 15 && strings.HasPrefix(recorded, procName)
}
