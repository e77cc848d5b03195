// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureCommand puts the backend in its own process group so that
// signals reach any helpers it spawns.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func parseSignal(name string) unix.Signal {
	switch name {
	case "SIGTERM":
		return unix.SIGTERM
	case "SIGINT":
		return unix.SIGINT
	default:
		return unix.SIGKILL
	}
}

// signalProcess sends the named stop signal to the backend's process group.
func signalProcess(cmd *exec.Cmd, name string) error {
	return signalGroup(cmd.Process.Pid, parseSignal(name))
}

// killProcess force-kills the backend's process group.
func killProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd.Process.Pid, unix.SIGKILL)
}

// killPID force-kills a process left over from a previous run.
func killPID(pid int) error {
	return signalGroup(pid, unix.SIGKILL)
}

// signalGroup signals the group led by pid, falling back to pid alone when
// it does not lead a group.
func signalGroup(pid int, sig unix.Signal) error {
	if err := unix.Kill(-pid, sig); err == nil {
		return nil
	}
	if err := unix.Kill(pid, sig); err != nil && err != unix.ESRCH {
		return err
	}
	return nil
}
