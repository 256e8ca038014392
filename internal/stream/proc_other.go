//go:build !unix

package stream

import "os/exec"

// killProcessGroup is a no-op; cmd.WaitDelay still bounds Wait.
func killProcessGroup(cmd *exec.Cmd) {}
