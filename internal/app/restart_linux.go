//go:build linux

package app

import (
	"syscall"
)

// RestartProcess 用 exec 以原参数替换当前进程映像，PID 不变
func RestartProcess(argv0 string, args []string, env []string) error {
	return syscall.Exec(argv0, args, env)
}
