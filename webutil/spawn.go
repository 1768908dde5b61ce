package webutil

import (
	"os/exec"

	"github.com/pkg/errors"
)

// Spawn 启动后台进程并立即返回 pid，不等待也不回收退出状态
func Spawn(name string, args ...string) (int, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return 0, errors.Wrap(err, "failed to start process")
	}

	pid := cmd.Process.Pid

	// 后台回收，避免僵尸进程
	go func() {
		_ = cmd.Wait()
	}()

	return pid, nil
}
