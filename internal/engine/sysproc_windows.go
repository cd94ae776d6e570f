//go:build windows

package engine

import "syscall"

// sysProcAttr keeps console engines from opening a window.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{HideWindow: true}
}
