//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package fleet

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlReuseAddr sets SO_REUSEADDR so we can restart the fleet while
// TCP sockets from a previous run linger in TIME_WAIT.
func controlReuseAddr(network, address string, conn syscall.RawConn) error {
	var sockErr error
	err := conn.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
