//go:build !unix

// SPDX-License-Identifier: GPL-3.0-or-later

package fleet

import "syscall"

// controlReuseAddr is a no-op: on Windows SO_REUSEADDR would allow
// another process to steal our ports.
func controlReuseAddr(network, address string, conn syscall.RawConn) error {
	return nil
}
