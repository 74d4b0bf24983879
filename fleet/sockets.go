// SPDX-License-Identifier: GPL-3.0-or-later

package fleet

import (
	"errors"
	"io"
	"net"
	"net/netip"
	"slices"
	"sync"
)

// socketPool contains the sockets to close on shutdown.
//
// The zero value is ready to use.
type socketPool struct {
	// handles contains the sockets to close.
	handles []io.Closer

	// mu provides mutual exclusion.
	mu sync.Mutex
}

// add adds a socket to the pool.
func (p *socketPool) add(sock io.Closer) {
	p.mu.Lock()
	p.handles = append(p.handles, sock)
	p.mu.Unlock()
}

// close closes all the sockets in reverse order of addition and returns
// the join of the errors. It is safe to call close more than once.
func (p *socketPool) close() error {
	p.mu.Lock()
	socks := p.handles
	p.handles = nil
	p.mu.Unlock()

	var errv []error
	for _, sock := range slices.Backward(socks) {
		if err := sock.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errv = append(errv, err)
		}
	}
	return errors.Join(errv...)
}

// addrToAddrPort converts a [net.Addr] to a [netip.AddrPort].
//
// IPv4-mapped IPv6 addresses are unmapped. For nil or unknown address
// types we return the zero [netip.AddrPort].
func addrToAddrPort(addr net.Addr) netip.AddrPort {
	var ap netip.AddrPort
	switch addr := addr.(type) {
	case *net.TCPAddr:
		ap = addr.AddrPort()
	case *net.UDPAddr:
		ap = addr.AddrPort()
	default:
		return netip.AddrPort{}
	}
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}
