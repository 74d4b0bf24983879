// SPDX-License-Identifier: GPL-3.0-or-later

package eventlog

import (
	"cmp"
	"fmt"
	"net/netip"

	"github.com/rbmk-project/dpiprobe/wire"
)

// Key identifies a listener.
type Key struct {
	Transport wire.Transport
	Port      uint16
	Label     string
}

// String returns the "<TRANSPORT>-<label>:<port>" representation.
func (k Key) String() string {
	return fmt.Sprintf("%s-%s:%d", k.Transport, k.Label, k.Port)
}

// Compare orders keys by transport, then label, then port.
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.Transport, other.Transport); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Label, other.Label); c != 0 {
		return c
	}
	return cmp.Compare(k.Port, other.Port)
}

// Bucket contains the statistics of a listener.
type Bucket struct {
	// Count is the number of events.
	Count int

	// Bytes is the sum of the events payload lengths.
	Bytes int

	// clients contains the distinct client addresses.
	clients map[netip.Addr]struct{}
}

// Clients returns the number of distinct client IP addresses.
func (b *Bucket) Clients() int {
	return len(b.clients)
}

// add accounts for the given event.
func (b *Bucket) add(ev *Event) {
	b.Count++
	b.Bytes += ev.PayloadLen
	if b.clients == nil {
		b.clients = make(map[netip.Addr]struct{})
	}
	b.clients[ev.ClientAddr.Addr()] = struct{}{}
}
