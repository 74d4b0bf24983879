// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"fmt"
	"strings"
)

// Transport is the transport protocol a probe or listener uses.
type Transport uint8

const (
	// TCP is the TCP transport.
	TCP Transport = iota

	// UDP is the UDP transport.
	UDP
)

// String returns "TCP" or "UDP".
func (t Transport) String() string {
	switch t {
	case TCP:
		return "TCP"
	case UDP:
		return "UDP"
	default:
		return fmt.Sprintf("Transport(%d)", uint8(t))
	}
}

// Network returns the network name to use with the [net] package.
func (t Transport) Network() string {
	if t == UDP {
		return "udp"
	}
	return "tcp"
}

// ParseTransport parses a case-insensitive "tcp" or "udp" string.
func ParseTransport(s string) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return TCP, nil
	case "udp":
		return UDP, nil
	default:
		return 0, fmt.Errorf("unknown transport %q", s)
	}
}
