// SPDX-License-Identifier: GPL-3.0-or-later

package fleet

import (
	"fmt"
	"strings"

	"github.com/rbmk-project/dpiprobe/wire"
)

// Mode selects how a listener responds.
type Mode string

const (
	// ModeEcho responds with "ECHO:<label>:<request>".
	ModeEcho = Mode("echo")

	// ModeDNS responds with a synthesized DNS response.
	ModeDNS = Mode("dns")
)

// ParseMode parses a [Mode]. The empty string maps to [ModeEcho].
func ParseMode(s string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "", ModeEcho:
		return ModeEcho, nil
	case ModeDNS:
		return ModeDNS, nil
	default:
		return "", fmt.Errorf("unknown listener mode %q", s)
	}
}

// ListenerConfig configures a listener.
type ListenerConfig struct {
	// Port is the port to bind. Zero means an ephemeral port.
	Port uint16

	// Transport is the transport to use.
	Transport wire.Transport

	// Label is the protocol label, e.g., "DNS" or "SSH-ALT".
	Label string

	// Mode is the response mode.
	Mode Mode
}

// DefaultListeners returns the listeners covering DNS, SSH, and HTTPS
// on their standard and alternate ports, plus a DNS test port.
func DefaultListeners() []ListenerConfig {
	return []ListenerConfig{
		{Port: 53, Transport: wire.TCP, Label: "DNS", Mode: ModeDNS},
		{Port: 53, Transport: wire.UDP, Label: "DNS", Mode: ModeDNS},
		{Port: 22, Transport: wire.TCP, Label: "SSH", Mode: ModeEcho},
		{Port: 2222, Transport: wire.TCP, Label: "SSH-ALT", Mode: ModeEcho},
		{Port: 443, Transport: wire.TCP, Label: "HTTPS", Mode: ModeEcho},
		{Port: 8443, Transport: wire.TCP, Label: "HTTPS-ALT", Mode: ModeEcho},
		{Port: 5353, Transport: wire.TCP, Label: "TEST-DNS", Mode: ModeEcho},
		{Port: 5353, Transport: wire.UDP, Label: "TEST-DNS", Mode: ModeEcho},
	}
}
