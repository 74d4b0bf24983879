// SPDX-License-Identifier: GPL-3.0-or-later

package eventlog

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/rbmk-project/dpiprobe/wire"
)

// MaxPayloadPrefix is the maximum number of payload bytes kept per event.
const MaxPayloadPrefix = 64

// Status is the status of an [Event].
type Status uint8

const (
	// StatusReceived means we received a payload (possibly empty).
	StatusReceived Status = iota

	// StatusSentEcho means we sent a response.
	StatusSentEcho

	// StatusTimeout means the peer did not send anything in time.
	StatusTimeout

	// StatusError means an I/O or codec failure; see [Event.Message].
	StatusError
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusReceived:
		return "RECEIVED"
	case StatusSentEcho:
		return "SENT_ECHO"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Event is something that happened on a listener.
type Event struct {
	// Time is when the event occurred. [*Log.Append] sets
	// it to the current time when it is zero.
	Time time.Time

	// Port is the listener port.
	Port uint16

	// Transport is the listener transport.
	Transport wire.Transport

	// Label is the listener protocol label (e.g., "DNS").
	Label string

	// ClientAddr is the peer address.
	ClientAddr netip.AddrPort

	// PayloadLen is the number of bytes received or sent.
	PayloadLen int

	// PayloadPrefix contains at most [MaxPayloadPrefix] bytes
	// of the payload received or sent.
	PayloadPrefix []byte

	// Status is the event status.
	Status Status

	// Message is the diagnostic for [StatusError] events.
	Message string
}

// Key returns the [Key] of the listener that produced the event.
func (ev *Event) Key() Key {
	return Key{Transport: ev.Transport, Port: ev.Port, Label: ev.Label}
}

// Protocol returns the protocol label, e.g., "TCP-DNS".
func (ev *Event) Protocol() string {
	return ev.Transport.String() + "-" + ev.Label
}

// StatusString returns the status including the message for errors.
func (ev *Event) StatusString() string {
	if ev.Status == StatusError {
		return "ERROR:" + ev.Message
	}
	return ev.Status.String()
}
