// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"time"

	"github.com/rbmk-project/dpiprobe/wire"
)

// DefaultTimeout is the default per-probe timeout.
const DefaultTimeout = 5 * time.Second

// Spec describes a single probe. Treat it as immutable once built.
type Spec struct {
	// Label identifies the probe within a [*Report].
	Label string

	// Port is the target port.
	Port uint16

	// Transport is the transport to use.
	Transport wire.Transport

	// Payload is the payload to send.
	Payload []byte

	// Timeout bounds the whole probe. If zero, we use [DefaultTimeout].
	Timeout time.Duration

	// Family is the protocol family.
	Family Family

	// Kind is the payload role within the family.
	Kind Kind
}

func (s *Spec) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultTimeout
}

// Result is the outcome of running a [Spec].
type Result struct {
	// Label is the [Spec] label.
	Label string

	// Port is the [Spec] port.
	Port uint16

	// Transport is the [Spec] transport.
	Transport wire.Transport

	// Family is the [Spec] family.
	Family Family

	// Kind is the [Spec] kind.
	Kind Kind

	// Status is the probe outcome.
	Status Status

	// BytesSent is the number of payload bytes we wrote.
	BytesSent int

	// BytesReceived is the number of bytes in the response chunk.
	BytesReceived int

	// Elapsed is the time from dialing to the end of the read.
	Elapsed time.Duration

	// Err is a short diagnostic, empty unless Status is [StatusError].
	Err string

	// ErrClass is the errclass of the failure, if any.
	ErrClass string

	// Answers contains the A records decoded from a DNS reply.
	Answers []string
}

// StatusString returns the status including the diagnostic for errors.
func (r *Result) StatusString() string {
	if r.Status == StatusError && r.Err != "" {
		return "ERROR:" + r.Err
	}
	return r.Status.String()
}
