// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
)

const (
	// RandomPayloadSize is the size of the random payloads we compare
	// against protocol-correct payloads on the same port.
	RandomPayloadSize = 64

	// EntropyPayloadSize is the size of the high-entropy payload that
	// looks like encrypted traffic.
	EntropyPayloadSize = 256

	// fakeLabelSize is suspiciously long for a real DNS label.
	fakeLabelSize = 32
)

// RandomPayload returns size bytes read from [crypto/rand].
func RandomPayload(size int) []byte {
	buf := make([]byte, size)
	_, _ = rand.Read(buf) // never fails on supported platforms
	return buf
}

// BuildFakeDNSQuery returns a message with a valid DNS query header whose
// question name is a single 32-byte label of 'A' characters. The message
// is well formed but unlikely to be a real query, so it helps telling apart
// a middlebox that validates DNS names from one that only checks framing.
func BuildFakeDNSQuery(id uint16) []byte {
	msg := make([]byte, 0, DNSHeaderSize+fakeLabelSize+6)
	msg = binary.BigEndian.AppendUint16(msg, id)
	msg = binary.BigEndian.AppendUint16(msg, dnsFlagsQuery)
	msg = binary.BigEndian.AppendUint16(msg, 1)
	msg = append(msg, make([]byte, 6)...)
	msg = append(msg, fakeLabelSize)
	msg = append(msg, bytes.Repeat([]byte{'A'}, fakeLabelSize)...)
	msg = append(msg, 0)
	msg = binary.BigEndian.AppendUint16(msg, dnsTypeA)
	msg = binary.BigEndian.AppendUint16(msg, dnsClassIN)
	return msg
}
