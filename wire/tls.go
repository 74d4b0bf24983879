// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"crypto/rand"
	"encoding/binary"
)

const (
	// tlsRecordHeaderSize is content type, legacy version, and length.
	tlsRecordHeaderSize = 5

	// tlsHandshakeSize is the fixed size of the handshake message,
	// including its own 4-byte type+length header.
	tlsHandshakeSize = 64

	// TLSClientHelloSize is the total size of [BuildTLSClientHello] output.
	TLSClientHelloSize = tlsRecordHeaderSize + tlsHandshakeSize

	tlsContentHandshake   = 0x16
	tlsRecordVersion      = 0x0301 // TLS 1.0 for middlebox compatibility
	tlsClientHelloType    = 0x01
	tlsClientVersion      = 0x0303 // TLS 1.2
	tlsRSAWithAES128CBC   = 0x002f
	tlsCompressionNull    = 0x00
	tlsHandshakeHdrLength = 4
)

// BuildTLSClientHello returns a minimal ClientHello record with a random
// client random. The output is always [TLSClientHelloSize] bytes.
func BuildTLSClientHello() []byte {
	var random [32]byte
	_, _ = rand.Read(random[:]) // never fails on supported platforms
	return buildTLSClientHello(random)
}

// buildTLSClientHello builds the record using the given client random.
//
// The handshake body is zero padded to a fixed size. The record and
// handshake length fields are constants describing the padded size,
// not the size of the meaningful fields, and a parser reading past the
// compression methods will find zero padding.
func buildTLSClientHello(random [32]byte) []byte {
	out := make([]byte, 0, TLSClientHelloSize)

	// record layer
	out = append(out, tlsContentHandshake)
	out = binary.BigEndian.AppendUint16(out, tlsRecordVersion)
	out = binary.BigEndian.AppendUint16(out, tlsHandshakeSize)

	// handshake header: type plus 24-bit length
	const bodySize = tlsHandshakeSize - tlsHandshakeHdrLength
	out = append(out, tlsClientHelloType, 0, byte(bodySize>>8), byte(bodySize))

	// ClientHello
	out = binary.BigEndian.AppendUint16(out, tlsClientVersion)
	out = append(out, random[:]...)
	out = append(out, 0) // session ID length
	out = binary.BigEndian.AppendUint16(out, 2)
	out = binary.BigEndian.AppendUint16(out, tlsRSAWithAES128CBC)
	out = append(out, 1, tlsCompressionNull)

	// pad to the fixed size
	return append(out, make([]byte, TLSClientHelloSize-len(out))...)
}
