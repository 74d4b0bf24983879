// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrFraming indicates a DNS-over-TCP length prefix that does not match
// the bytes we could actually read, or a payload too large to frame.
var ErrFraming = errors.New("wire: framing error")

// WrapTCPLengthPrefix prepends the 2-byte big-endian length prefix.
func WrapTCPLengthPrefix(payload []byte) ([]byte, error) {
	if len(payload) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: payload of %d bytes does not fit the prefix",
			ErrFraming, len(payload))
	}
	out := make([]byte, 0, 2+len(payload))
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)))
	return append(out, payload...), nil
}

// ReadTCPLengthPrefixed reads a length prefix and then exactly that many
// bytes. It blocks until the whole message is available, so callers that
// read from a [net.Conn] should set a read deadline first.
//
// A short read wraps both [ErrFraming] and the underlying cause, which
// allows callers to check for [os.ErrDeadlineExceeded] as well.
func ReadTCPLengthPrefixed(r io.Reader) ([]byte, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("%w: reading length prefix: %w", ErrFraming, err)
	}
	payload := make([]byte, binary.BigEndian.Uint16(prefix[:]))
	if count, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: got %d of %d declared bytes: %w",
			ErrFraming, count, len(payload), err)
	}
	return payload, nil
}
