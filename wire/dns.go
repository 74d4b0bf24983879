// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

var (
	// ErrEncoding indicates we cannot encode the requested message.
	ErrEncoding = errors.New("wire: encoding error")

	// ErrMalformedPacket indicates that an input message is too short
	// or otherwise unusable for synthesizing a response.
	ErrMalformedPacket = errors.New("wire: malformed packet")
)

const (
	// DNSHeaderSize is the size of the fixed DNS message header.
	DNSHeaderSize = 12

	// MaxDNSLabelSize is the maximum size of a single QNAME label.
	MaxDNSLabelSize = 63

	// DNSAnswerTTL is the TTL of the synthesized answer record.
	DNSAnswerTTL = 300

	dnsFlagsQuery    = 0x0100 // standard query, recursion desired
	dnsFlagsResponse = 0x8180 // standard response, RD+RA, no error
	dnsTypeA         = 1
	dnsClassIN       = 1
	dnsNamePointer   = 0xC00C // offset 12, i.e., the question name
)

// DefaultAnswerAddr is the address returned in synthesized A records.
var DefaultAnswerAddr = netip.AddrFrom4([4]byte{172, 217, 14, 206})

// NewDNSQuery is like [BuildDNSQuery] but uses a random transaction ID.
func NewDNSQuery(domain string) ([]byte, error) {
	var id [2]byte
	if _, err := rand.Read(id[:]); err != nil {
		return nil, err
	}
	return BuildDNSQuery(binary.BigEndian.Uint16(id[:]), domain)
}

// BuildDNSQuery builds a query for the A record of the given domain
// using the given transaction ID. A single trailing dot is allowed.
//
// The domain must not be empty and every label must be between 1
// and [MaxDNSLabelSize] bytes, otherwise we return [ErrEncoding].
func BuildDNSQuery(id uint16, domain string) ([]byte, error) {
	qname, err := encodeQName(domain)
	if err != nil {
		return nil, err
	}
	msg := make([]byte, 0, DNSHeaderSize+len(qname)+4)
	msg = binary.BigEndian.AppendUint16(msg, id)
	msg = binary.BigEndian.AppendUint16(msg, dnsFlagsQuery)
	msg = binary.BigEndian.AppendUint16(msg, 1) // QDCOUNT
	msg = binary.BigEndian.AppendUint16(msg, 0) // ANCOUNT
	msg = binary.BigEndian.AppendUint16(msg, 0) // NSCOUNT
	msg = binary.BigEndian.AppendUint16(msg, 0) // ARCOUNT
	msg = append(msg, qname...)
	msg = binary.BigEndian.AppendUint16(msg, dnsTypeA)
	msg = binary.BigEndian.AppendUint16(msg, dnsClassIN)
	return msg, nil
}

// encodeQName encodes a domain as length-prefixed labels.
func encodeQName(domain string) ([]byte, error) {
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain name", ErrEncoding)
	}
	var out []byte
	for _, label := range strings.Split(domain, ".") {
		switch {
		case len(label) <= 0:
			return nil, fmt.Errorf("%w: empty label in %q", ErrEncoding, domain)
		case len(label) > MaxDNSLabelSize:
			return nil, fmt.Errorf("%w: label longer than %d bytes in %q",
				ErrEncoding, MaxDNSLabelSize, domain)
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	return append(out, 0), nil
}

// BuildDNSResponse synthesizes a response to the given query.
//
// We do not parse the query. We copy its transaction ID and everything
// following the header, which we assume to be the question section, and
// we append an A record for addr whose name points to offset 12.
//
// We return [ErrMalformedPacket] if the query is shorter than
// [DNSHeaderSize] and [ErrEncoding] if addr is not an IPv4 address.
func BuildDNSResponse(query []byte, addr netip.Addr) ([]byte, error) {
	if len(query) < DNSHeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d",
			ErrMalformedPacket, len(query), DNSHeaderSize)
	}
	if !addr.Is4() {
		return nil, fmt.Errorf("%w: answer address %s is not IPv4", ErrEncoding, addr)
	}
	question := query[DNSHeaderSize:]
	resp := make([]byte, 0, DNSHeaderSize+len(question)+16)
	resp = append(resp, query[0], query[1])
	resp = binary.BigEndian.AppendUint16(resp, dnsFlagsResponse)
	resp = binary.BigEndian.AppendUint16(resp, 1) // QDCOUNT
	resp = binary.BigEndian.AppendUint16(resp, 1) // ANCOUNT
	resp = binary.BigEndian.AppendUint16(resp, 0) // NSCOUNT
	resp = binary.BigEndian.AppendUint16(resp, 0) // ARCOUNT
	resp = append(resp, question...)
	resp = binary.BigEndian.AppendUint16(resp, dnsNamePointer)
	resp = binary.BigEndian.AppendUint16(resp, dnsTypeA)
	resp = binary.BigEndian.AppendUint16(resp, dnsClassIN)
	resp = binary.BigEndian.AppendUint32(resp, DNSAnswerTTL)
	resp = binary.BigEndian.AppendUint16(resp, 4) // RDLENGTH
	rdata := addr.As4()
	return append(resp, rdata[:]...), nil
}
