// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package wire builds and parses the protocol-shaped byte sequences we use
to probe how a network path treats DNS, SSH, and TLS traffic.

The functions in this package perform no I/O and hold no state, except for
reading randomness from [crypto/rand] where a payload needs it. They emit
just enough structure to elicit or suppress middlebox behavior: this package
is not a DNS resolver, an SSH implementation, or a TLS stack.

# DNS

[BuildDNSQuery] and [NewDNSQuery] build a single-question A/IN query.
[BuildDNSResponse] synthesizes a reply to any message at least as long as
a DNS header, copying the transaction ID and the question section verbatim
and appending one A record that points back to the question name using the
0xC00C compression pointer.

DNS over TCP uses a 2-byte big-endian length prefix, see
[WrapTCPLengthPrefix] and [ReadTCPLengthPrefixed].

# SSH and TLS

[BuildSSHBanner] returns the SSH version-exchange line. [BuildTLSClientHello]
returns a minimal handshake record with a fixed total size, so that probes
sent at different ports are comparable byte for byte.

# Errors

Failures wrap one of [ErrEncoding], [ErrMalformedPacket], or [ErrFraming].
*/
package wire
