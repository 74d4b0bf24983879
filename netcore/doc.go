// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package netcore provides the TCP/UDP dialer used to send probes.

This package is designed to facilitate measuring TCP and UDP connection
events via the [log/slog] package: when a [*Network] has a Logger, each
lookup, connect, read, write, and close emits a pair of structured
"Start" and "Done" events carrying the classified error.

# Features

- TCP/UDP dialer compatible with the [*net.Dialer];

- domain names are resolved first and endpoints are tried sequentially;

- connect times are bounded by the caller's context deadline.
*/
package netcore
