// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package fleet runs the synthetic protocol responders.

A [*Server] binds a configured set of listeners, each identified by port,
transport, and label. A listener that fails to bind is logged and skipped,
so a single bad port does not prevent the other listeners from running.

Each TCP listener runs an accept loop and handles every connection in its
own goroutine, bounded by a read timeout. Each UDP listener handles
datagrams synchronously inside its receive loop. In both cases the handler
reads one bounded chunk, records a RECEIVED event, synthesizes a response,
records a SENT_ECHO event, and records TIMEOUT or ERROR events when the
exchange fails. All events go to a shared [*eventlog.Log].

Listeners in [ModeEcho] respond with "ECHO:<label>:" followed by the
request bytes. Listeners in [ModeDNS] respond using [wire.BuildDNSResponse],
with the DNS-over-TCP length prefix on TCP.

A [*Reporter] periodically prints the per-listener statistics.
*/
package fleet
