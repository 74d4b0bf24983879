// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package eventlog is the append-only store of the events observed by the
listener fleet.

A [*Log] owns the event sequence for the lifetime of the process. Writers
call [*Log.Append] while holding no other lock. Readers never look at the
sequence directly: [*Log.Snapshot] copies it under the lock and computes
the per-listener [Bucket] statistics from the copy, so the statistics are
always consistent with the events they summarize. [*Log.Export] writes a
snapshot as CSV and leaves the in-memory log untouched on failure, so the
caller may retry with another path.
*/
package eventlog
