// SPDX-License-Identifier: GPL-3.0-or-later

// Package probe sends crafted protocol payloads to a target and classifies
// how the network path reacts.
//
// A [*Runner] executes an ordered list of [Spec] sequentially, pausing
// between probes, and accumulates one [Result] per spec into a [*Report].
// Probes never run concurrently, so timing measurements are not confounded.
//
// Each probe dials the target, writes the payload, and reads one bounded
// response chunk. The outcome maps to a [Status]:
//
//   - [StatusRefused] when the peer actively rejects us;
//
//   - [StatusNoResponse] when we sent the payload and got nothing back
//     before the timeout (or the peer closed without sending);
//
//   - [StatusTimeout] when the timeout expires while connecting or sending;
//
//   - [StatusSuccess] when we receive any bytes at all;
//
//   - [StatusError] otherwise, with a short diagnostic.
//
// Use [DefaultPlan] to obtain the default list of DNS, SSH, and TLS probes.
package probe
