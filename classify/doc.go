// SPDX-License-Identifier: GPL-3.0-or-later

// Package classify turns [probe.Result] values into diagnoses.
//
// A diagnosis is the conclusion of the first [Rule] matching the results
// of a protocol family. Rules compare paired probes, e.g., the protocol
// correct payload against a random one on the same port, or TCP against
// UDP. See [DefaultRules] for the built-in rule set.
package classify
