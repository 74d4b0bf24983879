// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the YAML plan file and turns it into a configured
// [*fleet.Server] and [*probe.Runner] along with the probe specs.
//
// [Default] returns the built-in plan. [Load] overlays a YAML file onto
// the defaults and validates the result. A minimal file looks like:
//
//	log:
//	  level: debug
//	server:
//	  read_timeout: 2s
//	  listeners:
//	    - {port: 53, transport: udp, label: DNS, mode: dns}
//	client:
//	  target: 192.0.2.1
//	  probes:
//	    - {label: DNS UDP, port: 53, transport: udp, payload: dns}
//	    - {label: DNS UDP (random), port: 53, transport: udp, payload: random, family: dns}
package config
