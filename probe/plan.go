// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"time"

	"github.com/rbmk-project/dpiprobe/wire"
)

// DefaultDomain is the domain queried by the default DNS probes.
const DefaultDomain = "google.com"

// DefaultPlan returns the default probes for DNS, SSH, and TLS on their
// standard and alternate ports, each pairing a valid payload with a
// random one, plus the fake-name and high-entropy DNS-over-TCP probes.
func DefaultPlan(domain string, timeout time.Duration) ([]Spec, error) {
	query, err := wire.NewDNSQuery(domain)
	if err != nil {
		return nil, err
	}
	framedQuery, err := wire.WrapTCPLengthPrefix(query)
	if err != nil {
		return nil, err
	}
	framedFake, err := wire.WrapTCPLengthPrefix(wire.BuildFakeDNSQuery(0x1234))
	if err != nil {
		return nil, err
	}
	banner := wire.BuildSSHBanner()
	hello := wire.BuildTLSClientHello()

	plan := []Spec{
		{Label: "DNS TCP", Port: 53, Transport: wire.TCP, Payload: framedQuery, Family: FamilyDNS, Kind: KindValid},
		{Label: "DNS UDP", Port: 53, Transport: wire.UDP, Payload: query, Family: FamilyDNS, Kind: KindValid},
		{Label: "DNS TCP (random)", Port: 53, Transport: wire.TCP, Payload: wire.RandomPayload(wire.RandomPayloadSize), Family: FamilyDNS, Kind: KindRandom},
		{Label: "DNS UDP (random)", Port: 53, Transport: wire.UDP, Payload: wire.RandomPayload(wire.RandomPayloadSize), Family: FamilyDNS, Kind: KindRandom},
		{Label: "SSH:22 TCP", Port: 22, Transport: wire.TCP, Payload: banner, Family: FamilySSH, Kind: KindValid},
		{Label: "SSH:22 (random)", Port: 22, Transport: wire.TCP, Payload: wire.RandomPayload(wire.RandomPayloadSize), Family: FamilySSH, Kind: KindRandom},
		{Label: "SSH:2222 TCP", Port: 2222, Transport: wire.TCP, Payload: banner, Family: FamilySSH, Kind: KindValid},
		{Label: "HTTPS:443", Port: 443, Transport: wire.TCP, Payload: hello, Family: FamilyTLS, Kind: KindValid},
		{Label: "HTTPS:443 (random)", Port: 443, Transport: wire.TCP, Payload: wire.RandomPayload(wire.RandomPayloadSize), Family: FamilyTLS, Kind: KindRandom},
		{Label: "HTTPS:8443", Port: 8443, Transport: wire.TCP, Payload: hello, Family: FamilyTLS, Kind: KindValid},
		{Label: "DNS TCP (fake)", Port: 53, Transport: wire.TCP, Payload: framedFake, Family: FamilyDNS, Kind: KindFake},
		{Label: "DNS TCP (entropy)", Port: 53, Transport: wire.TCP, Payload: wire.RandomPayload(wire.EntropyPayloadSize), Family: FamilyDNS, Kind: KindEntropy},
	}
	for idx := range plan {
		plan[idx].Timeout = timeout
	}
	return plan, nil
}
