// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rbmk-project/dpiprobe/netcore"
	"github.com/rbmk-project/dpiprobe/probe"
	"github.com/rbmk-project/dpiprobe/wire"
)

// Specs returns the probe specs, using [probe.DefaultPlan] when
// no probes are configured.
func (c *ClientConfig) Specs() ([]probe.Spec, error) {
	if len(c.Probes) <= 0 {
		return probe.DefaultPlan(c.Domain, c.Timeout)
	}
	var (
		errv  []error
		specs []probe.Spec
		seen  = make(map[string]bool)
	)
	for idx, pc := range c.Probes {
		spec, err := pc.spec(c.Domain)
		if err != nil {
			errv = append(errv, fmt.Errorf("probes[%d]: %w", idx, err))
			continue
		}
		if seen[spec.Label] {
			errv = append(errv, fmt.Errorf("probes[%d]: %w: %q", idx, probe.ErrDuplicateLabel, spec.Label))
			continue
		}
		seen[spec.Label] = true
		spec.Timeout = c.Timeout
		specs = append(specs, spec)
	}
	return specs, errors.Join(errv...)
}

// spec builds the [probe.Spec] for the configured probe.
func (pc *ProbeConfig) spec(domain string) (probe.Spec, error) {
	if pc.Label == "" {
		return probe.Spec{}, errors.New("empty label")
	}
	transport, err := wire.ParseTransport(pc.Transport)
	if err != nil {
		return probe.Spec{}, err
	}
	spec := probe.Spec{Label: pc.Label, Port: pc.Port, Transport: transport}

	switch pc.Payload {
	case "dns":
		query, err := wire.NewDNSQuery(domain)
		if err != nil {
			return probe.Spec{}, err
		}
		spec.Payload, spec.Family, spec.Kind = query, probe.FamilyDNS, probe.KindValid
	case "dns-fake":
		spec.Payload = wire.BuildFakeDNSQuery(randomID())
		spec.Family, spec.Kind = probe.FamilyDNS, probe.KindFake
	case "ssh":
		spec.Payload, spec.Family, spec.Kind = wire.BuildSSHBanner(), probe.FamilySSH, probe.KindValid
	case "tls":
		spec.Payload, spec.Family, spec.Kind = wire.BuildTLSClientHello(), probe.FamilyTLS, probe.KindValid
	case "random":
		spec.Payload, spec.Kind = wire.RandomPayload(sizeOr(pc.Size, wire.RandomPayloadSize)), probe.KindRandom
	case "entropy":
		spec.Payload, spec.Kind = wire.RandomPayload(sizeOr(pc.Size, wire.EntropyPayloadSize)), probe.KindEntropy
	default:
		return probe.Spec{}, fmt.Errorf("unknown payload %q", pc.Payload)
	}

	// DNS messages over TCP need the length prefix.
	if spec.Family == probe.FamilyDNS && transport == wire.TCP {
		if spec.Payload, err = wire.WrapTCPLengthPrefix(spec.Payload); err != nil {
			return probe.Spec{}, err
		}
	}

	if pc.Family != "" {
		if spec.Family, err = probe.ParseFamily(pc.Family); err != nil {
			return probe.Spec{}, err
		}
	}
	if pc.Kind != "" {
		if spec.Kind, err = probe.ParseKind(pc.Kind); err != nil {
			return probe.Spec{}, err
		}
	}
	return spec, nil
}

func sizeOr(size, fallback int) int {
	if size > 0 {
		return size
	}
	return fallback
}

func randomID() uint16 {
	var buf [2]byte
	_, _ = rand.Read(buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

// NewRunner returns a [*probe.Runner] dialing through a [*netcore.Network]
// sharing the same logger.
func (c *ClientConfig) NewRunner(logger *slog.Logger) *probe.Runner {
	netx := netcore.NewNetwork()
	netx.Logger = logger
	runner := probe.NewRunner()
	runner.Delay = c.Delay
	runner.Logger = logger
	runner.MaxChunk = c.MaxChunk
	runner.Network = netx
	return runner
}
