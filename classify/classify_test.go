// SPDX-License-Identifier: GPL-3.0-or-later

package classify

import (
	"bytes"
	"testing"

	"github.com/rbmk-project/dpiprobe/probe"
	"github.com/rbmk-project/dpiprobe/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// result is a shortcut for building a [probe.Result].
func result(family probe.Family, transport wire.Transport, port uint16, kind probe.Kind, status probe.Status) probe.Result {
	return probe.Result{Family: family, Transport: transport, Port: port, Kind: kind, Status: status}
}

func dnsResult(transport wire.Transport, kind probe.Kind, status probe.Status) probe.Result {
	return result(probe.FamilyDNS, transport, 53, kind, status)
}

func TestClassifyDNS(t *testing.T) {
	const (
		ok     = probe.StatusSuccess
		silent = probe.StatusNoResponse
	)
	for _, tc := range []struct {
		name    string
		results []probe.Result
		rule    string
		expect  string
	}{{
		name: "TCP and UDP succeed",
		results: []probe.Result{
			dnsResult(wire.TCP, probe.KindValid, ok),
			dnsResult(wire.UDP, probe.KindValid, ok),
		},
		rule:   "dns-open",
		expect: "port is open, no protocol-aware filtering observed",
	}, {
		name: "only UDP succeeds",
		results: []probe.Result{
			dnsResult(wire.TCP, probe.KindValid, silent),
			dnsResult(wire.UDP, probe.KindValid, ok),
		},
		rule:   "dns-tcp-blocked",
		expect: "transport-selective blocking on port 53",
	}, {
		name: "only TCP succeeds",
		results: []probe.Result{
			dnsResult(wire.TCP, probe.KindValid, ok),
			dnsResult(wire.UDP, probe.KindValid, probe.StatusTimeout),
		},
		rule:   "dns-udp-blocked",
		expect: "transport-selective blocking on port 53 (UDP filtered)",
	}, {
		name: "random payload fails",
		results: []probe.Result{
			dnsResult(wire.TCP, probe.KindValid, ok),
			dnsResult(wire.UDP, probe.KindValid, ok),
			dnsResult(wire.TCP, probe.KindRandom, probe.StatusRefused),
		},
		rule:   "dns-dpi-validates",
		expect: "deep packet inspection validates protocol structure on port 53",
	}, {
		name: "fake name fails",
		results: []probe.Result{
			dnsResult(wire.TCP, probe.KindValid, ok),
			dnsResult(wire.TCP, probe.KindRandom, ok),
			dnsResult(wire.TCP, probe.KindFake, silent),
		},
		rule:   "dns-fake-name-blocked",
		expect: "deep packet inspection rejects suspicious query names on port 53",
	}, {
		name: "entropy fails",
		results: []probe.Result{
			dnsResult(wire.TCP, probe.KindValid, ok),
			dnsResult(wire.TCP, probe.KindRandom, ok),
			dnsResult(wire.TCP, probe.KindEntropy, silent),
		},
		rule:   "dns-entropy-blocked",
		expect: "high-entropy payloads are filtered on port 53",
	}, {
		name: "everything fails",
		results: []probe.Result{
			dnsResult(wire.TCP, probe.KindValid, silent),
			dnsResult(wire.UDP, probe.KindValid, silent),
			dnsResult(wire.TCP, probe.KindRandom, silent),
		},
		rule:   "dns-port-blocked",
		expect: "port 53 is blocked",
	}, {
		name: "only random probes",
		results: []probe.Result{
			dnsResult(wire.TCP, probe.KindRandom, ok),
		},
		expect: "inconclusive — see raw results",
	}} {
		t.Run(tc.name, func(t *testing.T) {
			diagnoses := Classify(tc.results, DefaultRules)
			require.Len(t, diagnoses, 1)
			assert.Equal(t, probe.FamilyDNS, diagnoses[0].Family)
			assert.Equal(t, tc.rule, diagnoses[0].Rule)
			assert.Equal(t, tc.expect, diagnoses[0].Conclusion)
		})
	}
}

func TestClassifyTCPServices(t *testing.T) {
	ssh := func(port uint16, kind probe.Kind, status probe.Status) probe.Result {
		return result(probe.FamilySSH, wire.TCP, port, kind, status)
	}
	tls := func(port uint16, kind probe.Kind, status probe.Status) probe.Result {
		return result(probe.FamilyTLS, wire.TCP, port, kind, status)
	}
	for _, tc := range []struct {
		name    string
		results []probe.Result
		expect  string
	}{{
		name: "SSH validated",
		results: []probe.Result{
			ssh(22, probe.KindValid, probe.StatusSuccess),
			ssh(22, probe.KindRandom, probe.StatusNoResponse),
		},
		expect: "SSH: deep packet inspection validates protocol structure on port 22",
	}, {
		name: "SSH open",
		results: []probe.Result{
			ssh(22, probe.KindValid, probe.StatusSuccess),
			ssh(22, probe.KindRandom, probe.StatusSuccess),
		},
		expect: "SSH: port is open, no protocol-aware filtering observed",
	}, {
		name: "SSH protocol blocked",
		results: []probe.Result{
			ssh(22, probe.KindValid, probe.StatusNoResponse),
			ssh(22, probe.KindRandom, probe.StatusSuccess),
		},
		expect: "SSH: protocol-aware blocking: SSH payloads are dropped on port 22",
	}, {
		name: "TLS works on the alternate port",
		results: []probe.Result{
			tls(443, probe.KindValid, probe.StatusTimeout),
			tls(443, probe.KindRandom, probe.StatusTimeout),
			tls(8443, probe.KindValid, probe.StatusSuccess),
		},
		expect: "TLS: port-based blocking: TLS works on alternate port 8443",
	}, {
		name: "TLS blocked",
		results: []probe.Result{
			tls(443, probe.KindValid, probe.StatusRefused),
			tls(443, probe.KindRandom, probe.StatusRefused),
			tls(8443, probe.KindValid, probe.StatusRefused),
		},
		expect: "TLS: port 443 is blocked",
	}} {
		t.Run(tc.name, func(t *testing.T) {
			diagnoses := Classify(tc.results, DefaultRules)
			require.Len(t, diagnoses, 1)
			assert.Equal(t, tc.expect, diagnoses[0].String())
		})
	}
}

func TestClassifyOrderAndDeterminism(t *testing.T) {
	results := []probe.Result{
		result(probe.FamilyTLS, wire.TCP, 443, probe.KindValid, probe.StatusSuccess),
		result(probe.FamilySSH, wire.TCP, 22, probe.KindValid, probe.StatusSuccess),
		dnsResult(wire.TCP, probe.KindValid, probe.StatusSuccess),
		dnsResult(wire.UDP, probe.KindValid, probe.StatusSuccess),
		result(probe.FamilyOther, wire.TCP, 80, probe.KindValid, probe.StatusSuccess),
	}
	first := Classify(results, DefaultRules)
	require.Len(t, first, 3)
	assert.Equal(t, probe.FamilyDNS, first[0].Family)
	assert.Equal(t, probe.FamilySSH, first[1].Family)
	assert.Equal(t, probe.FamilyTLS, first[2].Family)
	assert.Equal(t, ConclusionInconclusive, first[1].Conclusion)
	for range 10 {
		assert.Equal(t, first, Classify(results, DefaultRules))
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, first))
	assert.Contains(t, buf.String(), "\nANALYSIS\n")
	assert.Contains(t, buf.String(), "DNS: port is open, no protocol-aware filtering observed\n")
}

func TestClassifyCustomRules(t *testing.T) {
	rules := []Rule{{
		Name:       "always",
		Family:     probe.FamilySSH,
		Match:      func(View) bool { return true },
		Conclusion: "custom",
	}}
	diagnoses := Classify([]probe.Result{
		result(probe.FamilySSH, wire.TCP, 22, probe.KindValid, probe.StatusError),
		dnsResult(wire.TCP, probe.KindValid, probe.StatusSuccess),
	}, rules)
	require.Len(t, diagnoses, 2)
	assert.Equal(t, ConclusionInconclusive, diagnoses[0].Conclusion)
	assert.Equal(t, "custom", diagnoses[1].Conclusion)
}

func TestView(t *testing.T) {
	view := NewView(probe.FamilyDNS, []probe.Result{
		dnsResult(wire.TCP, probe.KindValid, probe.StatusSuccess),
		dnsResult(wire.TCP, probe.KindValid, probe.StatusRefused),
		result(probe.FamilySSH, wire.TCP, 22, probe.KindValid, probe.StatusSuccess),
	})
	assert.Equal(t, 1, view.Len())
	assert.True(t, view.OK(wire.TCP, 53, probe.KindValid))
	assert.False(t, view.Failed(wire.TCP, 53, probe.KindValid))
	assert.False(t, view.OK(wire.UDP, 53, probe.KindValid))
	assert.False(t, view.Failed(wire.UDP, 53, probe.KindValid))
}
