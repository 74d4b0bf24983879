// SPDX-License-Identifier: GPL-3.0-or-later

package classify

import (
	"fmt"
	"strings"

	"github.com/rbmk-project/dpiprobe/probe"
	"github.com/rbmk-project/dpiprobe/wire"
)

// Rule maps a predicate over a [View] to a conclusion.
type Rule struct {
	// Name identifies the rule.
	Name string

	// Family is the family the rule applies to.
	Family probe.Family

	// Match returns whether the rule applies.
	Match func(v View) bool

	// Conclusion is the human readable diagnosis.
	Conclusion string
}

const (
	// ConclusionOpen is the conclusion when nothing looks filtered.
	ConclusionOpen = "port is open, no protocol-aware filtering observed"

	// ConclusionInconclusive is the conclusion when no rule matches.
	ConclusionInconclusive = "inconclusive — see raw results"
)

// DefaultRules is the ordered built-in rule set.
var DefaultRules = defaultRules()

func defaultRules() []Rule {
	rules := dnsRules()
	rules = append(rules, tcpServiceRules(probe.FamilySSH, 22, 2222)...)
	rules = append(rules, tcpServiceRules(probe.FamilyTLS, 443, 8443)...)
	return rules
}

// dnsRules compares TCP against UDP and valid against anomalous
// payloads on port 53.
func dnsRules() []Rule {
	const port = 53
	tcpOK := func(v View) bool { return v.OK(wire.TCP, port, probe.KindValid) }
	return []Rule{{
		Name:   "dns-tcp-blocked",
		Family: probe.FamilyDNS,
		Match: func(v View) bool {
			return v.OK(wire.UDP, port, probe.KindValid) && v.Failed(wire.TCP, port, probe.KindValid)
		},
		Conclusion: "transport-selective blocking on port 53",
	}, {
		Name:   "dns-udp-blocked",
		Family: probe.FamilyDNS,
		Match: func(v View) bool {
			return tcpOK(v) && v.Failed(wire.UDP, port, probe.KindValid)
		},
		Conclusion: "transport-selective blocking on port 53 (UDP filtered)",
	}, {
		Name:   "dns-dpi-validates",
		Family: probe.FamilyDNS,
		Match: func(v View) bool {
			return tcpOK(v) && v.Failed(wire.TCP, port, probe.KindRandom)
		},
		Conclusion: "deep packet inspection validates protocol structure on port 53",
	}, {
		Name:   "dns-fake-name-blocked",
		Family: probe.FamilyDNS,
		Match: func(v View) bool {
			return tcpOK(v) && v.Failed(wire.TCP, port, probe.KindFake)
		},
		Conclusion: "deep packet inspection rejects suspicious query names on port 53",
	}, {
		Name:   "dns-entropy-blocked",
		Family: probe.FamilyDNS,
		Match: func(v View) bool {
			return tcpOK(v) && v.Failed(wire.TCP, port, probe.KindEntropy)
		},
		Conclusion: "high-entropy payloads are filtered on port 53",
	}, {
		Name:   "dns-open",
		Family: probe.FamilyDNS,
		Match: func(v View) bool {
			return tcpOK(v) && (v.OK(wire.UDP, port, probe.KindValid) || v.OK(wire.TCP, port, probe.KindRandom))
		},
		Conclusion: ConclusionOpen,
	}, {
		Name:   "dns-port-blocked",
		Family: probe.FamilyDNS,
		Match: func(v View) bool {
			return v.Failed(wire.TCP, port, probe.KindValid) && v.Failed(wire.TCP, port, probe.KindRandom)
		},
		Conclusion: "port 53 is blocked",
	}}
}

// tcpServiceRules compares the valid payload against a random one on
// the standard port and falls back to the alternate port.
func tcpServiceRules(family probe.Family, port, altPort uint16) []Rule {
	name := family.String()
	prefix := strings.ToLower(name)
	valid := func(v View) (ok, failed bool) {
		return v.OK(wire.TCP, port, probe.KindValid), v.Failed(wire.TCP, port, probe.KindValid)
	}
	random := func(v View) (ok, failed bool) {
		return v.OK(wire.TCP, port, probe.KindRandom), v.Failed(wire.TCP, port, probe.KindRandom)
	}
	return []Rule{{
		Name:   prefix + "-dpi-validates",
		Family: family,
		Match: func(v View) bool {
			validOK, _ := valid(v)
			_, randomFailed := random(v)
			return validOK && randomFailed
		},
		Conclusion: fmt.Sprintf("deep packet inspection validates protocol structure on port %d", port),
	}, {
		Name:   prefix + "-open",
		Family: family,
		Match: func(v View) bool {
			validOK, _ := valid(v)
			randomOK, _ := random(v)
			return validOK && randomOK
		},
		Conclusion: ConclusionOpen,
	}, {
		Name:   prefix + "-protocol-blocked",
		Family: family,
		Match: func(v View) bool {
			_, validFailed := valid(v)
			randomOK, _ := random(v)
			return validFailed && randomOK
		},
		Conclusion: fmt.Sprintf("protocol-aware blocking: %s payloads are dropped on port %d", name, port),
	}, {
		Name:   prefix + "-alt-port-open",
		Family: family,
		Match: func(v View) bool {
			_, validFailed := valid(v)
			return validFailed && v.OK(wire.TCP, altPort, probe.KindValid)
		},
		Conclusion: fmt.Sprintf("port-based blocking: %s works on alternate port %d", name, altPort),
	}, {
		Name:   prefix + "-port-blocked",
		Family: family,
		Match: func(v View) bool {
			_, validFailed := valid(v)
			_, randomFailed := random(v)
			return validFailed && randomFailed
		},
		Conclusion: fmt.Sprintf("port %d is blocked", port),
	}}
}
