// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rbmk-project/dpiprobe/eventlog"
	"github.com/rbmk-project/dpiprobe/fleet"
	"github.com/rbmk-project/dpiprobe/probe"
	"github.com/rbmk-project/dpiprobe/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	listeners, err := cfg.Server.FleetListeners()
	require.NoError(t, err)
	assert.Equal(t, fleet.DefaultListeners(), listeners)

	specs, err := cfg.Client.Specs()
	require.NoError(t, err)
	assert.Len(t, specs, 12)
	assert.Equal(t, 5*time.Second, specs[0].Timeout)
}

func TestParse(t *testing.T) {
	const document = `
log:
  level: debug
  format: json
server:
  address: 127.0.0.1
  read_timeout: 2s
  listeners:
    - {port: 5300, transport: udp, label: DNS, mode: dns}
    - {port: 5300, transport: tcp, label: DNS, mode: dns}
client:
  target: 192.0.2.1
  domain: example.org
  timeout: 1500ms
  probes:
    - {label: DNS TCP, port: 53, transport: tcp, payload: dns}
    - {label: DNS UDP (random), port: 53, transport: udp, payload: random, family: dns}
    - {label: SSH, port: 22, transport: tcp, payload: ssh}
    - {label: Entropy, port: 443, transport: tcp, payload: entropy, family: tls, size: 100}
`
	cfg, err := Parse(strings.NewReader(document))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, fleet.DefaultStatsInterval, cfg.Server.StatsInterval)
	require.Len(t, cfg.Server.Listeners, 2)

	srv, err := cfg.Server.NewServer(eventlog.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", srv.Address)
	assert.Equal(t, wire.DefaultAnswerAddr, srv.AnswerAddr)
	assert.Equal(t, fleet.ModeDNS, srv.Listeners[0].Mode)
	assert.Equal(t, wire.UDP, srv.Listeners[0].Transport)

	specs, err := cfg.Client.Specs()
	require.NoError(t, err)
	require.Len(t, specs, 4)

	assert.Equal(t, probe.FamilyDNS, specs[0].Family)
	assert.Equal(t, probe.KindValid, specs[0].Kind)
	assert.Equal(t, len(specs[0].Payload)-2, int(specs[0].Payload[0])<<8|int(specs[0].Payload[1]))
	assert.Contains(t, string(specs[0].Payload), "example")
	assert.Equal(t, 1500*time.Millisecond, specs[0].Timeout)

	assert.Equal(t, probe.FamilyDNS, specs[1].Family)
	assert.Equal(t, probe.KindRandom, specs[1].Kind)
	assert.Len(t, specs[1].Payload, wire.RandomPayloadSize)

	assert.Equal(t, probe.FamilySSH, specs[2].Family)
	assert.Equal(t, probe.FamilyTLS, specs[3].Family)
	assert.Equal(t, probe.KindEntropy, specs[3].Kind)
	assert.Len(t, specs[3].Payload, 100)

	runner := cfg.Client.NewRunner(nil)
	assert.Equal(t, probe.DefaultDelay, runner.Delay)
	assert.NotNil(t, runner.Network)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		document string
		contains string
	}{{
		name:     "unknown field",
		document: "server:\n  adress: 127.0.0.1\n",
		contains: "adress",
	}, {
		name:     "invalid transport",
		document: "server:\n  listeners:\n    - {port: 53, transport: sctp, label: DNS}\n",
		contains: "listeners[0]",
	}, {
		name:     "duplicate listener",
		document: "server:\n  listeners:\n    - {port: 53, transport: udp, label: A}\n    - {port: 53, transport: udp, label: B}\n",
		contains: "duplicate UDP port 53",
	}, {
		name:     "IPv6 answer",
		document: "server:\n  answer_addr: \"::1\"\n",
		contains: "not IPv4",
	}, {
		name:     "unknown payload",
		document: "client:\n  probes:\n    - {label: X, port: 1, transport: tcp, payload: quic}\n",
		contains: "unknown payload",
	}, {
		name:     "duplicate probe",
		document: "client:\n  probes:\n    - {label: X, port: 1, transport: tcp, payload: ssh}\n    - {label: X, port: 2, transport: tcp, payload: ssh}\n",
		contains: "duplicate label",
	}, {
		name:     "invalid domain",
		document: "client:\n  domain: \"a..b\"\n",
		contains: "encoding",
	}, {
		name:     "invalid level",
		document: "log:\n  level: verbose\n",
		contains: "verbose",
	}} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.document))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  target: 10.0.0.1\n"), 0600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", cfg.Client.Target)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogging(&buf, LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown","k":"v"`)

	_, err = SetupLogging(&buf, LogConfig{Format: "xml"})
	assert.Error(t, err)

	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}
