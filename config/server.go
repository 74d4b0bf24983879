// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/rbmk-project/dpiprobe/eventlog"
	"github.com/rbmk-project/dpiprobe/fleet"
	"github.com/rbmk-project/dpiprobe/wire"
)

// FleetListeners converts the listeners, rejecting duplicated
// (port, transport) pairs.
func (c *ServerConfig) FleetListeners() ([]fleet.ListenerConfig, error) {
	type binding struct {
		port      uint16
		transport wire.Transport
	}
	var (
		errv []error
		out  []fleet.ListenerConfig
		seen = make(map[binding]bool)
	)
	for idx, lc := range c.Listeners {
		transport, err := wire.ParseTransport(lc.Transport)
		if err != nil {
			errv = append(errv, fmt.Errorf("listeners[%d]: %w", idx, err))
			continue
		}
		mode, err := fleet.ParseMode(lc.Mode)
		if err != nil {
			errv = append(errv, fmt.Errorf("listeners[%d]: %w", idx, err))
			continue
		}
		if lc.Label == "" {
			errv = append(errv, fmt.Errorf("listeners[%d]: empty label", idx))
			continue
		}
		key := binding{port: lc.Port, transport: transport}
		if lc.Port != 0 && seen[key] {
			errv = append(errv, fmt.Errorf("listeners[%d]: duplicate %s port %d", idx, transport, lc.Port))
			continue
		}
		seen[key] = true
		out = append(out, fleet.ListenerConfig{Port: lc.Port, Transport: transport, Label: lc.Label, Mode: mode})
	}
	return out, errors.Join(errv...)
}

func (c *ServerConfig) answerAddr() (netip.Addr, error) {
	addr, err := netip.ParseAddr(c.AnswerAddr)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("answer_addr: %w", err)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("answer_addr: %s is not IPv4", addr)
	}
	return addr, nil
}

// NewServer returns a [*fleet.Server] recording into log.
func (c *ServerConfig) NewServer(log *eventlog.Log, logger *slog.Logger) (*fleet.Server, error) {
	listeners, err := c.FleetListeners()
	if err != nil {
		return nil, err
	}
	answerAddr, err := c.answerAddr()
	if err != nil {
		return nil, err
	}
	srv := fleet.NewServer()
	srv.Address = c.Address
	srv.AnswerAddr = answerAddr
	srv.Listeners = listeners
	srv.Log = log
	srv.Logger = logger
	srv.MaxChunk = c.MaxChunk
	srv.ReadTimeout = c.ReadTimeout
	return srv, nil
}
