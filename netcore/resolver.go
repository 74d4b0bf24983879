// SPDX-License-Identifier: GPL-3.0-or-later

package netcore

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"slices"

	"github.com/rbmk-project/common/errclass"
)

// errNoAddrs indicates that a lookup returned no usable address.
var errNoAddrs = errors.New("netcore: no usable addresses")

// resolveTarget resolves the host inside a probe target address into a
// list of endpoints to dial. IP literals are used as is.
func (nx *Network) resolveTarget(ctx context.Context, address string) ([]string, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	addrs, err := nx.lookupAddrs(ctx, host)
	if err != nil {
		return nil, err
	}
	endpoints := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		endpoints = append(endpoints, net.JoinHostPort(addr.String(), port))
	}
	return endpoints, nil
}

// lookupAddrs returns the deduplicated addresses of host, IPv4 first.
func (nx *Network) lookupAddrs(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr.Unmap()}, nil
	}

	ctx, cancel := withTimeout(ctx, nx.LookupHostTimeout)
	defer cancel()

	t0 := nx.timeNow()
	nx.logAttrs(ctx, slog.LevelInfo, "resolveStart", slog.String("host", host), slog.Time("t", t0))
	raw, err := nx.lookupHost(ctx, host)
	addrs := sortAddrs(raw)
	if err == nil && len(addrs) <= 0 {
		err = errNoAddrs
	}
	var strs []string
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	nx.logAttrs(ctx, slog.LevelInfo, "resolveDone",
		slog.String("host", host),
		slog.Any("addrs", strs),
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.Time("t0", t0),
		slog.Time("t", nx.timeNow()),
	)
	if err != nil {
		return nil, err
	}
	return addrs, nil
}

// lookupHost uses LookupHostFunc or falls back to the system resolver.
func (nx *Network) lookupHost(ctx context.Context, host string) ([]string, error) {
	if nx.LookupHostFunc != nil {
		return nx.LookupHostFunc(ctx, host)
	}
	return (&net.Resolver{}).LookupHost(ctx, host)
}

// sortAddrs parses, unmaps, and deduplicates the addresses, putting IPv4
// before IPv6 and otherwise preserving the resolver order. Unparseable
// entries are skipped.
func sortAddrs(raw []string) []netip.Addr {
	var addrs []netip.Addr
	for _, entry := range raw {
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			continue
		}
		addr = addr.Unmap()
		if !slices.Contains(addrs, addr) {
			addrs = append(addrs, addr)
		}
	}
	slices.SortStableFunc(addrs, func(a, b netip.Addr) int {
		return cmp.Compare(a.BitLen(), b.BitLen())
	})
	return addrs
}

