// SPDX-License-Identifier: GPL-3.0-or-later

package netcore

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// Network dials the TCP and UDP connections that carry probe payloads.
//
// The zero value is ready to use. Do not modify the fields once the
// network is shared by concurrent dials.
type Network struct {
	// DialContextFunc optionally replaces [*net.Dialer] for
	// connecting to a single resolved endpoint.
	DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

	// Logger is the optional structured logger. When nil, the
	// network and its connections do not log.
	Logger *slog.Logger

	// LookupHostFunc optionally replaces the system resolver.
	LookupHostFunc func(ctx context.Context, domain string) ([]string, error)

	// LookupHostTimeout bounds each lookup when positive.
	LookupHostTimeout time.Duration

	// TimeNow optionally replaces [time.Now].
	TimeNow func() time.Time
}

// NewNetwork returns a [*Network] using the system dialer and resolver.
func NewNetwork() *Network {
	return &Network{}
}

func (nx *Network) timeNow() time.Time {
	if nx.TimeNow != nil {
		return nx.TimeNow()
	}
	return time.Now()
}

// logAttrs emits a log entry when a Logger is configured.
func (nx *Network) logAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if nx.Logger != nil {
		nx.Logger.LogAttrs(ctx, level, msg, attrs...)
	}
}

// withTimeout returns a child context when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
