// SPDX-License-Identifier: GPL-3.0-or-later

package netcore

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/rbmk-project/common/errclass"
)

// DialContext resolves the host in address and connects to each resulting
// endpoint in turn, returning the first connection that succeeds or the
// joined errors of every attempt.
//
// For UDP, connecting only binds the socket to the remote endpoint: an
// unreachable port surfaces later as ECONNREFUSED on read.
func (nx *Network) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	endpoints, err := nx.resolveTarget(ctx, address)
	if err != nil {
		return nil, err
	}
	var errv []error
	for _, endpoint := range endpoints {
		conn, err := nx.dialOne(ctx, network, endpoint)
		if err == nil {
			return nx.observe(ctx, conn), nil
		}
		errv = append(errv, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errv...)
}

// dialOne connects to a single endpoint, logging connectStart and connectDone.
func (nx *Network) dialOne(ctx context.Context, network, endpoint string) (net.Conn, error) {
	t0 := nx.timeNow()
	nx.logAttrs(ctx, slog.LevelInfo, "connectStart",
		slog.String("protocol", network),
		slog.String("remoteAddr", endpoint),
		slog.Time("t", t0),
	)

	var (
		conn net.Conn
		err  error
	)
	if nx.DialContextFunc != nil {
		conn, err = nx.DialContextFunc(ctx, network, endpoint)
	} else {
		// multipath TCP would blur which path the payload took
		dialer := &net.Dialer{}
		dialer.SetMultipathTCP(false)
		conn, err = dialer.DialContext(ctx, network, endpoint)
	}

	localAddr := ""
	if err == nil && nx.Logger != nil {
		localAddr = addrString(conn.LocalAddr())
	}
	nx.logAttrs(ctx, slog.LevelInfo, "connectDone",
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.String("localAddr", localAddr),
		slog.String("protocol", network),
		slog.String("remoteAddr", endpoint),
		slog.Time("t0", t0),
		slog.Time("t", nx.timeNow()),
	)
	return conn, err
}
