// SPDX-License-Identifier: GPL-3.0-or-later

package netcore

import (
	"context"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/rbmk-project/common/errclass"
)

// addrString returns addr as a string, or "" for a nil address.
func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}

// addrNetwork returns the network of addr, or "" for a nil address.
func addrNetwork(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.Network()
}

// observe returns conn wrapped to log every read, write, and close, or
// conn itself when no Logger is configured.
func (nx *Network) observe(ctx context.Context, conn net.Conn) net.Conn {
	if nx.Logger == nil {
		return conn
	}
	local := conn.LocalAddr()
	return &observedConn{
		Conn: conn,
		ctx:  ctx,
		endpoint: []slog.Attr{
			slog.String("localAddr", addrString(local)),
			slog.String("protocol", addrNetwork(local)),
			slog.String("remoteAddr", addrString(conn.RemoteAddr())),
		},
		nx: nx,
	}
}

// observedConn is a [net.Conn] emitting <op>Start and <op>Done events.
//
// Deadlines and addresses come straight from the embedded conn.
type observedConn struct {
	net.Conn
	closeOnce sync.Once
	ctx       context.Context // only for logging
	endpoint  []slog.Attr
	nx        *Network
}

func (c *observedConn) log(msg string, attrs ...slog.Attr) {
	c.nx.logAttrs(c.ctx, slog.LevelInfo, msg, append(slices.Clone(c.endpoint), attrs...)...)
}

func (c *observedConn) logDone(op string, t0 time.Time, err error, attrs ...slog.Attr) {
	c.log(op+"Done", append(attrs,
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.Time("t0", t0),
		slog.Time("t", c.nx.timeNow()),
	)...)
}

// transfer runs a single read or write on buf.
func (c *observedConn) transfer(op string, buf []byte, fx func([]byte) (int, error)) (int, error) {
	t0 := c.nx.timeNow()
	c.log(op+"Start", slog.Int("ioBufferSize", len(buf)), slog.Time("t", t0))
	count, err := fx(buf)
	c.logDone(op, t0, err, slog.Int("ioBytesCount", count))
	return count, err
}

// Read implements [net.Conn].
func (c *observedConn) Read(buf []byte) (int, error) {
	return c.transfer("read", buf, c.Conn.Read)
}

// Write implements [net.Conn].
func (c *observedConn) Write(data []byte) (int, error) {
	return c.transfer("write", data, c.Conn.Write)
}

// Close implements [net.Conn]. Only the first call closes and logs.
func (c *observedConn) Close() (err error) {
	c.closeOnce.Do(func() {
		t0 := c.nx.timeNow()
		c.log("closeStart", slog.Time("t", t0))
		err = c.Conn.Close()
		c.logDone("close", t0, err)
	})
	return
}
